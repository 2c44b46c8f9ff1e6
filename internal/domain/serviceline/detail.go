package serviceline

import (
	"time"

	"github.com/google/uuid"
)

// Detail is the family-specific part of a service line.
type Detail interface {
	ServiceType() ServiceType
}

// HotelDetail references a hotel room booking.
type HotelDetail struct {
	HotelID    uuid.UUID `json:"hotelId"`
	RoomTypeID uuid.UUID `json:"roomTypeId"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	Nights     int       `json:"nights"`
	Rooms      int       `json:"rooms"`
	MealPlan   string    `json:"mealPlan,omitempty"`
}

func (HotelDetail) ServiceType() ServiceType { return TypeHotel }

// TransferRateType selects which rate of a transfer route applies.
type TransferRateType string

const (
	RateOneWay    TransferRateType = "one_way"
	RateRoundTrip TransferRateType = "round_trip"
	RateHourly    TransferRateType = "hourly"
)

// TransferDetail references a transfer route.
type TransferDetail struct {
	TransferRouteID uuid.UUID        `json:"transferRouteId"`
	RateType        TransferRateType `json:"rateType"`
	Hours           int              `json:"hours,omitempty"`
	Pax             int              `json:"pax"`
}

func (TransferDetail) ServiceType() ServiceType { return TypeTransfer }

// VehicleRentalDetail references a rented vehicle.
type VehicleRentalDetail struct {
	VehicleRentalID uuid.UUID `json:"vehicleRentalId"`
	Days            int       `json:"days"`
	WithDriver      bool      `json:"withDriver"`
}

func (VehicleRentalDetail) ServiceType() ServiceType { return TypeVehicleRental }

// TourDetail references a tour operated by a tour company.
type TourDetail struct {
	TourCompanyID uuid.UUID `json:"tourCompanyId"`
	TourName      string    `json:"tourName"`
	Pax           int       `json:"pax"`
}

func (TourDetail) ServiceType() ServiceType { return TypeTour }

// GuideDetail references a guide engagement.
type GuideDetail struct {
	GuideID  uuid.UUID `json:"guideId"`
	Days     int       `json:"days"`
	Language string    `json:"language,omitempty"`
}

func (GuideDetail) ServiceType() ServiceType { return TypeGuide }

// RestaurantDetail references a restaurant reservation.
type RestaurantDetail struct {
	RestaurantID uuid.UUID `json:"restaurantId"`
	MealType     string    `json:"mealType,omitempty"`
	Pax          int       `json:"pax"`
}

func (RestaurantDetail) ServiceType() ServiceType { return TypeRestaurant }

// EntranceFeeDetail references a site entrance fee.
type EntranceFeeDetail struct {
	EntranceFeeID uuid.UUID `json:"entranceFeeId"`
	SiteName      string    `json:"siteName"`
	Adults        int       `json:"adults"`
	Children      int       `json:"children"`
}

func (EntranceFeeDetail) ServiceType() ServiceType { return TypeEntranceFee }

// ExtraDetail references an entry of the extra-expense catalog.
type ExtraDetail struct {
	ExtraExpenseID uuid.UUID `json:"extraExpenseId"`
	Label          string    `json:"label"`
}

func (ExtraDetail) ServiceType() ServiceType { return TypeExtra }

// ReferenceID returns the catalog id carried by a detail.
func ReferenceID(d Detail) uuid.UUID {
	switch v := d.(type) {
	case HotelDetail:
		return v.HotelID
	case TransferDetail:
		return v.TransferRouteID
	case VehicleRentalDetail:
		return v.VehicleRentalID
	case TourDetail:
		return v.TourCompanyID
	case GuideDetail:
		return v.GuideID
	case RestaurantDetail:
		return v.RestaurantID
	case EntranceFeeDetail:
		return v.EntranceFeeID
	case ExtraDetail:
		return v.ExtraExpenseID
	}
	return uuid.Nil
}

// newDetail returns an empty detail value for a service type, used when decoding.
func newDetail(t ServiceType) (Detail, bool) {
	switch t {
	case TypeHotel:
		return &HotelDetail{}, true
	case TypeTransfer:
		return &TransferDetail{}, true
	case TypeVehicleRental:
		return &VehicleRentalDetail{}, true
	case TypeTour:
		return &TourDetail{}, true
	case TypeGuide:
		return &GuideDetail{}, true
	case TypeRestaurant:
		return &RestaurantDetail{}, true
	case TypeEntranceFee:
		return &EntranceFeeDetail{}, true
	case TypeExtra:
		return &ExtraDetail{}, true
	}
	return nil, false
}

// deref turns a decoded *XDetail back into its value form.
func deref(d Detail) Detail {
	switch v := d.(type) {
	case *HotelDetail:
		return *v
	case *TransferDetail:
		return *v
	case *VehicleRentalDetail:
		return *v
	case *TourDetail:
		return *v
	case *GuideDetail:
		return *v
	case *RestaurantDetail:
		return *v
	case *EntranceFeeDetail:
		return *v
	case *ExtraDetail:
		return *v
	}
	return d
}
