package serviceline

import (
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommonInput carries the fields every creation helper needs besides its family inputs.
type CommonInput struct {
	ServiceDate     time.Time       `json:"serviceDate"`
	CostCurrency    string          `json:"costCurrency" binding:"required"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	SellingCurrency string          `json:"sellingCurrency"`
	Notes           string          `json:"notes"`
	Description     string          `json:"description"`
}

// HotelInput prices a hotel stay from the room rate.
type HotelInput struct {
	CommonInput
	HotelID    uuid.UUID       `json:"hotelId" binding:"required"`
	RoomTypeID uuid.UUID       `json:"roomTypeId"`
	CheckIn    time.Time       `json:"checkIn"`
	CheckOut   time.Time       `json:"checkOut"`
	Rooms      int             `json:"rooms"`
	RoomPrice  decimal.Decimal `json:"roomPrice"`
	MealPlan   string          `json:"mealPlan"`
}

// TransferRates lists the rates of a transfer route.
type TransferRates struct {
	OneWay    decimal.Decimal `json:"oneWay"`
	RoundTrip decimal.Decimal `json:"roundTrip"`
	Hourly    decimal.Decimal `json:"hourly"`
}

// TransferInput prices a transfer by rate-type lookup.
type TransferInput struct {
	CommonInput
	TransferRouteID uuid.UUID        `json:"transferRouteId" binding:"required"`
	RateType        TransferRateType `json:"rateType" binding:"required"`
	Rates           TransferRates    `json:"rates"`
	Hours           int              `json:"hours"`
	Pax             int              `json:"pax"`
}

// VehicleRentalInput prices a vehicle rental per day.
type VehicleRentalInput struct {
	CommonInput
	VehicleRentalID uuid.UUID       `json:"vehicleRentalId" binding:"required"`
	DailyRate       decimal.Decimal `json:"dailyRate"`
	Days            int             `json:"days"`
	WithDriver      bool            `json:"withDriver"`
	DriverDailyRate decimal.Decimal `json:"driverDailyRate"`
}

// TourInput prices a tour per person plus an optional group fee.
type TourInput struct {
	CommonInput
	TourCompanyID  uuid.UUID       `json:"tourCompanyId" binding:"required"`
	TourName       string          `json:"tourName"`
	PricePerPerson decimal.Decimal `json:"pricePerPerson"`
	Pax            int             `json:"pax"`
	GroupFee       decimal.Decimal `json:"groupFee"`
}

// GuideInput prices a guide engagement per day.
type GuideInput struct {
	CommonInput
	GuideID   uuid.UUID       `json:"guideId" binding:"required"`
	DailyRate decimal.Decimal `json:"dailyRate"`
	Days      int             `json:"days"`
	Language  string          `json:"language"`
}

// RestaurantInput prices a restaurant reservation per person.
type RestaurantInput struct {
	CommonInput
	RestaurantID   uuid.UUID       `json:"restaurantId" binding:"required"`
	MealType       string          `json:"mealType"`
	PricePerPerson decimal.Decimal `json:"pricePerPerson"`
	Pax            int             `json:"pax"`
}

// EntranceFeeInput prices a site entrance per visitor.
type EntranceFeeInput struct {
	CommonInput
	EntranceFeeID uuid.UUID       `json:"entranceFeeId" binding:"required"`
	SiteName      string          `json:"siteName"`
	AdultPrice    decimal.Decimal `json:"adultPrice"`
	ChildPrice    decimal.Decimal `json:"childPrice"`
	Adults        int             `json:"adults"`
	Children      int             `json:"children"`
}

// ExtraInput prices a miscellaneous extra.
type ExtraInput struct {
	CommonInput
	ExtraExpenseID uuid.UUID       `json:"extraExpenseId"`
	Label          string          `json:"label" binding:"required"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Quantity       int             `json:"quantity"`
}

// NewHotel creates a hotel line: room price × nights × rooms, 10% line markup.
func NewHotel(in HotelInput) (Line, error) {
	if in.HotelID == uuid.Nil {
		return Line{}, domain.NewValidationError("hotel ID is required")
	}
	if !in.CheckOut.After(in.CheckIn) {
		return Line{}, domain.NewValidationError("check-out must be after check-in")
	}
	if in.Rooms < 1 {
		return Line{}, domain.NewValidationError("at least one room is required")
	}
	nights := nightsBetween(in.CheckIn, in.CheckOut)
	cost := in.RoomPrice.Mul(decimal.NewFromInt(int64(nights))).Mul(decimal.NewFromInt(int64(in.Rooms)))
	if in.ServiceDate.IsZero() {
		in.ServiceDate = in.CheckIn
	}
	detail := HotelDetail{
		HotelID:    in.HotelID,
		RoomTypeID: in.RoomTypeID,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Nights:     nights,
		Rooms:      in.Rooms,
		MealPlan:   in.MealPlan,
	}
	return seeded(detail, in.CommonInput, cost, 1)
}

// NewTransfer creates a transfer line priced by its rate type, 15% line markup.
func NewTransfer(in TransferInput) (Line, error) {
	if in.TransferRouteID == uuid.Nil {
		return Line{}, domain.NewValidationError("transfer route ID is required")
	}
	var cost decimal.Decimal
	switch in.RateType {
	case RateOneWay:
		cost = in.Rates.OneWay
	case RateRoundTrip:
		cost = in.Rates.RoundTrip
	case RateHourly:
		if in.Hours < 1 {
			return Line{}, domain.NewValidationError("hourly transfer requires hours")
		}
		cost = in.Rates.Hourly.Mul(decimal.NewFromInt(int64(in.Hours)))
	default:
		return Line{}, domain.NewValidationError(fmt.Sprintf("invalid transfer rate type: %s", in.RateType))
	}
	detail := TransferDetail{
		TransferRouteID: in.TransferRouteID,
		RateType:        in.RateType,
		Hours:           in.Hours,
		Pax:             in.Pax,
	}
	return seeded(detail, in.CommonInput, cost, 1)
}

// NewVehicleRental creates a vehicle rental line: daily rate × days, plus the driver, 15% line markup.
func NewVehicleRental(in VehicleRentalInput) (Line, error) {
	if in.VehicleRentalID == uuid.Nil {
		return Line{}, domain.NewValidationError("vehicle rental ID is required")
	}
	if in.Days < 1 {
		return Line{}, domain.NewValidationError("rental requires at least one day")
	}
	daily := in.DailyRate
	if in.WithDriver {
		daily = daily.Add(in.DriverDailyRate)
	}
	cost := daily.Mul(decimal.NewFromInt(int64(in.Days)))
	detail := VehicleRentalDetail{
		VehicleRentalID: in.VehicleRentalID,
		Days:            in.Days,
		WithDriver:      in.WithDriver,
	}
	return seeded(detail, in.CommonInput, cost, 1)
}

// NewTour creates a tour line: per-person price × pax plus group fee, 20% line markup.
func NewTour(in TourInput) (Line, error) {
	if in.TourCompanyID == uuid.Nil {
		return Line{}, domain.NewValidationError("tour company ID is required")
	}
	if in.Pax < 1 {
		return Line{}, domain.NewValidationError("tour requires at least one participant")
	}
	cost := in.PricePerPerson.Mul(decimal.NewFromInt(int64(in.Pax))).Add(in.GroupFee)
	detail := TourDetail{
		TourCompanyID: in.TourCompanyID,
		TourName:      in.TourName,
		Pax:           in.Pax,
	}
	return seeded(detail, in.CommonInput, cost, 1)
}

// NewGuide creates a guide line: daily rate × days, 20% line markup.
func NewGuide(in GuideInput) (Line, error) {
	if in.GuideID == uuid.Nil {
		return Line{}, domain.NewValidationError("guide ID is required")
	}
	if in.Days < 1 {
		return Line{}, domain.NewValidationError("guide requires at least one day")
	}
	cost := in.DailyRate.Mul(decimal.NewFromInt(int64(in.Days)))
	detail := GuideDetail{
		GuideID:  in.GuideID,
		Days:     in.Days,
		Language: in.Language,
	}
	return seeded(detail, in.CommonInput, cost, 1)
}

// NewRestaurant creates a restaurant line: per-person price × pax, 20% line markup.
func NewRestaurant(in RestaurantInput) (Line, error) {
	if in.RestaurantID == uuid.Nil {
		return Line{}, domain.NewValidationError("restaurant ID is required")
	}
	if in.Pax < 1 {
		return Line{}, domain.NewValidationError("reservation requires at least one guest")
	}
	cost := in.PricePerPerson.Mul(decimal.NewFromInt(int64(in.Pax)))
	detail := RestaurantDetail{
		RestaurantID: in.RestaurantID,
		MealType:     in.MealType,
		Pax:          in.Pax,
	}
	return seeded(detail, in.CommonInput, cost, 1)
}

// NewEntranceFee creates an entrance fee line priced per visitor, 20% line markup.
func NewEntranceFee(in EntranceFeeInput) (Line, error) {
	if in.EntranceFeeID == uuid.Nil {
		return Line{}, domain.NewValidationError("entrance fee ID is required")
	}
	if in.Adults < 0 || in.Children < 0 || in.Adults+in.Children == 0 {
		return Line{}, domain.NewValidationError("entrance fee requires at least one visitor")
	}
	cost := in.AdultPrice.Mul(decimal.NewFromInt(int64(in.Adults))).
		Add(in.ChildPrice.Mul(decimal.NewFromInt(int64(in.Children))))
	detail := EntranceFeeDetail{
		EntranceFeeID: in.EntranceFeeID,
		SiteName:      in.SiteName,
		Adults:        in.Adults,
		Children:      in.Children,
	}
	return seeded(detail, in.CommonInput, cost, 1)
}

// NewExtra creates an extra line at unit price with the requested quantity, 20% line markup.
func NewExtra(in ExtraInput) (Line, error) {
	if in.Label == "" {
		return Line{}, domain.NewValidationError("extra label is required")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	detail := ExtraDetail{
		ExtraExpenseID: in.ExtraExpenseID,
		Label:          in.Label,
	}
	return seeded(detail, in.CommonInput, in.UnitPrice, qty)
}

// seeded builds a line whose SellingPrice is the unit base cost plus the family markup.
func seeded(detail Detail, in CommonInput, unitCost decimal.Decimal, quantity int) (Line, error) {
	rate := in.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	selling := in.SellingCurrency
	if selling == "" {
		selling = in.CostCurrency
	}
	markup := decimal.NewFromInt(1).Add(detail.ServiceType().LineMarkup())
	return NewLine(detail, Cost{
		ServiceDate:        in.ServiceDate,
		Quantity:           quantity,
		CostAmount:         unitCost,
		CostCurrency:       in.CostCurrency,
		ExchangeRate:       rate,
		SellingPrice:       unitCost.Mul(rate).Mul(markup),
		SellingCurrency:    selling,
		ServiceNotes:       in.Notes,
		ServiceDescription: in.Description,
	})
}

func nightsBetween(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	n := int(out.Sub(in).Hours() / 24)
	if n < 1 {
		n = 1
	}
	return n
}
