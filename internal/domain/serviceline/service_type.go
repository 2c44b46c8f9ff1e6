package serviceline

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ServiceType identifies the family of a bookable service line.
type ServiceType string

const (
	TypeHotel         ServiceType = "hotel"
	TypeTransfer      ServiceType = "transfer"
	TypeVehicleRental ServiceType = "vehicle_rental"
	TypeTour          ServiceType = "tour"
	TypeGuide         ServiceType = "guide"
	TypeRestaurant    ServiceType = "restaurant"
	TypeEntranceFee   ServiceType = "entrance_fee"
	TypeExtra         ServiceType = "extra"
)

// lineMarkups is the markup seeded into SellingPrice when a helper creates a line.
var lineMarkups = map[ServiceType]decimal.Decimal{
	TypeHotel:         decimal.RequireFromString("0.10"),
	TypeTransfer:      decimal.RequireFromString("0.15"),
	TypeVehicleRental: decimal.RequireFromString("0.15"),
	TypeTour:          decimal.RequireFromString("0.20"),
	TypeGuide:         decimal.RequireFromString("0.20"),
	TypeRestaurant:    decimal.RequireFromString("0.20"),
	TypeEntranceFee:   decimal.RequireFromString("0.20"),
	TypeExtra:         decimal.RequireFromString("0.20"),
}

// IsValid returns true if the service type is recognized.
func (t ServiceType) IsValid() bool {
	_, ok := lineMarkups[t]
	return ok
}

// LineMarkup returns the family markup rate (0.10 means 10%).
func (t ServiceType) LineMarkup() decimal.Decimal {
	return lineMarkups[t]
}

// String returns the string representation of the service type.
func (t ServiceType) String() string {
	return string(t)
}

// ParseServiceType converts a string to a ServiceType, returning an error if invalid.
func ParseServiceType(s string) (ServiceType, error) {
	t := ServiceType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid service type: %s", s)
	}
	return t, nil
}
