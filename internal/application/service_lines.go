package application

import (
	"encoding/json"
	"fmt"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
)

// BuildServiceLine decodes the family-specific helper input and prices the line.
func BuildServiceLine(t serviceline.ServiceType, raw json.RawMessage) (serviceline.Line, error) {
	switch t {
	case serviceline.TypeHotel:
		return build(raw, serviceline.NewHotel)
	case serviceline.TypeTransfer:
		return build(raw, serviceline.NewTransfer)
	case serviceline.TypeVehicleRental:
		return build(raw, serviceline.NewVehicleRental)
	case serviceline.TypeTour:
		return build(raw, serviceline.NewTour)
	case serviceline.TypeGuide:
		return build(raw, serviceline.NewGuide)
	case serviceline.TypeRestaurant:
		return build(raw, serviceline.NewRestaurant)
	case serviceline.TypeEntranceFee:
		return build(raw, serviceline.NewEntranceFee)
	case serviceline.TypeExtra:
		return build(raw, serviceline.NewExtra)
	}
	return serviceline.Line{}, domain.NewValidationError(fmt.Sprintf("invalid service type: %s", t))
}

func build[In any](raw json.RawMessage, newLine func(In) (serviceline.Line, error)) (serviceline.Line, error) {
	var in In
	if err := json.Unmarshal(raw, &in); err != nil {
		return serviceline.Line{}, domain.NewValidationError(fmt.Sprintf("invalid service input: %v", err))
	}
	return newLine(in)
}
