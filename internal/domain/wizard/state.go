// Package wizard holds the booking wizard state and the rules that gate its steps.
package wizard

import (
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/google/uuid"
)

// Step is a wizard step, numbered from 1.
type Step int

const (
	StepClient Step = iota + 1
	StepTrip
	StepPassengers
	StepServices
	StepReview
)

// IsValid returns true if the step is within the wizard.
func (s Step) IsValid() bool {
	return s >= StepClient && s <= StepReview
}

func (s Step) String() string {
	switch s {
	case StepClient:
		return "client"
	case StepTrip:
		return "trip_details"
	case StepPassengers:
		return "passengers"
	case StepServices:
		return "services"
	case StepReview:
		return "review"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// TargetStatus is the booking status a submission asks for.
type TargetStatus string

const (
	TargetDraft     TargetStatus = "draft"
	TargetQuotation TargetStatus = "quotation"
	TargetConfirmed TargetStatus = "confirmed"
)

// IsValid returns true if the target status can be submitted.
func (t TargetStatus) IsValid() bool {
	return t == TargetDraft || t == TargetQuotation || t == TargetConfirmed
}

// PaymentSchedule holds the due dates chosen in the wizard. Nil dates take defaults at submission.
type PaymentSchedule struct {
	DepositDueDate *time.Time `json:"depositDueDate,omitempty"`
	BalanceDueDate *time.Time `json:"balanceDueDate,omitempty"`
}

// PromoStatus tracks the promo code lookup.
type PromoStatus string

const (
	PromoIdle     PromoStatus = "idle"
	PromoChecking PromoStatus = "checking"
	PromoValid    PromoStatus = "valid"
	PromoInvalid  PromoStatus = "invalid"
)

// PromoState is the promo slice of the wizard, updated independently of the fold.
type PromoState struct {
	Code    string      `json:"code,omitempty"`
	Status  PromoStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// PromoResult is the answer of a promo code lookup.
type PromoResult struct {
	Valid   bool
	Promo   *pricing.Promo
	Message string
}

// State is everything the wizard has collected so far.
type State struct {
	DraftID         uuid.UUID              `json:"draftId"`
	Client          *Client                `json:"client,omitempty"`
	TripDetails     *TripDetails           `json:"tripDetails,omitempty"`
	Passengers      []Passenger            `json:"passengers"`
	Services        serviceline.Collection `json:"services"`
	Pricing         pricing.Params         `json:"pricing"`
	PaymentSchedule PaymentSchedule        `json:"paymentSchedule"`
	Promo           PromoState             `json:"promo"`
	CurrentStep     Step                   `json:"currentStep"`
	CompletedSteps  map[Step]bool          `json:"completedSteps"`
	IsSubmitting    bool                   `json:"isSubmitting"`
	Revision        uint64                 `json:"revision"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// IsStepComplete reports whether a step's completion flag is set.
func (s State) IsStepComplete(step Step) bool {
	return s.CompletedSteps[step]
}

// LeadPassenger returns the first passenger flagged as lead.
func (s State) LeadPassenger() (Passenger, bool) {
	for _, p := range s.Passengers {
		if p.IsLeadPassenger {
			return p, true
		}
	}
	return Passenger{}, false
}

// Currency is the trip currency, USD until the trip is set.
func (s State) Currency() string {
	if s.TripDetails == nil || s.TripDetails.Currency == "" {
		return "USD"
	}
	return s.TripDetails.Currency
}

// Breakdown folds the current services and pricing inputs.
func (s State) Breakdown() pricing.Breakdown {
	return pricing.Compute(s.Services, s.Pricing)
}

func (s State) clone() State {
	c := s
	if s.Client != nil {
		cl := *s.Client
		c.Client = &cl
	}
	if s.TripDetails != nil {
		td := s.TripDetails.clone()
		c.TripDetails = &td
	}
	c.Passengers = make([]Passenger, len(s.Passengers))
	copy(c.Passengers, s.Passengers)
	c.Services = make(serviceline.Collection, len(s.Services))
	copy(c.Services, s.Services)
	if s.Pricing.Promo != nil {
		p := *s.Pricing.Promo
		c.Pricing.Promo = &p
	}
	if s.Pricing.DepositAmount != nil {
		d := *s.Pricing.DepositAmount
		c.Pricing.DepositAmount = &d
	}
	c.CompletedSteps = make(map[Step]bool, len(s.CompletedSteps))
	for k, v := range s.CompletedSteps {
		c.CompletedSteps[k] = v
	}
	return c
}

func emptyState(id uuid.UUID, now time.Time) State {
	return State{
		DraftID:        id,
		Passengers:     []Passenger{},
		Services:       serviceline.Collection{},
		Promo:          PromoState{Status: PromoIdle},
		CurrentStep:    StepClient,
		CompletedSteps: map[Step]bool{},
		UpdatedAt:      now,
	}
}
