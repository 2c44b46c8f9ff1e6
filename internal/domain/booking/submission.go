package booking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment schedule defaults applied when the wizard leaves a due date empty.
const (
	DefaultDepositDueDays  = 7
	DefaultBalanceLeadDays = 30
)

// Priority ranks a booking in the back office queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid returns true if the priority is recognized.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Extras are the submission fields that do not live in the wizard state.
type Extras struct {
	BookingSource        wizard.BookingSource
	Priority             Priority
	CancellationPolicyID *uuid.UUID
	CampaignID           *uuid.UUID
	Notes                string
	InternalNotes        string
	DepositDueDate       *time.Time
	BalanceDueDate       *time.Time
	TermsAccepted        bool
	SubmittedAt          time.Time
}

// Payload is the booking-creation contract. Field names are translated to the
// external snake_case convention here and nowhere else.
type Payload struct {
	Booking    Details           `json:"booking"`
	Passengers []PassengerRecord `json:"passengers"`
	Services   []ServiceRecord   `json:"services"`
}

// Details are the booking-level fields of a payload.
type Details struct {
	Status               BookingStatus        `json:"status"`
	ClientID             uuid.UUID            `json:"client_id"`
	ClientType           wizard.ClientType    `json:"client_type"`
	ClientName           string               `json:"client_name"`
	ClientEmail          string               `json:"client_email,omitempty"`
	ClientPhone          string               `json:"client_phone,omitempty"`
	TravelStartDate      Date                 `json:"travel_start_date"`
	TravelEndDate        Date                 `json:"travel_end_date"`
	NumNights            int                  `json:"num_nights"`
	DestinationCityID    uuid.UUID            `json:"destination_city_id"`
	NumAdults            int                  `json:"num_adults"`
	NumChildren          int                  `json:"num_children"`
	ChildrenAges         []int                `json:"children_ages"`
	Currency             string               `json:"currency"`
	TripType             wizard.TripType      `json:"trip_type"`
	BookingSource        wizard.BookingSource `json:"booking_source"`
	Priority             Priority             `json:"priority"`
	IsGroupBooking       bool                 `json:"is_group_booking"`
	GroupName            string               `json:"group_name,omitempty"`
	GroupLeaderName      string               `json:"group_leader_name,omitempty"`
	GroupLeaderContact   string               `json:"group_leader_contact,omitempty"`
	EmergencyName        string               `json:"emergency_contact_name,omitempty"`
	EmergencyPhone       string               `json:"emergency_contact_phone,omitempty"`
	EmergencyRelation    string               `json:"emergency_contact_relationship,omitempty"`
	SpecialRequests      string               `json:"special_requests,omitempty"`
	Notes                string               `json:"notes,omitempty"`
	InternalNotes        string               `json:"internal_notes,omitempty"`
	CancellationPolicyID *uuid.UUID           `json:"cancellation_policy_id,omitempty"`
	CampaignID           *uuid.UUID           `json:"campaign_id,omitempty"`
	PromoCode            string               `json:"promo_code,omitempty"`
	TermsAccepted        bool                 `json:"terms_accepted"`

	ServicesCost         decimal.Decimal `json:"services_cost"`
	MarkupPercentage     decimal.Decimal `json:"markup_percentage"`
	MarkupAmount         decimal.Decimal `json:"markup_amount"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	ProfitAmount         decimal.Decimal `json:"profit_amount"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	PromoDiscount        decimal.Decimal `json:"promo_discount"`
	ManualDiscount       decimal.Decimal `json:"manual_discount"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	TaxRate              decimal.Decimal `json:"tax_rate"`
	TaxAmount            decimal.Decimal `json:"tax_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	DepositAmount        decimal.Decimal `json:"deposit_amount"`
	BalanceAmount        decimal.Decimal `json:"balance_amount"`
	DepositDueDate       Date            `json:"deposit_due_date"`
	BalanceDueDate       Date            `json:"balance_due_date"`
}

// PassengerRecord is one passenger as the booking endpoint expects it.
type PassengerRecord struct {
	Title                string               `json:"title"`
	FirstName            string               `json:"first_name"`
	LastName             string               `json:"last_name"`
	DateOfBirth          Date                 `json:"date_of_birth"`
	Age                  int                  `json:"age"`
	PassengerType        wizard.PassengerType `json:"passenger_type"`
	Gender               string               `json:"gender"`
	Nationality          string               `json:"nationality"`
	PassportNumber       string               `json:"passport_number"`
	PassportExpiry       Date                 `json:"passport_expiry"`
	PassportIssueCountry string               `json:"passport_issue_country"`
	IsLeadPassenger      bool                 `json:"is_lead_passenger"`
	Email                string               `json:"email,omitempty"`
	Phone                string               `json:"phone,omitempty"`
	DietaryRequirements  string               `json:"dietary_requirements,omitempty"`
	MedicalConditions    string               `json:"medical_conditions,omitempty"`
	AccessibilityNeeds   string               `json:"accessibility_needs,omitempty"`
	Notes                string               `json:"notes,omitempty"`
	RoomPreference       string               `json:"room_preference,omitempty"`
	BedPreference        string               `json:"bed_preference,omitempty"`
}

// ServiceRecord is one service line as the booking endpoint expects it.
type ServiceRecord struct {
	ServiceType        serviceline.ServiceType `json:"service_type"`
	ReferenceID        uuid.UUID               `json:"reference_id"`
	ServiceDate        Date                    `json:"service_date"`
	Quantity           int                     `json:"quantity"`
	CostAmount         decimal.Decimal         `json:"cost_amount"`
	CostCurrency       string                  `json:"cost_currency"`
	ExchangeRate       decimal.Decimal         `json:"exchange_rate"`
	CostInBaseCurrency decimal.Decimal         `json:"cost_in_base_currency"`
	SellingPrice       decimal.Decimal         `json:"selling_price"`
	SellingCurrency    string                  `json:"selling_currency"`
	TotalCost          decimal.Decimal         `json:"total_cost"`
	TotalSelling       decimal.Decimal         `json:"total_selling"`
	ServiceNotes       string                  `json:"service_notes,omitempty"`
	ServiceDescription string                  `json:"service_description,omitempty"`
	Details            json.RawMessage         `json:"details"`
}

// Assemble maps wizard state and its price breakdown into a booking payload.
// The shape is the same for every target status. Validation is the caller's job.
func Assemble(s wizard.State, b pricing.Breakdown, x Extras, target wizard.TargetStatus) (Payload, error) {
	status := BookingStatus(target)
	if !status.IsSubmittable() {
		return Payload{}, domain.NewValidationError(fmt.Sprintf("cannot submit with status %q", target))
	}
	if s.Client == nil || s.TripDetails == nil {
		return Payload{}, domain.NewValidationError("client and trip details are required")
	}
	if x.SubmittedAt.IsZero() {
		x.SubmittedAt = time.Now().UTC()
	}
	if x.Priority == "" {
		x.Priority = PriorityNormal
	}
	if !x.Priority.IsValid() {
		return Payload{}, domain.NewValidationError(fmt.Sprintf("invalid priority: %s", x.Priority))
	}
	trip := *s.TripDetails
	if x.BookingSource == "" {
		x.BookingSource = trip.BookingSource
	}
	if x.BookingSource != "" && !x.BookingSource.IsValid() {
		return Payload{}, domain.NewValidationError(fmt.Sprintf("invalid booking source: %s", x.BookingSource))
	}

	depositDue, balanceDue := dueDates(s, x, trip.TravelStartDate)

	d := Details{
		Status:               status,
		ClientID:             s.Client.ID,
		ClientType:           s.Client.Type,
		ClientName:           s.Client.Name,
		ClientEmail:          s.Client.Email,
		ClientPhone:          s.Client.Phone,
		TravelStartDate:      NewDate(trip.TravelStartDate),
		TravelEndDate:        NewDate(trip.TravelEndDate),
		NumNights:            trip.Nights(),
		DestinationCityID:    trip.DestinationCityID,
		NumAdults:            trip.NumAdults,
		NumChildren:          trip.NumChildren,
		ChildrenAges:         append([]int{}, trip.ChildrenAges...),
		Currency:             trip.Currency,
		TripType:             trip.TripType,
		BookingSource:        x.BookingSource,
		Priority:             x.Priority,
		IsGroupBooking:       trip.IsGroupBooking,
		EmergencyName:        trip.EmergencyContact.Name,
		EmergencyPhone:       trip.EmergencyContact.Phone,
		EmergencyRelation:    trip.EmergencyContact.Relationship,
		SpecialRequests:      trip.SpecialRequests,
		Notes:                x.Notes,
		InternalNotes:        x.InternalNotes,
		CancellationPolicyID: x.CancellationPolicyID,
		CampaignID:           x.CampaignID,
		TermsAccepted:        x.TermsAccepted,

		ServicesCost:         pricing.Money(b.ServicesCost),
		MarkupPercentage:     s.Pricing.MarkupPercentage,
		MarkupAmount:         pricing.Money(b.Markup),
		CommissionPercentage: s.Pricing.CommissionPercentage,
		CommissionAmount:     pricing.Money(b.Commission),
		ProfitAmount:         pricing.Money(b.ProfitAmount),
		Subtotal:             pricing.Money(b.Subtotal),
		PromoDiscount:        pricing.Money(b.PromoDiscount),
		ManualDiscount:       pricing.Money(b.ManualDiscount),
		DiscountAmount:       pricing.Money(b.TotalDiscount),
		TaxRate:              s.Pricing.TaxRate,
		TaxAmount:            pricing.Money(b.TaxAmount),
		TotalAmount:          pricing.Money(b.TotalAmount),
		DepositAmount:        pricing.Money(b.DepositAmount),
		BalanceAmount:        pricing.Money(b.TotalAmount).Sub(pricing.Money(b.DepositAmount)),
		DepositDueDate:       depositDue,
		BalanceDueDate:       balanceDue,
	}
	if trip.IsGroupBooking && trip.Group != nil {
		d.GroupName = trip.Group.Name
		d.GroupLeaderName = trip.Group.LeaderName
		d.GroupLeaderContact = trip.Group.LeaderContact
	}
	if s.Pricing.Promo != nil {
		d.PromoCode = s.Pricing.Promo.Code
	}

	passengers := make([]PassengerRecord, 0, len(s.Passengers))
	for _, p := range s.Passengers {
		passengers = append(passengers, passengerRecord(p, trip.TravelStartDate))
	}

	services := make([]ServiceRecord, 0, len(s.Services))
	for _, l := range s.Services {
		rec, err := serviceRecord(l)
		if err != nil {
			return Payload{}, err
		}
		services = append(services, rec)
	}

	return Payload{Booking: d, Passengers: passengers, Services: services}, nil
}

// dueDates resolves the payment schedule: explicit dates win over wizard dates, which win over
// defaults. The balance is never due before the deposit.
func dueDates(s wizard.State, x Extras, travelStart time.Time) (Date, Date) {
	deposit := x.DepositDueDate
	if deposit == nil {
		deposit = s.PaymentSchedule.DepositDueDate
	}
	balance := x.BalanceDueDate
	if balance == nil {
		balance = s.PaymentSchedule.BalanceDueDate
	}

	var dep time.Time
	if deposit != nil {
		dep = *deposit
	} else {
		dep = x.SubmittedAt.AddDate(0, 0, DefaultDepositDueDays)
	}
	dep = NewDate(dep).Time

	var bal time.Time
	if balance != nil {
		bal = *balance
	} else {
		bal = travelStart.AddDate(0, 0, -DefaultBalanceLeadDays)
	}
	bal = NewDate(bal).Time
	if bal.Before(dep) {
		bal = dep
	}
	return Date{dep}, Date{bal}
}

func passengerRecord(p wizard.Passenger, at time.Time) PassengerRecord {
	return PassengerRecord{
		Title:                p.Title,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		DateOfBirth:          NewDate(p.DateOfBirth),
		Age:                  p.Age(at),
		PassengerType:        p.Type(at),
		Gender:               p.Gender,
		Nationality:          p.Nationality,
		PassportNumber:       p.PassportNumber,
		PassportExpiry:       NewDate(p.PassportExpiry),
		PassportIssueCountry: p.PassportIssueCountry,
		IsLeadPassenger:      p.IsLeadPassenger,
		Email:                p.Email,
		Phone:                p.Phone,
		DietaryRequirements:  p.Dietary,
		MedicalConditions:    p.Medical,
		AccessibilityNeeds:   p.Accessibility,
		Notes:                p.Notes,
		RoomPreference:       p.RoomPreference,
		BedPreference:        p.BedPreference,
	}
}

func serviceRecord(l serviceline.Line) (ServiceRecord, error) {
	details, err := json.Marshal(l.Detail)
	if err != nil {
		return ServiceRecord{}, fmt.Errorf("failed to encode %s details: %w", l.Type(), err)
	}
	return ServiceRecord{
		ServiceType:        l.Type(),
		ReferenceID:        serviceline.ReferenceID(l.Detail),
		ServiceDate:        NewDate(l.ServiceDate),
		Quantity:           l.Quantity,
		CostAmount:         pricing.Money(l.CostAmount),
		CostCurrency:       l.CostCurrency,
		ExchangeRate:       l.ExchangeRate,
		CostInBaseCurrency: pricing.Money(l.CostInBaseCurrency),
		SellingPrice:       pricing.Money(l.SellingPrice),
		SellingCurrency:    l.SellingCurrency,
		TotalCost:          pricing.Money(l.TotalCost()),
		TotalSelling:       pricing.Money(l.TotalSelling()),
		ServiceNotes:       l.ServiceNotes,
		ServiceDescription: l.ServiceDescription,
		Details:            details,
	}, nil
}
