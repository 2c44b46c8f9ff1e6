package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxChildAge = 17

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Result is the outcome of a validator. Issues block, warnings only inform.
type Result struct {
	Step     Step                `json:"step,omitempty"`
	Issues   []domain.FieldIssue `json:"issues"`
	Warnings []string            `json:"warnings"`
}

// Valid reports whether the result has no blocking issues.
func (r Result) Valid() bool {
	return len(r.Issues) == 0
}

// Err returns the issues as a field validation error, or nil when valid.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	msg := "submission incomplete"
	if r.Step.IsValid() {
		msg = fmt.Sprintf("step %d (%s) incomplete", r.Step, r.Step)
	}
	return domain.NewFieldValidationError(msg, r.Issues)
}

func (r *Result) issue(field, code, message string) {
	r.Issues = append(r.Issues, domain.FieldIssue{Field: field, Code: code, Message: message})
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func newResult(step Step) Result {
	return Result{Step: step, Issues: []domain.FieldIssue{}, Warnings: []string{}}
}

// ValidateStep runs the gate that must pass before leaving the given step.
func ValidateStep(s State, step Step) Result {
	r := newResult(step)
	switch step {
	case StepClient:
		checkClient(s, &r)
	case StepTrip:
		checkTrip(s, &r)
	case StepPassengers:
		checkPassengers(s, &r)
	case StepServices:
		if len(s.Services) == 0 {
			r.warn("no services added")
		}
	case StepReview:
	default:
		r.issue("step", "invalid", fmt.Sprintf("unknown step %d", step))
	}
	return r
}

// SubmissionCheck carries the inputs of the submission gate that live outside the state.
type SubmissionCheck struct {
	Target        TargetStatus
	TermsAccepted bool
	TotalAmount   decimal.Decimal
}

// ValidateSubmission gates a submission. Drafts need a client and travel dates; quotations and
// confirmations also need passengers; confirmations need accepted terms and a deposit within the total.
func ValidateSubmission(s State, c SubmissionCheck) Result {
	r := newResult(0)
	if !c.Target.IsValid() {
		r.issue("status", "invalid", fmt.Sprintf("cannot submit with status %q", c.Target))
		return r
	}
	checkClient(s, &r)
	checkTravelDates(s, &r)
	if c.Target == TargetDraft {
		if len(s.Services) == 0 {
			r.warn("no services added")
		}
		return r
	}
	if len(s.Passengers) == 0 {
		r.issue("passengers", "required", "at least one passenger is required")
	}
	if c.Target == TargetConfirmed {
		if !c.TermsAccepted {
			r.issue("termsAccepted", "required", "terms and conditions must be accepted to confirm")
		}
		if !pricing.DepositWithinTotal(s.Pricing.DepositAmount, c.TotalAmount) {
			r.issue("pricing.depositAmount", "max", "deposit cannot exceed the total amount")
		}
	}
	if len(s.Services) == 0 {
		r.warn("no services added")
	}
	return r
}

func checkClient(s State, r *Result) {
	if s.Client == nil || s.Client.ID == uuid.Nil {
		r.issue("client", "required", "a client must be selected")
	}
}

// checkTravelDates is the part of the trip step every stored booking needs.
func checkTravelDates(s State, r *Result) {
	t := s.TripDetails
	if t == nil {
		r.issue("tripDetails", "required", "trip details are required")
		return
	}
	if t.TravelStartDate.IsZero() {
		r.issue("tripDetails.travelStartDate", "required", "travel start date is required")
	}
	if t.TravelEndDate.IsZero() {
		r.issue("tripDetails.travelEndDate", "required", "travel end date is required")
	}
	if !t.TravelStartDate.IsZero() && !t.TravelEndDate.IsZero() && t.TravelStartDate.After(t.TravelEndDate) {
		r.issue("tripDetails.travelEndDate", "gtefield", "travel end date must not be before the start date")
	}
}

func checkTrip(s State, r *Result) {
	checkTravelDates(s, r)
	t := s.TripDetails
	if t == nil {
		return
	}
	if t.DestinationCityID == uuid.Nil {
		r.issue("tripDetails.destinationCityId", "required", "destination city is required")
	}
	if t.NumAdults < 1 {
		r.issue("tripDetails.numAdults", "min", "at least one adult is required")
	}
	if t.NumChildren > 0 && len(t.ChildrenAges) != t.NumChildren {
		r.issue("tripDetails.childrenAges", "len", "an age is required for every child")
	}
	for i, age := range t.ChildrenAges {
		if age < 0 || age > maxChildAge {
			r.issue(fmt.Sprintf("tripDetails.childrenAges[%d]", i), "range", "child age must be between 0 and 17")
		}
	}
	if t.IsGroupBooking {
		g := t.Group
		if g == nil {
			g = &GroupBooking{}
		}
		if strings.TrimSpace(g.Name) == "" {
			r.issue("tripDetails.group.name", "required", "group name is required for group bookings")
		}
		if strings.TrimSpace(g.LeaderName) == "" {
			r.issue("tripDetails.group.leaderName", "required", "group leader name is required for group bookings")
		}
		if strings.TrimSpace(g.LeaderContact) == "" {
			r.issue("tripDetails.group.leaderContact", "required", "group leader contact is required for group bookings")
		}
	}
	if err := serviceline.ValidateCurrency(t.Currency); err != nil {
		r.issue("tripDetails.currency", "iso4217", err.Error())
	}
	if !t.TripType.IsValid() {
		r.issue("tripDetails.tripType", "oneof", fmt.Sprintf("unknown trip type %q", t.TripType))
	}
	if !t.BookingSource.IsValid() {
		r.issue("tripDetails.bookingSource", "oneof", fmt.Sprintf("unknown booking source %q", t.BookingSource))
	}
}

func checkPassengers(s State, r *Result) {
	if len(s.Passengers) == 0 {
		r.issue("passengers", "required", "at least one passenger is required")
		return
	}
	leads := 0
	for i, p := range s.Passengers {
		prefix := fmt.Sprintf("passengers[%d]", i)
		checkPassenger(prefix, p, r)
		if p.IsLeadPassenger {
			leads++
			if strings.TrimSpace(p.Email) == "" {
				r.issue(prefix+".email", "required", "lead passenger email is required")
			}
			if strings.TrimSpace(p.Phone) == "" {
				r.issue(prefix+".phone", "required", "lead passenger phone is required")
			}
		}
		if s.TripDetails != nil && !p.PassportExpiry.IsZero() && !s.TripDetails.TravelEndDate.IsZero() &&
			p.PassportExpiry.Before(s.TripDetails.TravelEndDate) {
			r.warn("passport of %s expires before the end of the trip", p.FullName())
		}
	}
	switch {
	case leads == 0:
		r.issue("passengers", "lead", "a lead passenger is required")
	case leads > 1:
		r.warn("%d passengers are marked as lead", leads)
	}
	if s.TripDetails != nil && s.TripDetails.TotalTravellers() != len(s.Passengers) {
		r.warn("trip lists %d travellers but %d passengers were entered", s.TripDetails.TotalTravellers(), len(s.Passengers))
	}
}

func checkPassenger(prefix string, p Passenger, r *Result) {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			r.issue(prefix, "invalid", err.Error())
			return
		}
		for _, fe := range verrs {
			r.issue(prefix+"."+fe.Field(), fe.Tag(), passengerMessage(fe))
		}
	}
	if p.DateOfBirth.IsZero() {
		r.issue(prefix+".dateOfBirth", "required", "date of birth is required")
	}
	if p.PassportExpiry.IsZero() {
		r.issue(prefix+".passportExpiry", "required", "passport expiry is required")
	}
}

func passengerMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "email must be a valid address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
