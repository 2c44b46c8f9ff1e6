package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/google/uuid"
)

// Store owns one wizard state. It is not safe for concurrent use; callers serialize access.
type Store struct {
	state    State
	promoSeq uint64
	now      func() time.Time
}

// NewStore creates an empty wizard positioned on the client step.
func NewStore(id uuid.UUID) *Store {
	s := &Store{now: time.Now}
	s.state = emptyState(id, s.now())
	return s
}

// WithClock replaces the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State { return s.state.clone() }

// ID returns the draft id.
func (s *Store) ID() uuid.UUID { return s.state.DraftID }

// Revision returns the mutation counter.
func (s *Store) Revision() uint64 { return s.state.Revision }

// IsSubmitting reports whether a submission is in flight.
func (s *Store) IsSubmitting() bool { return s.state.IsSubmitting }

// CurrentStep returns the step the wizard is on.
func (s *Store) CurrentStep() Step { return s.state.CurrentStep }

// touch records a mutation of the given step's data and drops its completion flag.
func (s *Store) touch(step Step) {
	delete(s.state.CompletedSteps, step)
	s.state.Revision++
	s.state.UpdatedAt = s.now()
}

// SetClient attaches a client, replacing any previous one.
func (s *Store) SetClient(c *Client) error {
	if c != nil {
		cp := *c
		c = &cp
		if c.ID == uuid.Nil {
			return domain.NewValidationError("client id is required")
		}
		if c.Type == "" {
			c.Type = ClientB2C
		}
		if !c.Type.IsValid() {
			return domain.NewValidationError(fmt.Sprintf("invalid client type: %s", c.Type))
		}
	}
	s.state.Client = c
	s.touch(StepClient)
	return nil
}

// SetTripDetails replaces the trip details. Children ages are resized to the child count.
func (s *Store) SetTripDetails(t TripDetails) error {
	if t.NumAdults < 0 || t.NumChildren < 0 {
		return domain.NewValidationError("traveller counts cannot be negative")
	}
	t = t.clone()
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if t.Currency == "" {
		t.Currency = domain.CurrencyUSD
	}
	t.normalize()
	s.state.TripDetails = &t
	s.touch(StepTrip)
	return nil
}

// SetChildCount changes the number of children, padding new ages with 0 and truncating removed ones.
func (s *Store) SetChildCount(n int) error {
	if n < 0 {
		return domain.NewValidationError("number of children cannot be negative")
	}
	if s.state.TripDetails == nil {
		s.state.TripDetails = &TripDetails{}
	}
	s.state.TripDetails.NumChildren = n
	s.state.TripDetails.normalize()
	s.touch(StepTrip)
	return nil
}

// SetPassengers replaces the passenger list.
func (s *Store) SetPassengers(ps []Passenger) {
	cp := make([]Passenger, len(ps))
	copy(cp, ps)
	s.state.Passengers = cp
	s.touch(StepPassengers)
}

// SetLeadPassenger flags passenger i as the only lead.
func (s *Store) SetLeadPassenger(i int) error {
	if i < 0 || i >= len(s.state.Passengers) {
		return domain.NewValidationError(fmt.Sprintf("passenger index %d out of range", i))
	}
	for j := range s.state.Passengers {
		s.state.Passengers[j].IsLeadPassenger = j == i
	}
	s.touch(StepPassengers)
	return nil
}

// AddService appends a service line.
func (s *Store) AddService(l serviceline.Line) error {
	if err := s.state.Services.Add(l); err != nil {
		return err
	}
	s.touch(StepServices)
	return nil
}

// RemoveService removes the line at index i.
func (s *Store) RemoveService(i int) error {
	if err := s.state.Services.Remove(i); err != nil {
		return err
	}
	s.touch(StepServices)
	return nil
}

// SetPricingInputs replaces markup, commission, tax, manual discount and deposit.
// The applied promo is owned by the promo lookup and kept.
func (s *Store) SetPricingInputs(p pricing.Params) error {
	p.Promo = s.state.Pricing.Promo
	if err := p.Validate(); err != nil {
		return err
	}
	s.state.Pricing = p
	s.touch(StepReview)
	return nil
}

// SetPaymentSchedule replaces the deposit and balance due dates.
func (s *Store) SetPaymentSchedule(ps PaymentSchedule) error {
	if ps.DepositDueDate != nil && ps.BalanceDueDate != nil && ps.BalanceDueDate.Before(*ps.DepositDueDate) {
		return domain.NewValidationError("balance due date cannot be before the deposit due date")
	}
	s.state.PaymentSchedule = ps
	s.touch(StepReview)
	return nil
}

// BeginPromoLookup records a new promo code and returns the sequence number its result must carry.
// An empty code clears the promo.
func (s *Store) BeginPromoLookup(code string) uint64 {
	s.promoSeq++
	code = strings.ToUpper(strings.TrimSpace(code))
	s.state.Pricing.Promo = nil
	if code == "" {
		s.state.Promo = PromoState{Status: PromoIdle}
	} else {
		s.state.Promo = PromoState{Code: code, Status: PromoChecking}
	}
	s.touch(StepReview)
	return s.promoSeq
}

// ApplyPromoResult applies a lookup result if it belongs to the newest lookup. Stale results are dropped.
func (s *Store) ApplyPromoResult(seq uint64, res PromoResult) bool {
	if seq != s.promoSeq || s.state.Promo.Status != PromoChecking {
		return false
	}
	if res.Valid && res.Promo != nil {
		p := *res.Promo
		s.state.Pricing.Promo = &p
		s.state.Promo.Status = PromoValid
	} else {
		s.state.Pricing.Promo = nil
		s.state.Promo.Status = PromoInvalid
	}
	s.state.Promo.Message = res.Message
	s.touch(StepReview)
	return true
}

// NextStep validates the current step and, when it passes, marks it complete and advances.
func (s *Store) NextStep() (Result, error) {
	cur := s.state.CurrentStep
	if cur >= StepReview {
		return newResult(cur), domain.NewInvalidStateError(StepReview.String(), "beyond review")
	}
	r := ValidateStep(s.state, cur)
	if !r.Valid() {
		return r, r.Err()
	}
	s.state.CompletedSteps[cur] = true
	s.state.CurrentStep = cur + 1
	s.state.Revision++
	s.state.UpdatedAt = s.now()
	return r, nil
}

// PreviousStep moves back one step. Completion flags are kept.
func (s *Store) PreviousStep() {
	if s.state.CurrentStep <= StepClient {
		return
	}
	s.state.CurrentStep--
	s.state.Revision++
	s.state.UpdatedAt = s.now()
}

// GoToStep jumps to step n. Going back is always allowed; going forward needs every step before n
// to be complete.
func (s *Store) GoToStep(n Step) error {
	if !n.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid step: %d", n))
	}
	if n == s.state.CurrentStep {
		return nil
	}
	for prev := StepClient; n > s.state.CurrentStep && prev < n; prev++ {
		if !s.state.CompletedSteps[prev] {
			return domain.NewInvalidStateError(s.state.CurrentStep.String(), n.String())
		}
	}
	s.state.CurrentStep = n
	s.state.Revision++
	s.state.UpdatedAt = s.now()
	return nil
}

// MarkStepComplete runs step n's validator against the current data and sets its flag when it passes.
func (s *Store) MarkStepComplete(n Step) (Result, error) {
	if !n.IsValid() {
		return Result{}, domain.NewValidationError(fmt.Sprintf("invalid step: %d", n))
	}
	r := ValidateStep(s.state, n)
	if !r.Valid() {
		return r, r.Err()
	}
	if !s.state.CompletedSteps[n] {
		s.state.CompletedSteps[n] = true
		s.state.Revision++
		s.state.UpdatedAt = s.now()
	}
	return r, nil
}

// BeginSubmit flags the wizard as submitting. A second concurrent submission is refused.
func (s *Store) BeginSubmit() error {
	if s.state.IsSubmitting {
		return domain.NewConflictError("submission already in progress")
	}
	s.state.IsSubmitting = true
	return nil
}

// EndSubmit clears the submitting flag after a failed submission.
func (s *Store) EndSubmit() {
	s.state.IsSubmitting = false
}

// Reset clears everything except the draft id. The revision keeps counting.
func (s *Store) Reset() {
	rev := s.state.Revision
	s.state = emptyState(s.state.DraftID, s.now())
	s.state.Revision = rev + 1
	s.promoSeq++
}
