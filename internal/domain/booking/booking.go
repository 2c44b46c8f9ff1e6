package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Payment is one amount received against a booking.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paidAt"`
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	status        BookingStatus
	details       Details
	passengers    []PassengerRecord
	services      []ServiceRecord

	payments       []Payment
	amountPaid     decimal.Decimal
	lastReminderAt *time.Time

	cancelledAt  *time.Time
	cancelReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a Booking from an assembled payload. The status is the payload's.
func NewBooking(p Payload) (*Booking, error) {
	d := p.Booking
	if !d.Status.IsSubmittable() {
		return nil, domain.NewValidationError(fmt.Sprintf("cannot create a booking with status %s", d.Status))
	}
	if d.ClientID == uuid.Nil {
		return nil, domain.NewValidationError("client ID is required")
	}
	if d.TravelStartDate.IsZero() || d.TravelEndDate.IsZero() {
		return nil, domain.NewValidationError("travel dates are required")
	}
	if d.TravelEndDate.Before(d.TravelStartDate.Time) {
		return nil, domain.NewValidationError("travel end date must not be before the start date")
	}
	if d.TotalAmount.IsNegative() {
		return nil, domain.NewValidationError("total amount cannot be negative")
	}
	if d.Status != StatusDraft && len(p.Passengers) == 0 {
		return nil, domain.NewValidationError("at least one passenger is required")
	}
	if d.Status == StatusConfirmed {
		if err := confirmable(d, len(p.Passengers)); err != nil {
			return nil, err
		}
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		status:        d.Status,
		details:       d,
		passengers:    append([]PassengerRecord{}, p.Passengers...),
		services:      append([]ServiceRecord{}, p.Services...),
		payments:      []Payment{},
		amountPaid:    decimal.Zero,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	status BookingStatus,
	details Details,
	passengers []PassengerRecord,
	services []ServiceRecord,
	payments []Payment,
	amountPaid decimal.Decimal,
	lastReminderAt *time.Time,
	cancelledAt *time.Time,
	cancelReason string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	details.Status = status
	return &Booking{
		id:             id,
		bookingNumber:  bookingNumber,
		status:         status,
		details:        details,
		passengers:     passengers,
		services:       services,
		payments:       payments,
		amountPaid:     amountPaid,
		lastReminderAt: lastReminderAt,
		cancelledAt:    cancelledAt,
		cancelReason:   cancelReason,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Details returns the booking-level fields.
func (b *Booking) Details() Details { return b.details }

// ClientID returns the client the booking belongs to.
func (b *Booking) ClientID() uuid.UUID { return b.details.ClientID }

// Passengers returns the passenger records.
func (b *Booking) Passengers() []PassengerRecord { return b.passengers }

// Services returns the service records.
func (b *Booking) Services() []ServiceRecord { return b.services }

// Payments returns the payments received so far.
func (b *Booking) Payments() []Payment { return b.payments }

// TotalAmount returns the booking total.
func (b *Booking) TotalAmount() decimal.Decimal { return b.details.TotalAmount }

// AmountPaid returns the sum of recorded payments.
func (b *Booking) AmountPaid() decimal.Decimal { return b.amountPaid }

// Outstanding returns what is left to pay.
func (b *Booking) Outstanding() decimal.Decimal {
	return decimal.Max(decimal.Zero, b.details.TotalAmount.Sub(b.amountPaid))
}

// IsFullyPaid returns true once payments cover the total.
func (b *Booking) IsFullyPaid() bool {
	return b.amountPaid.GreaterThanOrEqual(b.details.TotalAmount)
}

// IsDepositPaid returns true once payments cover the deposit.
func (b *Booking) IsDepositPaid() bool {
	return b.amountPaid.GreaterThanOrEqual(b.details.DepositAmount)
}

// LastReminderAt returns when the last balance reminder went out.
func (b *Booking) LastReminderAt() *time.Time { return b.lastReminderAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Promote moves a draft or quotation forward. Confirmation re-checks the confirmation gate
// against the stored booking.
func (b *Booking) Promote(target BookingStatus, termsAccepted bool) error {
	if target != StatusQuotation && target != StatusConfirmed {
		return domain.NewValidationError(fmt.Sprintf("cannot promote to %s", target))
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	if len(b.passengers) == 0 {
		return domain.NewValidationError("at least one passenger is required")
	}
	if target == StatusConfirmed {
		d := b.details
		d.TermsAccepted = d.TermsAccepted || termsAccepted
		if err := confirmable(d, len(b.passengers)); err != nil {
			return err
		}
		b.details.TermsAccepted = true
	}
	b.setStatus(target)
	return nil
}

// Complete closes a confirmed booking after travel.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.setStatus(StatusCompleted)
	return nil
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.setStatus(StatusCancelled)
	b.cancelReason = strings.TrimSpace(reason)
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// RecordPayment adds a payment. Payments cannot exceed the outstanding amount. A reference that is
// already recorded is a conflict whatever the booking's current balance or status.
func (b *Booking) RecordPayment(amount decimal.Decimal, method, reference string, paidAt time.Time) (Payment, error) {
	for _, p := range b.payments {
		if reference != "" && p.Reference == reference {
			return Payment{}, domain.NewConflictError(fmt.Sprintf("payment %s already recorded", reference))
		}
	}
	if !b.status.AcceptsPayments() {
		return Payment{}, domain.NewInvalidStateError(string(b.status), "payment")
	}
	if !amount.IsPositive() {
		return Payment{}, domain.NewValidationError("payment amount must be positive")
	}
	if amount.GreaterThan(b.Outstanding()) {
		return Payment{}, domain.NewValidationError(fmt.Sprintf("payment %s exceeds outstanding %s", amount.StringFixed(2), b.Outstanding().StringFixed(2)))
	}
	if method == "" {
		method = "bank_transfer"
	}
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	p := Payment{ID: uuid.New(), Amount: amount, Method: method, Reference: reference, PaidAt: paidAt}
	b.payments = append(b.payments, p)
	b.amountPaid = b.amountPaid.Add(amount)
	b.updatedAt = time.Now().UTC()
	return p, nil
}

// BalanceDue reports whether the balance is due on the given day and still unpaid.
func (b *Booking) BalanceDue(on time.Time) bool {
	if b.status != StatusConfirmed || b.IsFullyPaid() {
		return false
	}
	due := b.details.BalanceDueDate
	return !due.IsZero() && !NewDate(on).Before(due.Time)
}

// MarkReminderSent records that a balance reminder went out.
func (b *Booking) MarkReminderSent(at time.Time) {
	b.lastReminderAt = &at
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func (b *Booking) setStatus(s BookingStatus) {
	b.status = s
	b.details.Status = s
	b.updatedAt = time.Now().UTC()
}

func confirmable(d Details, passengers int) error {
	if passengers == 0 {
		return domain.NewValidationError("at least one passenger is required")
	}
	if !d.TermsAccepted {
		return domain.NewValidationError("terms and conditions must be accepted to confirm")
	}
	if d.DepositAmount.GreaterThan(d.TotalAmount) {
		return domain.NewValidationError("deposit cannot exceed the total amount")
	}
	return nil
}
