package booking

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload(t *testing.T, target wizard.TargetStatus, terms bool) Payload {
	t.Helper()
	st := testState(t)
	p, err := Assemble(st, st.Breakdown(), Extras{SubmittedAt: submittedAt, TermsAccepted: terms}, target)
	require.NoError(t, err)
	return p
}

func newTestBooking(t *testing.T, target wizard.TargetStatus) *Booking {
	t.Helper()
	b, err := NewBooking(testPayload(t, target, target == wizard.TargetConfirmed))
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := newTestBooking(t, wizard.TargetQuotation)

	assert.NotEqual(t, uuid.Nil, b.ID())
	assert.True(t, strings.HasPrefix(b.BookingNumber(), "BK-"))
	assert.Len(t, b.BookingNumber(), 9)
	assert.Equal(t, StatusQuotation, b.Status())
	assert.Equal(t, int64(1), b.Version())
	assert.Len(t, b.Passengers(), 1)
	assert.Len(t, b.Services(), 1)
	assert.True(t, b.AmountPaid().IsZero())
	assert.False(t, b.IsFullyPaid())
}

func TestNewBooking_Validation(t *testing.T) {
	p := testPayload(t, wizard.TargetDraft, false)
	p.Booking.ClientID = uuid.Nil
	_, err := NewBooking(p)
	assert.Error(t, err)

	p = testPayload(t, wizard.TargetQuotation, false)
	p.Passengers = nil
	_, err = NewBooking(p)
	assert.Error(t, err)

	p = testPayload(t, wizard.TargetDraft, false)
	p.Passengers = nil
	_, err = NewBooking(p)
	assert.NoError(t, err, "drafts do not need passengers")

	p = testPayload(t, wizard.TargetConfirmed, false)
	_, err = NewBooking(p)
	assert.Error(t, err, "confirmation needs accepted terms")

	p = testPayload(t, wizard.TargetConfirmed, true)
	p.Booking.DepositAmount = p.Booking.TotalAmount.Add(decimal.NewFromInt(1))
	_, err = NewBooking(p)
	assert.Error(t, err)

	p = testPayload(t, wizard.TargetDraft, false)
	p.Booking.Status = StatusCompleted
	_, err = NewBooking(p)
	assert.Error(t, err)
}

func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{StatusDraft, StatusQuotation, true},
		{StatusDraft, StatusConfirmed, true},
		{StatusQuotation, StatusConfirmed, true},
		{StatusQuotation, StatusDraft, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusQuotation, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusDraft, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusDraft.IsTerminal())

	_, err := ParseBookingStatus("shipped")
	assert.Error(t, err)
	s, err := ParseBookingStatus("quotation")
	require.NoError(t, err)
	assert.Equal(t, StatusQuotation, s)
}

func TestBooking_Promote(t *testing.T) {
	b := newTestBooking(t, wizard.TargetDraft)
	require.NoError(t, b.Promote(StatusQuotation, false))
	assert.Equal(t, StatusQuotation, b.Status())
	assert.Equal(t, StatusQuotation, b.Details().Status)

	err := b.Promote(StatusConfirmed, false)
	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, StatusQuotation, b.Status())

	require.NoError(t, b.Promote(StatusConfirmed, true))
	assert.Equal(t, StatusConfirmed, b.Status())
	assert.True(t, b.Details().TermsAccepted)

	err = b.Promote(StatusQuotation, false)
	var sErr *domain.InvalidStateError
	assert.True(t, errors.As(err, &sErr))

	assert.Error(t, b.Promote(StatusCompleted, false))
}

func TestBooking_PromoteDraftWithoutPassengers(t *testing.T) {
	p := testPayload(t, wizard.TargetDraft, false)
	p.Passengers = nil
	b, err := NewBooking(p)
	require.NoError(t, err)

	assert.Error(t, b.Promote(StatusQuotation, false))
}

func TestBooking_Cancel(t *testing.T) {
	b := newTestBooking(t, wizard.TargetConfirmed)
	require.NoError(t, b.Cancel("  client changed plans "))
	assert.Equal(t, StatusCancelled, b.Status())
	assert.Equal(t, "client changed plans", b.CancelReason())
	assert.NotNil(t, b.CancelledAt())

	assert.Error(t, b.Cancel("again"))
}

func TestBooking_Complete(t *testing.T) {
	b := newTestBooking(t, wizard.TargetQuotation)
	assert.Error(t, b.Complete())

	b = newTestBooking(t, wizard.TargetConfirmed)
	require.NoError(t, b.Complete())
	assert.Equal(t, StatusCompleted, b.Status())
}

func TestBooking_RecordPayment(t *testing.T) {
	b := newTestBooking(t, wizard.TargetConfirmed)
	total := b.TotalAmount()
	require.True(t, total.IsPositive())

	deposit := b.Details().DepositAmount
	p, err := b.RecordPayment(deposit, "", "TX-1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "bank_transfer", p.Method)
	assert.True(t, b.IsDepositPaid())
	assert.False(t, b.IsFullyPaid())

	_, err = b.RecordPayment(decimal.NewFromInt(1), "card", "TX-1", time.Time{})
	var cErr *domain.ConflictError
	assert.True(t, errors.As(err, &cErr), "duplicate reference")

	_, err = b.RecordPayment(b.Outstanding().Add(decimal.NewFromInt(1)), "card", "TX-2", time.Time{})
	assert.Error(t, err, "overpayment")

	_, err = b.RecordPayment(decimal.Zero, "card", "TX-3", time.Time{})
	assert.Error(t, err)

	_, err = b.RecordPayment(b.Outstanding(), "card", "TX-4", time.Time{})
	require.NoError(t, err)
	assert.True(t, b.IsFullyPaid())
	assert.True(t, b.Outstanding().IsZero())
	assert.Len(t, b.Payments(), 2)
}

func TestBooking_RecordPaymentRedeliveryAfterFullPayment(t *testing.T) {
	b := newTestBooking(t, wizard.TargetConfirmed)
	total := b.Outstanding()
	_, err := b.RecordPayment(total, "card", "TX-FULL", time.Time{})
	require.NoError(t, err)
	require.True(t, b.IsFullyPaid())

	_, err = b.RecordPayment(total, "card", "TX-FULL", time.Time{})
	var cErr *domain.ConflictError
	assert.True(t, errors.As(err, &cErr), "a redelivered payment is a conflict, not an overpayment")

	require.NoError(t, b.Complete())
	_, err = b.RecordPayment(total, "card", "TX-FULL", time.Time{})
	assert.True(t, errors.As(err, &cErr))
	assert.Len(t, b.Payments(), 1)
}

func TestBooking_RecordPaymentRequiresOpenBooking(t *testing.T) {
	b := newTestBooking(t, wizard.TargetDraft)
	_, err := b.RecordPayment(decimal.NewFromInt(10), "card", "", time.Time{})
	var sErr *domain.InvalidStateError
	assert.True(t, errors.As(err, &sErr))
}

func TestBooking_BalanceDue(t *testing.T) {
	b := newTestBooking(t, wizard.TargetConfirmed)
	due := b.Details().BalanceDueDate.Time

	assert.False(t, b.BalanceDue(due.AddDate(0, 0, -1)))
	assert.True(t, b.BalanceDue(due))
	assert.True(t, b.BalanceDue(due.AddDate(0, 0, 5)))

	_, err := b.RecordPayment(b.Outstanding(), "card", "", time.Time{})
	require.NoError(t, err)
	assert.False(t, b.BalanceDue(due), "paid bookings are not due")

	q := newTestBooking(t, wizard.TargetQuotation)
	assert.False(t, q.BalanceDue(due.AddDate(1, 0, 0)))
}

func TestReconstructBooking(t *testing.T) {
	b := newTestBooking(t, wizard.TargetQuotation)
	now := time.Now().UTC()
	r := ReconstructBooking(b.ID(), b.BookingNumber(), StatusConfirmed, b.Details(), b.Passengers(), b.Services(),
		nil, decimal.NewFromInt(5), &now, nil, "", 4, b.CreatedAt(), b.UpdatedAt())

	assert.Equal(t, StatusConfirmed, r.Status())
	assert.Equal(t, StatusConfirmed, r.Details().Status)
	assert.Equal(t, int64(4), r.Version())
	assert.Equal(t, &now, r.LastReminderAt())

	r.IncrementVersion()
	assert.Equal(t, int64(5), r.Version())
}
