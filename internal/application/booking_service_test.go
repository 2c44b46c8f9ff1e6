package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	bookingDomain "github.com/Kilat-Travel/service-booking/internal/domain/booking"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBookingPayload(t *testing.T, target wizard.TargetStatus) bookingDomain.Payload {
	t.Helper()
	trip := testWizardTrip()
	st := wizard.State{
		Client:      testWizardClient(),
		TripDetails: &trip,
		Passengers:  []wizard.Passenger{testWizardPassenger()},
		Services:    serviceline.Collection{testHotelLine(t)},
		Pricing:     pricing.Params{MarkupPercentage: decimal.NewFromInt(10)},
	}
	p, err := bookingDomain.Assemble(st, st.Breakdown(), bookingDomain.Extras{
		SubmittedAt:   time.Date(2027, 1, 5, 10, 0, 0, 0, time.UTC),
		TermsAccepted: target == wizard.TargetConfirmed,
	}, target)
	require.NoError(t, err)
	return p
}

func newTestBookingService() (*BookingService, *memBookingRepo, *fakePublisher) {
	repo := newMemBookingRepo()
	pub := &fakePublisher{}
	return NewBookingService(repo, pub, zap.NewNop()), repo, pub
}

func TestBookingService_CreateAndGet(t *testing.T) {
	svc, _, pub := newTestBookingService()
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, testBookingPayload(t, wizard.TargetQuotation))
	require.NoError(t, err)
	assert.Equal(t, "quotation", created.Status)
	assert.True(t, created.Outstanding.Equal(created.Booking.TotalAmount))
	assert.NotNil(t, created.Payments)

	got, err := svc.GetBooking(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.BookingNumber, got.BookingNumber)

	byNumber, err := svc.GetBookingByNumber(ctx, created.BookingNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)

	_, err = svc.GetBooking(ctx, uuid.New())
	assert.True(t, domain.IsNotFound(err))

	require.Len(t, pub.events, 1)
	assert.Equal(t, bookingDomain.TopicBookingEvents, pub.events[0].topic)
	assert.Equal(t, created.ID.String(), pub.events[0].key)
	var evt bookingDomain.CreatedEvent
	require.NoError(t, pub.events[0].event.ParseData(&evt))
	assert.Equal(t, created.BookingNumber, evt.BookingNumber)
}

func TestBookingService_CreateSucceedsWhenPublishFails(t *testing.T) {
	svc, repo, pub := newTestBookingService()
	pub.err = errors.New("broker down")

	created, err := svc.CreateBooking(context.Background(), testBookingPayload(t, wizard.TargetDraft))
	require.NoError(t, err)
	_, err = repo.FindByID(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestBookingService_UpdateStatus(t *testing.T) {
	svc, _, pub := newTestBookingService()
	ctx := context.Background()
	created, err := svc.CreateBooking(ctx, testBookingPayload(t, wizard.TargetQuotation))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, created.ID, UpdateStatusRequest{Status: "confirmed"})
	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr), "terms are required")

	confirmed, err := svc.UpdateStatus(ctx, created.ID, UpdateStatusRequest{Status: "confirmed", TermsAccepted: true})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
	assert.Equal(t, int64(2), confirmed.Version)

	_, err = svc.UpdateStatus(ctx, created.ID, UpdateStatusRequest{Status: "quotation"})
	var sErr *domain.InvalidStateError
	assert.True(t, errors.As(err, &sErr))

	_, err = svc.UpdateStatus(ctx, created.ID, UpdateStatusRequest{Status: "shipped"})
	assert.True(t, errors.As(err, &vErr))

	completed, err := svc.UpdateStatus(ctx, created.ID, UpdateStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)

	assert.Equal(t, []string{
		bookingDomain.EventBookingCreated,
		bookingDomain.EventBookingStatusChanged,
		bookingDomain.EventBookingStatusChanged,
	}, pub.types())
}

func TestBookingService_CancelBooking(t *testing.T) {
	svc, _, pub := newTestBookingService()
	ctx := context.Background()
	created, err := svc.CreateBooking(ctx, testBookingPayload(t, wizard.TargetConfirmed))
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(ctx, created.ID, "visa refused")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "visa refused", cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = svc.CancelBooking(ctx, created.ID, "again")
	var sErr *domain.InvalidStateError
	assert.True(t, errors.As(err, &sErr))
	assert.Contains(t, pub.types(), bookingDomain.EventBookingCancelled)
}

func TestBookingService_RecordPayment(t *testing.T) {
	svc, _, pub := newTestBookingService()
	ctx := context.Background()
	created, err := svc.CreateBooking(ctx, testBookingPayload(t, wizard.TargetConfirmed))
	require.NoError(t, err)

	paid, err := svc.RecordPayment(ctx, created.ID, RecordPaymentRequest{
		Amount:    created.Booking.DepositAmount,
		Method:    "card",
		Reference: "PAY-1",
	})
	require.NoError(t, err)
	assert.True(t, paid.AmountPaid.Equal(created.Booking.DepositAmount))
	assert.False(t, paid.FullyPaid)
	require.Len(t, paid.Payments, 1)

	_, err = svc.RecordPayment(ctx, created.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(1), Reference: "PAY-1"})
	var cErr *domain.ConflictError
	assert.True(t, errors.As(err, &cErr))

	paid, err = svc.RecordPayment(ctx, created.ID, RecordPaymentRequest{Amount: paid.Outstanding, Reference: "PAY-2"})
	require.NoError(t, err)
	assert.True(t, paid.FullyPaid)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, bookingDomain.TopicBookingEvents, last.topic)
	var evt bookingDomain.PaymentRecordedEvent
	require.NoError(t, last.event.ParseData(&evt))
	assert.True(t, evt.FullyPaid)
	assert.True(t, evt.Outstanding.IsZero())
}

func TestBookingService_ListAndStats(t *testing.T) {
	svc, _, _ := newTestBookingService()
	ctx := context.Background()
	for _, target := range []wizard.TargetStatus{wizard.TargetDraft, wizard.TargetQuotation, wizard.TargetQuotation} {
		_, err := svc.CreateBooking(ctx, testBookingPayload(t, target))
		require.NoError(t, err)
	}

	page, err := svc.ListBookings(ctx, bookingDomain.ListFilter{Status: bookingDomain.StatusQuotation}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)

	all, total, err := svc.ListAllBookings(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)

	stats, err := svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(2), stats.ByStatus["quotation"])
}

func TestBookingService_SendBalanceReminders(t *testing.T) {
	svc, _, pub := newTestBookingService()
	ctx := context.Background()
	confirmed, err := svc.CreateBooking(ctx, testBookingPayload(t, wizard.TargetConfirmed))
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, testBookingPayload(t, wizard.TargetQuotation))
	require.NoError(t, err)

	due := confirmed.Booking.BalanceDueDate.Time
	before, err := svc.SendBalanceReminders(ctx, due.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, 0, before)

	sent, err := svc.SendBalanceReminders(ctx, due)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	again, err := svc.SendBalanceReminders(ctx, due.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, again, "one reminder per day")

	nextDay, err := svc.SendBalanceReminders(ctx, due.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, nextDay)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, bookingDomain.EventBookingBalanceDue, last.event.Type)
	var evt bookingDomain.BalanceDueEvent
	require.NoError(t, last.event.ParseData(&evt))
	assert.Equal(t, confirmed.ID, evt.BookingID)
	assert.Equal(t, "tomas@example.com", evt.ClientEmail)

	dues, err := svc.ListBalanceDue(ctx, due)
	require.NoError(t, err)
	assert.Len(t, dues, 1)
}
