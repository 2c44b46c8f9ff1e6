package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	bookingDomain "github.com/Kilat-Travel/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateStatusRequest moves a booking forward.
type UpdateStatusRequest struct {
	Status        string `json:"status" binding:"required,oneof=quotation confirmed completed"`
	TermsAccepted bool   `json:"terms_accepted"`
}

// CancelBookingRequest carries the cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RecordPaymentRequest holds a payment received against a booking.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"omitempty,oneof=cash card bank_transfer online cheque"`
	Reference string          `json:"reference" binding:"max=100"`
	PaidAt    *time.Time      `json:"paid_at"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID             uuid.UUID                       `json:"id"`
	BookingNumber  string                          `json:"booking_number"`
	Status         string                          `json:"status"`
	Booking        bookingDomain.Details           `json:"booking"`
	Passengers     []bookingDomain.PassengerRecord `json:"passengers"`
	Services       []bookingDomain.ServiceRecord   `json:"services"`
	Payments       []bookingDomain.Payment         `json:"payments"`
	AmountPaid     decimal.Decimal                 `json:"amount_paid"`
	Outstanding    decimal.Decimal                 `json:"outstanding"`
	FullyPaid      bool                            `json:"fully_paid"`
	LastReminderAt *time.Time                      `json:"last_reminder_at,omitempty"`
	CancelledAt    *time.Time                      `json:"cancelled_at,omitempty"`
	CancelReason   string                          `json:"cancel_reason,omitempty"`
	Version        int64                           `json:"version"`
	CreatedAt      time.Time                       `json:"created_at"`
	UpdatedAt      time.Time                       `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	producer EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking persists an assembled submission payload.
func (s *BookingService) CreateBooking(ctx context.Context, p bookingDomain.Payload) (*BookingDTO, error) {
	bk, err := bookingDomain.NewBooking(p)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	d := bk.Details()
	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("status", string(bk.Status())),
		zap.String("total", d.TotalAmount.StringFixed(2)),
	)

	evt := bookingDomain.CreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		Status:        bk.Status(),
		ClientID:      bk.ClientID(),
		TotalAmount:   d.TotalAmount,
		Currency:      d.Currency,
		TravelStart:   d.TravelStartDate,
		OccurredAt:    s.now(),
	}
	publishEvent(ctx, s.producer, s.logger, bookingDomain.TopicBookingEvents, bookingDomain.EventBookingCreated, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingByNumber retrieves a booking by its BK- number.
func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*BookingDTO, error) {
	bk, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings retrieves a page of bookings matching the filter.
func (s *BookingService) ListBookings(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateStatus promotes a draft or quotation, or completes a confirmed booking.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, req UpdateStatusRequest) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := bk.Status()

	if target == bookingDomain.StatusCompleted {
		err = bk.Complete()
	} else {
		err = bk.Promote(target, req.TermsAccepted)
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := bookingDomain.StatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		From:          from,
		To:            bk.Status(),
		OccurredAt:    s.now(),
	}
	s.publishEvent(ctx, bookingDomain.EventBookingStatusChanged, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking that is not yet in a terminal state.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := bookingDomain.CancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		Reason:        bk.CancelReason(),
		OccurredAt:    s.now(),
	}
	s.publishEvent(ctx, bookingDomain.EventBookingCancelled, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// RecordPayment applies a payment to a quotation or confirmed booking.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID uuid.UUID, req RecordPaymentRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var paidAt time.Time
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}
	payment, err := bk.RecordPayment(req.Amount, req.Method, req.Reference, paidAt)
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("booking_id", bk.ID().String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.Bool("fully_paid", bk.IsFullyPaid()),
	)

	evt := bookingDomain.PaymentRecordedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		PaymentID:     payment.ID,
		Amount:        payment.Amount,
		AmountPaid:    bk.AmountPaid(),
		Outstanding:   bk.Outstanding(),
		FullyPaid:     bk.IsFullyPaid(),
		OccurredAt:    s.now(),
	}
	s.publishEvent(ctx, bookingDomain.EventBookingPaymentRecorded, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.List(ctx, bookingDomain.ListFilter{}, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// ListBalanceDue returns confirmed bookings whose balance is due by the given day.
func (s *BookingService) ListBalanceDue(ctx context.Context, on time.Time) ([]BookingDTO, error) {
	bookings, err := s.repo.FindBalanceDue(ctx, on)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance-due bookings: %w", err)
	}
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, nil
}

// SendBalanceReminders publishes one balance-due event per unpaid booking, at most once per day each.
// It returns the number of reminders sent.
func (s *BookingService) SendBalanceReminders(ctx context.Context, on time.Time) (int, error) {
	bookings, err := s.repo.FindBalanceDue(ctx, on)
	if err != nil {
		return 0, fmt.Errorf("failed to find balance-due bookings: %w", err)
	}

	today := bookingDomain.NewDate(on)
	sent := 0
	for _, bk := range bookings {
		if !bk.BalanceDue(on) {
			continue
		}
		if last := bk.LastReminderAt(); last != nil && bookingDomain.NewDate(*last).Equal(today.Time) {
			continue
		}

		d := bk.Details()
		evt := bookingDomain.BalanceDueEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			ClientID:      bk.ClientID(),
			ClientEmail:   d.ClientEmail,
			Outstanding:   bk.Outstanding(),
			Currency:      d.Currency,
			DueDate:       d.BalanceDueDate,
			OccurredAt:    s.now(),
		}

		bk.MarkReminderSent(on)
		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			s.logger.Warn("failed to record balance reminder",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			continue
		}
		s.publishEvent(ctx, bookingDomain.EventBookingBalanceDue, bk.ID().String(), evt)
		sent++
	}
	return sent, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:             bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		Status:         string(bk.Status()),
		Booking:        bk.Details(),
		Passengers:     nonNil(bk.Passengers()),
		Services:       nonNil(bk.Services()),
		Payments:       nonNil(bk.Payments()),
		AmountPaid:     bk.AmountPaid(),
		Outstanding:    bk.Outstanding(),
		FullyPaid:      bk.IsFullyPaid(),
		LastReminderAt: bk.LastReminderAt(),
		CancelledAt:    bk.CancelledAt(),
		CancelReason:   bk.CancelReason(),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	publishEvent(ctx, s.producer, s.logger, bookingDomain.TopicBookingEvents, eventType, key, data)
}
