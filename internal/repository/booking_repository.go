package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	bookingDomain "github.com/Kilat-Travel/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber   string          `gorm:"uniqueIndex;not null;size:20"`
	Status          string          `gorm:"not null;size:20;index"`
	ClientID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	TravelStartDate time.Time       `gorm:"type:date;not null"`
	TravelEndDate   time.Time       `gorm:"type:date;not null"`
	Currency        string          `gorm:"not null;size:3;default:'USD'"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DepositAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	AmountPaid      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	BalanceDueDate  *time.Time      `gorm:"type:date"`
	Details         json.RawMessage `gorm:"type:jsonb;not null"`
	Passengers      json.RawMessage `gorm:"type:jsonb;not null"`
	Services        json.RawMessage `gorm:"type:jsonb;not null"`
	Payments        json.RawMessage `gorm:"type:jsonb;not null"`
	LastReminderAt  *time.Time      `gorm:""`
	CancelledAt     *time.Time      `gorm:""`
	CancelReason    string          `gorm:"size:500"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// List retrieves bookings matching the filter with pagination, newest first.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.ClientID != uuid.Nil {
		query = query.Where("client_id = ?", filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindBalanceDue retrieves unpaid confirmed bookings whose balance is due on or before the given day.
func (r *GormBookingRepository) FindBalanceDue(ctx context.Context, on time.Time) ([]*bookingDomain.Booking, error) {
	day := bookingDomain.NewDate(on).Time

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(bookingDomain.StatusConfirmed)).
		Where("balance_due_date IS NOT NULL AND balance_due_date <= ?", day).
		Where("amount_paid < total_amount").
		Order("balance_due_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find balance-due bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// The caller has already called IncrementVersion.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":           model.Status,
			"total_amount":     model.TotalAmount,
			"deposit_amount":   model.DepositAmount,
			"amount_paid":      model.AmountPaid,
			"balance_due_date": model.BalanceDueDate,
			"details":          model.Details,
			"passengers":       model.Passengers,
			"services":         model.Services,
			"payments":         model.Payments,
			"last_reminder_at": model.LastReminderAt,
			"cancelled_at":     model.CancelledAt,
			"cancel_reason":    model.CancelReason,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	d := bk.Details()

	detailsJSON, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking details: %w", err)
	}
	passengersJSON, err := json.Marshal(nonNil(bk.Passengers()))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal passengers: %w", err)
	}
	servicesJSON, err := json.Marshal(nonNil(bk.Services()))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal services: %w", err)
	}
	paymentsJSON, err := json.Marshal(nonNil(bk.Payments()))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payments: %w", err)
	}

	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		Status:          string(bk.Status()),
		ClientID:        d.ClientID,
		TravelStartDate: d.TravelStartDate.Time,
		TravelEndDate:   d.TravelEndDate.Time,
		Currency:        d.Currency,
		TotalAmount:     d.TotalAmount,
		DepositAmount:   d.DepositAmount,
		AmountPaid:      bk.AmountPaid(),
		BalanceDueDate:  d.BalanceDueDate.Ptr(),
		Details:         detailsJSON,
		Passengers:      passengersJSON,
		Services:        servicesJSON,
		Payments:        paymentsJSON,
		LastReminderAt:  bk.LastReminderAt(),
		CancelledAt:     bk.CancelledAt(),
		CancelReason:    bk.CancelReason(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var details bookingDomain.Details
	if err := json.Unmarshal(m.Details, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking details: %w", err)
	}

	passengers := []bookingDomain.PassengerRecord{}
	if len(m.Passengers) > 0 {
		if err := json.Unmarshal(m.Passengers, &passengers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal passengers: %w", err)
		}
	}

	services := []bookingDomain.ServiceRecord{}
	if len(m.Services) > 0 {
		if err := json.Unmarshal(m.Services, &services); err != nil {
			return nil, fmt.Errorf("failed to unmarshal services: %w", err)
		}
	}

	payments := []bookingDomain.Payment{}
	if len(m.Payments) > 0 {
		if err := json.Unmarshal(m.Payments, &payments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payments: %w", err)
		}
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		status,
		details,
		passengers,
		services,
		payments,
		m.AmountPaid,
		m.LastReminderAt,
		m.CancelledAt,
		m.CancelReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
