package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	promoDomain "github.com/Kilat-Travel/service-booking/internal/domain/promo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoCodeModel is the GORM model for the promo_codes table.
type PromoCodeModel struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Code        string           `gorm:"uniqueIndex;not null;size:32"`
	Kind        string           `gorm:"not null;size:20"`
	Value       decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	Description string           `gorm:"size:255"`
	ValidFrom   *time.Time       `gorm:""`
	ValidUntil  *time.Time       `gorm:""`
	UsageLimit  *int             `gorm:""`
	UsageCount  int              `gorm:"not null;default:0"`
	MinSubtotal *decimal.Decimal `gorm:"type:numeric(14,2)"`
	Active      bool             `gorm:"not null"`
	Version     int64            `gorm:"not null;default:1"`
	CreatedAt   time.Time        `gorm:"not null"`
	UpdatedAt   time.Time        `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PromoCodeModel) TableName() string {
	return "promo_codes"
}

// GormPromoRepository is the GORM-based implementation of PromoRepository.
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository.
func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// FindByCode retrieves a promo code by its normalized code.
func (r *GormPromoRepository) FindByCode(ctx context.Context, code string) (*promoDomain.PromoCode, error) {
	code = promoDomain.NormalizeCode(code)
	var model PromoCodeModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("PromoCode", code)
		}
		return nil, fmt.Errorf("failed to find promo code: %w", err)
	}
	return toDomainPromo(&model), nil
}

// List retrieves promo codes with pagination, newest first.
func (r *GormPromoRepository) List(ctx context.Context, activeOnly bool, page, limit int) ([]*promoDomain.PromoCode, int64, error) {
	query := r.db.WithContext(ctx).Model(&PromoCodeModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count promo codes: %w", err)
	}

	var models []PromoCodeModel
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list promo codes: %w", err)
	}

	codes := make([]*promoDomain.PromoCode, len(models))
	for i := range models {
		codes[i] = toDomainPromo(&models[i])
	}
	return codes, total, nil
}

// Save persists a new promo code. A duplicate code is a conflict.
func (r *GormPromoRepository) Save(ctx context.Context, p *promoDomain.PromoCode) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&PromoCodeModel{}).Where("code = ?", p.Code()).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check promo code: %w", err)
	}
	if count > 0 {
		return domain.NewConflictError(fmt.Sprintf("promo code %s already exists", p.Code()))
	}
	if err := r.db.WithContext(ctx).Create(toPromoModel(p)).Error; err != nil {
		return fmt.Errorf("failed to save promo code: %w", err)
	}
	return nil
}

// Update persists usage and activation changes with optimistic locking.
func (r *GormPromoRepository) Update(ctx context.Context, p *promoDomain.PromoCode) error {
	model := toPromoModel(p)
	result := r.db.WithContext(ctx).
		Model(&PromoCodeModel{}).
		Where("id = ? AND version = ?", model.ID, p.Version()-1).
		Updates(map[string]interface{}{
			"usage_count": model.UsageCount,
			"active":      model.Active,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update promo code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("promo code was modified by another transaction")
	}
	return nil
}

func toPromoModel(p *promoDomain.PromoCode) *PromoCodeModel {
	t := p.Terms()
	return &PromoCodeModel{
		ID:          p.ID(),
		Code:        p.Code(),
		Kind:        string(t.Kind),
		Value:       t.Value,
		Description: t.Description,
		ValidFrom:   t.ValidFrom,
		ValidUntil:  t.ValidUntil,
		UsageLimit:  t.UsageLimit,
		UsageCount:  p.UsageCount(),
		MinSubtotal: t.MinSubtotal,
		Active:      p.IsActive(),
		Version:     p.Version(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func toDomainPromo(m *PromoCodeModel) *promoDomain.PromoCode {
	return promoDomain.Reconstruct(
		m.ID,
		promoDomain.Terms{
			Code:        m.Code,
			Kind:        pricing.PromoKind(m.Kind),
			Value:       m.Value,
			Description: m.Description,
			ValidFrom:   m.ValidFrom,
			ValidUntil:  m.ValidUntil,
			UsageLimit:  m.UsageLimit,
			MinSubtotal: m.MinSubtotal,
		},
		m.UsageCount,
		m.Active,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
