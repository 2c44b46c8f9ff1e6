package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	promoDomain "github.com/Kilat-Travel/service-booking/internal/domain/promo"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CreatePromoCodeRequest is the request DTO for adding a promo code.
type CreatePromoCodeRequest struct {
	Code        string           `json:"code" binding:"required,min=3,max=32"`
	Kind        string           `json:"kind" binding:"required,oneof=percentage flat"`
	Value       decimal.Decimal  `json:"value"`
	Description string           `json:"description" binding:"max=255"`
	ValidFrom   *time.Time       `json:"valid_from"`
	ValidUntil  *time.Time       `json:"valid_until"`
	UsageLimit  *int             `json:"usage_limit"`
	MinSubtotal *decimal.Decimal `json:"min_subtotal"`
}

// PromoCodeDTO is the API response representation of a promo code.
type PromoCodeDTO struct {
	Code        string           `json:"code"`
	Kind        string           `json:"kind"`
	Value       decimal.Decimal  `json:"value"`
	Description string           `json:"description,omitempty"`
	ValidFrom   *time.Time       `json:"valid_from,omitempty"`
	ValidUntil  *time.Time       `json:"valid_until,omitempty"`
	UsageLimit  *int             `json:"usage_limit,omitempty"`
	UsageCount  int              `json:"usage_count"`
	MinSubtotal *decimal.Decimal `json:"min_subtotal,omitempty"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
}

// PromoService manages the promo code catalog and answers lookups from the wizard.
type PromoService struct {
	repo   promoDomain.PromoRepository
	lookup singleflight.Group
	logger *zap.Logger
	now    func() time.Time
}

// NewPromoService creates a new PromoService.
func NewPromoService(repo promoDomain.PromoRepository, logger *zap.Logger) *PromoService {
	return &PromoService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreatePromoCode adds a code to the catalog.
func (s *PromoService) CreatePromoCode(ctx context.Context, req CreatePromoCodeRequest) (*PromoCodeDTO, error) {
	p, err := promoDomain.NewPromoCode(promoDomain.Terms{
		Code:        req.Code,
		Kind:        pricing.PromoKind(req.Kind),
		Value:       req.Value,
		Description: req.Description,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		UsageLimit:  req.UsageLimit,
		MinSubtotal: req.MinSubtotal,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("promo code created", zap.String("code", p.Code()))
	result := toPromoCodeDTO(p)
	return &result, nil
}

// ListPromoCodes returns a page of promo codes.
func (s *PromoService) ListPromoCodes(ctx context.Context, activeOnly bool, page, limit int) (*domain.PaginatedResult[PromoCodeDTO], error) {
	codes, total, err := s.repo.List(ctx, activeOnly, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]PromoCodeDTO, len(codes))
	for i, p := range codes {
		dtos[i] = toPromoCodeDTO(p)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// ValidateCode checks a code against the catalog. A rejected code is a result, not an error;
// errors are reserved for lookup failures. Concurrent lookups of the same code share one query.
func (s *PromoService) ValidateCode(ctx context.Context, code string, subtotal *decimal.Decimal) (wizard.PromoResult, error) {
	code = promoDomain.NormalizeCode(code)
	if code == "" {
		return wizard.PromoResult{Message: "promo code is required"}, nil
	}

	v, err, shared := s.lookup.Do(code, func() (interface{}, error) {
		return s.repo.FindByCode(ctx, code)
	})
	if err != nil {
		if domain.IsNotFound(err) {
			return wizard.PromoResult{Message: promoDomain.ReasonUnknownCode}, nil
		}
		return wizard.PromoResult{}, fmt.Errorf("failed to look up promo code: %w", err)
	}
	if shared {
		s.logger.Debug("promo lookup shared", zap.String("code", code))
	}

	p := v.(*promoDomain.PromoCode)
	if reason := p.Check(s.now(), subtotal); reason != "" {
		return wizard.PromoResult{Message: reason}, nil
	}
	return wizard.PromoResult{Valid: true, Promo: p.Applied(), Message: p.Terms().Description}, nil
}

// Redeem counts one use of a code.
func (s *PromoService) Redeem(ctx context.Context, code string) error {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := p.Redeem(s.now()); err != nil {
		return err
	}
	p.IncrementVersion()
	return s.repo.Update(ctx, p)
}

// DeactivatePromoCode stops a code from being applied.
func (s *PromoService) DeactivatePromoCode(ctx context.Context, code string) (*PromoCodeDTO, error) {
	p, err := s.repo.FindByCode(ctx, promoDomain.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	p.Deactivate()
	p.IncrementVersion()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("promo code deactivated", zap.String("code", p.Code()))
	result := toPromoCodeDTO(p)
	return &result, nil
}

func toPromoCodeDTO(p *promoDomain.PromoCode) PromoCodeDTO {
	t := p.Terms()
	return PromoCodeDTO{
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
		CreatedAt:   p.CreatedAt(),
	}
}
