package promo

import "context"

// PromoRepository defines persistence operations for promo codes.
type PromoRepository interface {
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	List(ctx context.Context, activeOnly bool, page, limit int) ([]*PromoCode, int64, error)
	Save(ctx context.Context, p *PromoCode) error
	Update(ctx context.Context, p *PromoCode) error
}
