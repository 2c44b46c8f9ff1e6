// Package promo holds the promo code catalog.
package promo

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

// Rejection reasons returned by Check.
const (
	ReasonInactive     = "promo code is not active"
	ReasonNotStarted   = "promo code is not valid yet"
	ReasonExpired      = "promo code has expired"
	ReasonExhausted    = "promo code usage limit reached"
	ReasonBelowMinimum = "subtotal is below the promo code minimum"
	ReasonUnknownCode  = "promo code not found"
)

// PromoCode is a discount that can be applied to a booking subtotal.
type PromoCode struct {
	id          uuid.UUID
	code        string
	kind        pricing.PromoKind
	value       decimal.Decimal
	description string
	validFrom   *time.Time
	validUntil  *time.Time
	usageLimit  *int
	usageCount  int
	minSubtotal *decimal.Decimal
	active      bool
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// Terms are the rules of a promo code.
type Terms struct {
	Code        string
	Kind        pricing.PromoKind
	Value       decimal.Decimal
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	UsageLimit  *int
	MinSubtotal *decimal.Decimal
}

// NormalizeCode upper-cases and trims a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewPromoCode creates an active promo code.
func NewPromoCode(t Terms) (*PromoCode, error) {
	code := NormalizeCode(t.Code)
	if !codePattern.MatchString(code) {
		return nil, domain.NewValidationError("promo code must be 3-32 letters, digits, '-' or '_'")
	}
	applied := pricing.Params{Promo: &pricing.Promo{Code: code, Kind: t.Kind, Value: t.Value}}
	if err := applied.Validate(); err != nil {
		return nil, err
	}
	if !t.Value.IsPositive() {
		return nil, domain.NewValidationError("promo value must be positive")
	}
	if t.ValidFrom != nil && t.ValidUntil != nil && t.ValidUntil.Before(*t.ValidFrom) {
		return nil, domain.NewValidationError("promo validity ends before it starts")
	}
	if t.UsageLimit != nil && *t.UsageLimit < 1 {
		return nil, domain.NewValidationError("usage limit must be at least 1")
	}
	if t.MinSubtotal != nil && t.MinSubtotal.IsNegative() {
		return nil, domain.NewValidationError("minimum subtotal cannot be negative")
	}

	now := time.Now().UTC()
	return &PromoCode{
		id:          uuid.New(),
		code:        code,
		kind:        t.Kind,
		value:       t.Value,
		description: t.Description,
		validFrom:   t.ValidFrom,
		validUntil:  t.ValidUntil,
		usageLimit:  t.UsageLimit,
		minSubtotal: t.MinSubtotal,
		active:      true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a PromoCode from persistence data (no validation).
func Reconstruct(id uuid.UUID, t Terms, usageCount int, active bool, version int64, createdAt, updatedAt time.Time) *PromoCode {
	return &PromoCode{
		id:          id,
		code:        t.Code,
		kind:        t.Kind,
		value:       t.Value,
		description: t.Description,
		validFrom:   t.ValidFrom,
		validUntil:  t.ValidUntil,
		usageLimit:  t.UsageLimit,
		usageCount:  usageCount,
		minSubtotal: t.MinSubtotal,
		active:      active,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the promo code's identifier.
func (p *PromoCode) ID() uuid.UUID { return p.id }

// Code returns the normalized code.
func (p *PromoCode) Code() string { return p.code }

// Terms returns the rules of the code.
func (p *PromoCode) Terms() Terms {
	return Terms{
		Code:        p.code,
		Kind:        p.kind,
		Value:       p.value,
		Description: p.description,
		ValidFrom:   p.validFrom,
		ValidUntil:  p.validUntil,
		UsageLimit:  p.usageLimit,
		MinSubtotal: p.minSubtotal,
	}
}

// UsageCount returns how many bookings used the code.
func (p *PromoCode) UsageCount() int { return p.usageCount }

// IsActive reports whether the code was not deactivated.
func (p *PromoCode) IsActive() bool { return p.active }

// Version returns the entity version for optimistic locking.
func (p *PromoCode) Version() int64 { return p.version }

// CreatedAt returns the creation timestamp.
func (p *PromoCode) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (p *PromoCode) UpdatedAt() time.Time { return p.updatedAt }

// Applied returns the promo as the pricing fold consumes it.
func (p *PromoCode) Applied() *pricing.Promo {
	return &pricing.Promo{Code: p.code, Kind: p.kind, Value: p.value}
}

// Check returns an empty reason when the code can be applied at the given time and subtotal.
// A nil subtotal skips the minimum check.
func (p *PromoCode) Check(at time.Time, subtotal *decimal.Decimal) string {
	switch {
	case !p.active:
		return ReasonInactive
	case p.validFrom != nil && at.Before(*p.validFrom):
		return ReasonNotStarted
	case p.validUntil != nil && at.After(*p.validUntil):
		return ReasonExpired
	case p.usageLimit != nil && p.usageCount >= *p.usageLimit:
		return ReasonExhausted
	case p.minSubtotal != nil && subtotal != nil && subtotal.LessThan(*p.minSubtotal):
		return ReasonBelowMinimum
	}
	return ""
}

// Redeem counts one use of the code.
func (p *PromoCode) Redeem(at time.Time) error {
	if reason := p.Check(at, nil); reason != "" {
		return domain.NewValidationError(reason)
	}
	p.usageCount++
	p.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate stops the code from being applied.
func (p *PromoCode) Deactivate() {
	p.active = false
	p.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (p *PromoCode) IncrementVersion() {
	p.version++
}

func (p *PromoCode) String() string {
	return fmt.Sprintf("%s(%s %s)", p.code, p.kind, p.value.String())
}
