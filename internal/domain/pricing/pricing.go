// Package pricing folds service lines and wizard-level pricing parameters into a price breakdown.
package pricing

import (
	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/shopspring/decimal"
)

// DefaultDepositRate is the share of the total suggested as deposit.
var DefaultDepositRate = decimal.RequireFromString("0.30")

var hundred = decimal.NewFromInt(100)

// PromoKind tells how a promo code discounts the subtotal.
type PromoKind string

const (
	PromoPercentage PromoKind = "percentage"
	PromoFlat       PromoKind = "flat"
)

// IsValid returns true if the promo kind is recognized.
func (k PromoKind) IsValid() bool {
	return k == PromoPercentage || k == PromoFlat
}

// Promo is a validated promo code as applied to a fold.
type Promo struct {
	Code  string          `json:"code"`
	Kind  PromoKind       `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Params are the wizard-level pricing inputs.
type Params struct {
	MarkupPercentage     decimal.Decimal `json:"markupPercentage"`
	CommissionPercentage decimal.Decimal `json:"commissionPercentage"`
	TaxRate              decimal.Decimal `json:"taxRate"`
	Promo                *Promo          `json:"promo,omitempty"`
	ManualDiscount       decimal.Decimal `json:"manualDiscount"`
	// DepositAmount overrides the 30% suggestion when set.
	DepositAmount *decimal.Decimal `json:"depositAmount,omitempty"`
}

// Validate rejects negative rates and discounts.
func (p Params) Validate() error {
	switch {
	case p.MarkupPercentage.IsNegative():
		return domain.NewValidationError("markup percentage cannot be negative")
	case p.CommissionPercentage.IsNegative():
		return domain.NewValidationError("commission percentage cannot be negative")
	case p.CommissionPercentage.GreaterThan(hundred):
		return domain.NewValidationError("commission percentage cannot exceed 100")
	case p.TaxRate.IsNegative():
		return domain.NewValidationError("tax rate cannot be negative")
	case p.ManualDiscount.IsNegative():
		return domain.NewValidationError("manual discount cannot be negative")
	case p.DepositAmount != nil && p.DepositAmount.IsNegative():
		return domain.NewValidationError("deposit amount cannot be negative")
	}
	if p.Promo != nil {
		if !p.Promo.Kind.IsValid() {
			return domain.NewValidationError("invalid promo kind")
		}
		if p.Promo.Value.IsNegative() {
			return domain.NewValidationError("promo value cannot be negative")
		}
		if p.Promo.Kind == PromoPercentage && p.Promo.Value.GreaterThan(hundred) {
			return domain.NewValidationError("promo percentage cannot exceed 100")
		}
	}
	return nil
}

// Breakdown is the derived price of a booking. Nothing in it is stored independently.
type Breakdown struct {
	ServicesCost          decimal.Decimal `json:"servicesCost"`
	Markup                decimal.Decimal `json:"markup"`
	TotalBeforeCommission decimal.Decimal `json:"totalBeforeCommission"`
	Commission            decimal.Decimal `json:"commission"`
	ProfitAmount          decimal.Decimal `json:"profitAmount"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	PromoDiscount         decimal.Decimal `json:"promoDiscount"`
	ManualDiscount        decimal.Decimal `json:"manualDiscount"`
	TotalDiscount         decimal.Decimal `json:"totalDiscount"`
	AfterDiscount         decimal.Decimal `json:"afterDiscount"`
	TaxAmount             decimal.Decimal `json:"taxAmount"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	DefaultDeposit        decimal.Decimal `json:"defaultDeposit"`
	DepositAmount         decimal.Decimal `json:"depositAmount"`
	DepositClamped        bool            `json:"depositClamped"`
	BalanceAmount         decimal.Decimal `json:"balanceAmount"`

	// SellingReference sums the per-line selling prices, which the fold does not read.
	SellingReference  decimal.Decimal `json:"sellingReference"`
	SellingDivergence decimal.Decimal `json:"sellingDivergence"`
}

// Compute runs the pricing fold. The steps are ordered; each one feeds the next.
func Compute(services []serviceline.Line, p Params) Breakdown {
	var b Breakdown

	b.ServicesCost = decimal.Zero
	b.SellingReference = decimal.Zero
	for _, l := range services {
		b.ServicesCost = b.ServicesCost.Add(l.TotalCost())
		b.SellingReference = b.SellingReference.Add(l.TotalSelling())
	}

	b.Markup = percentOf(b.ServicesCost, p.MarkupPercentage)
	b.TotalBeforeCommission = b.ServicesCost.Add(b.Markup)

	b.Commission = percentOf(b.TotalBeforeCommission, p.CommissionPercentage)
	b.ProfitAmount = b.Markup.Sub(b.Commission)

	b.Subtotal = b.TotalBeforeCommission.Sub(b.Commission)

	b.PromoDiscount = promoDiscount(b.Subtotal, p.Promo)
	b.ManualDiscount = p.ManualDiscount
	b.TotalDiscount = b.PromoDiscount.Add(b.ManualDiscount)
	b.AfterDiscount = decimal.Max(decimal.Zero, b.Subtotal.Sub(b.TotalDiscount))

	b.TaxAmount = percentOf(b.AfterDiscount, p.TaxRate)

	b.TotalAmount = b.AfterDiscount.Add(b.TaxAmount)

	b.DefaultDeposit = b.TotalAmount.Mul(DefaultDepositRate)

	b.DepositAmount, b.DepositClamped = clampDeposit(p.DepositAmount, b.DefaultDeposit, b.TotalAmount)
	b.BalanceAmount = b.TotalAmount.Sub(b.DepositAmount)

	b.SellingDivergence = b.SellingReference.Sub(b.TotalBeforeCommission)
	return b
}

// DepositWithinTotal reports whether a requested deposit fits the total.
func DepositWithinTotal(requested *decimal.Decimal, total decimal.Decimal) bool {
	return requested == nil || (!requested.IsNegative() && requested.LessThanOrEqual(total))
}

// Money rounds an amount to cents for display and transport.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return base.Mul(pct.Shift(-2))
}

func promoDiscount(subtotal decimal.Decimal, promo *Promo) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}
	switch promo.Kind {
	case PromoPercentage:
		return percentOf(subtotal, promo.Value)
	case PromoFlat:
		return promo.Value
	}
	return decimal.Zero
}

func clampDeposit(requested *decimal.Decimal, suggested, total decimal.Decimal) (decimal.Decimal, bool) {
	if requested == nil {
		return suggested, false
	}
	switch {
	case requested.IsNegative():
		return decimal.Zero, true
	case requested.GreaterThan(total):
		return total, true
	}
	return *requested, false
}
