package pricing

import (
	"testing"

	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func line(t *testing.T, cost string, qty int) serviceline.Line {
	t.Helper()
	l, err := serviceline.NewLine(serviceline.ExtraDetail{Label: "test"}, serviceline.Cost{
		Quantity:        qty,
		CostAmount:      dec(cost),
		CostCurrency:    "USD",
		ExchangeRate:    dec("1"),
		SellingPrice:    dec(cost),
		SellingCurrency: "USD",
	})
	require.NoError(t, err)
	return l
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCompute_MarkupOnly(t *testing.T) {
	b := Compute([]serviceline.Line{line(t, "100", 2)}, Params{MarkupPercentage: dec("20")})

	assertDec(t, "200", b.ServicesCost, "servicesCost")
	assertDec(t, "40", b.Markup, "markup")
	assertDec(t, "240", b.Subtotal, "subtotal")
	assertDec(t, "240", b.TotalAmount, "totalAmount")
	assertDec(t, "72", b.DefaultDeposit, "defaultDeposit")
	assertDec(t, "72", b.DepositAmount, "depositAmount")
	assertDec(t, "168", b.BalanceAmount, "balanceAmount")
}

func TestCompute_CommissionAndTax(t *testing.T) {
	b := Compute([]serviceline.Line{line(t, "100", 2)}, Params{
		MarkupPercentage:     dec("20"),
		CommissionPercentage: dec("10"),
		TaxRate:              dec("8"),
	})

	assertDec(t, "240", b.TotalBeforeCommission, "totalBeforeCommission")
	assertDec(t, "24", b.Commission, "commission")
	assertDec(t, "16", b.ProfitAmount, "profitAmount")
	assertDec(t, "216", b.Subtotal, "subtotal")
	assertDec(t, "17.28", b.TaxAmount, "taxAmount")
	assertDec(t, "233.28", b.TotalAmount, "totalAmount")
}

func TestCompute_DiscountFloorsAtZero(t *testing.T) {
	b := Compute([]serviceline.Line{line(t, "100", 1)}, Params{
		Promo:          &Promo{Code: "BIG", Kind: PromoFlat, Value: dec("60")},
		ManualDiscount: dec("60"),
		TaxRate:        dec("10"),
	})

	assertDec(t, "100", b.Subtotal, "subtotal")
	assertDec(t, "120", b.TotalDiscount, "totalDiscount")
	assertDec(t, "0", b.AfterDiscount, "afterDiscount")
	assertDec(t, "0", b.TaxAmount, "taxAmount")
	assertDec(t, "0", b.TotalAmount, "totalAmount")
}

func TestCompute_PercentagePromoUsesSubtotal(t *testing.T) {
	b := Compute([]serviceline.Line{line(t, "100", 2)}, Params{
		MarkupPercentage:     dec("20"),
		CommissionPercentage: dec("10"),
		Promo:                &Promo{Code: "TEN", Kind: PromoPercentage, Value: dec("10")},
	})

	assertDec(t, "21.6", b.PromoDiscount, "promoDiscount")
	assertDec(t, "194.4", b.AfterDiscount, "afterDiscount")
}

func TestCompute_IsIdempotent(t *testing.T) {
	services := []serviceline.Line{line(t, "99.99", 3), line(t, "12.5", 1)}
	params := Params{
		MarkupPercentage:     dec("17.5"),
		CommissionPercentage: dec("3"),
		TaxRate:              dec("14"),
		ManualDiscount:       dec("5"),
	}

	first := Compute(services, params)
	second := Compute(services, params)
	assert.Equal(t, first, second)
}

func TestCompute_ServiceOrderDoesNotMatter(t *testing.T) {
	a, b, c := line(t, "10", 1), line(t, "250.75", 2), line(t, "3.3", 7)
	params := Params{MarkupPercentage: dec("12"), TaxRate: dec("5")}

	forward := Compute([]serviceline.Line{a, b, c}, params)
	reverse := Compute([]serviceline.Line{c, b, a}, params)
	assert.True(t, forward.TotalAmount.Equal(reverse.TotalAmount))
	assert.True(t, forward.ServicesCost.Equal(reverse.ServicesCost))
}

func TestCompute_CommissionDoesNotAffectMarkup(t *testing.T) {
	services := []serviceline.Line{line(t, "100", 2)}

	low := Compute(services, Params{MarkupPercentage: dec("20"), CommissionPercentage: dec("5")})
	high := Compute(services, Params{MarkupPercentage: dec("20"), CommissionPercentage: dec("15")})

	assert.True(t, low.Markup.Equal(high.Markup))
	assert.False(t, low.ProfitAmount.Equal(high.ProfitAmount))
	assert.False(t, low.Subtotal.Equal(high.Subtotal))
}

func TestCompute_DepositIsClampedToTotal(t *testing.T) {
	services := []serviceline.Line{line(t, "1000", 1)}

	b := Compute(services, Params{DepositAmount: decPtr("1500")})
	assertDec(t, "1000", b.TotalAmount, "totalAmount")
	assertDec(t, "1000", b.DepositAmount, "depositAmount")
	assertDec(t, "0", b.BalanceAmount, "balanceAmount")
	assert.True(t, b.DepositClamped)

	b = Compute(services, Params{DepositAmount: decPtr("250")})
	assertDec(t, "250", b.DepositAmount, "depositAmount")
	assertDec(t, "750", b.BalanceAmount, "balanceAmount")
	assert.False(t, b.DepositClamped)

	assert.False(t, DepositWithinTotal(decPtr("1500"), dec("1000")))
	assert.True(t, DepositWithinTotal(decPtr("1000"), dec("1000")))
	assert.True(t, DepositWithinTotal(nil, dec("1000")))
}

func TestCompute_EmptyServices(t *testing.T) {
	b := Compute(nil, Params{MarkupPercentage: dec("20"), TaxRate: dec("8")})
	assertDec(t, "0", b.TotalAmount, "totalAmount")
	assertDec(t, "0", b.DepositAmount, "depositAmount")
}

func TestCompute_ReportsSellingReference(t *testing.T) {
	l := line(t, "100", 1)
	l.SellingPrice = dec("110")

	b := Compute([]serviceline.Line{l}, Params{MarkupPercentage: dec("20")})
	assertDec(t, "110", b.SellingReference, "sellingReference")
	assertDec(t, "-10", b.SellingDivergence, "sellingDivergence")
	assertDec(t, "120", b.TotalAmount, "totalAmount")
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, Params{}.Validate())
	assert.Error(t, Params{MarkupPercentage: dec("-1")}.Validate())
	assert.Error(t, Params{CommissionPercentage: dec("101")}.Validate())
	assert.Error(t, Params{TaxRate: dec("-0.5")}.Validate())
	assert.Error(t, Params{ManualDiscount: dec("-5")}.Validate())
	assert.Error(t, Params{DepositAmount: decPtr("-1")}.Validate())
	assert.Error(t, Params{Promo: &Promo{Kind: "bogus"}}.Validate())
	assert.Error(t, Params{Promo: &Promo{Kind: PromoPercentage, Value: dec("150")}}.Validate())
}
