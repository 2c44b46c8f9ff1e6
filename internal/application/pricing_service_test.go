package application

import (
	"encoding/json"
	"testing"

	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPricingService_Quote(t *testing.T) {
	svc := NewPricingService(zap.NewNop())

	b, err := svc.Quote(QuoteRequest{
		Services: []serviceline.Line{testHotelLine(t)},
		Pricing: pricing.Params{
			MarkupPercentage: decimal.NewFromInt(20),
			TaxRate:          decimal.NewFromInt(10),
		},
	})
	require.NoError(t, err)
	assert.True(t, b.TotalBeforeCommission.Equal(decimal.NewFromInt(360)))
	assert.True(t, b.TotalAmount.Equal(decimal.NewFromInt(396)), b.TotalAmount.String())

	_, err = svc.Quote(QuoteRequest{Pricing: pricing.Params{MarkupPercentage: decimal.NewFromInt(-1)}})
	assert.Error(t, err)

	_, err = svc.Quote(QuoteRequest{Services: []serviceline.Line{{}}})
	assert.Error(t, err)
}

func TestBuildServiceLine(t *testing.T) {
	raw := json.RawMessage(`{
		"costCurrency": "USD",
		"hotelId": "6f1c2a5e-8a0b-4e52-9d7a-0b7c1d2e3f40",
		"checkIn": "2027-03-10T00:00:00Z",
		"checkOut": "2027-03-12T00:00:00Z",
		"rooms": 2,
		"roomPrice": "80"
	}`)
	l, err := BuildServiceLine(serviceline.TypeHotel, raw)
	require.NoError(t, err)
	assert.Equal(t, serviceline.TypeHotel, l.Type())
	assert.True(t, l.TotalCost().Equal(decimal.NewFromInt(320)), l.TotalCost().String())

	_, err = BuildServiceLine("spaceship", raw)
	assert.Error(t, err)

	_, err = BuildServiceLine(serviceline.TypeHotel, json.RawMessage(`{"rooms": "many"}`))
	assert.Error(t, err)

	_, err = BuildServiceLine(serviceline.TypeGuide, json.RawMessage(`{"costCurrency":"USD"}`))
	assert.Error(t, err, "guide id is required")
}
