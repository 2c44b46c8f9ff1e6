package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	promoDomain "github.com/Kilat-Travel/service-booking/internal/domain/promo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPromoService_CreateAndList(t *testing.T) {
	svc := NewPromoService(newMemPromoRepo(), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreatePromoCode(ctx, CreatePromoCodeRequest{Code: "summer15", Kind: "percentage", Value: decimal.NewFromInt(15)})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER15", created.Code)
	assert.True(t, created.Active)

	_, err = svc.CreatePromoCode(ctx, CreatePromoCodeRequest{Code: "SUMMER15", Kind: "flat", Value: decimal.NewFromInt(5)})
	var cErr *domain.ConflictError
	assert.True(t, errors.As(err, &cErr))

	_, err = svc.CreatePromoCode(ctx, CreatePromoCodeRequest{Code: "BAD", Kind: "percentage", Value: decimal.NewFromInt(150)})
	assert.Error(t, err)

	_, err = svc.CreatePromoCode(ctx, CreatePromoCodeRequest{Code: "FLAT50", Kind: "flat", Value: decimal.NewFromInt(50)})
	require.NoError(t, err)
	_, err = svc.DeactivatePromoCode(ctx, "flat50")
	require.NoError(t, err)

	active, err := svc.ListPromoCodes(ctx, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active.Total)

	all, err := svc.ListPromoCodes(ctx, false, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestPromoService_ValidateCode(t *testing.T) {
	svc := NewPromoService(newMemPromoRepo(), zap.NewNop())
	ctx := context.Background()
	minimum := decimal.NewFromInt(500)
	_, err := svc.CreatePromoCode(ctx, CreatePromoCodeRequest{
		Code:        "BIGTRIP",
		Kind:        "flat",
		Value:       decimal.NewFromInt(40),
		Description: "40 off big trips",
		MinSubtotal: &minimum,
	})
	require.NoError(t, err)

	res, err := svc.ValidateCode(ctx, "bigtrip", nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.NotNil(t, res.Promo)
	assert.Equal(t, "BIGTRIP", res.Promo.Code)
	assert.Equal(t, "40 off big trips", res.Message)

	small := decimal.NewFromInt(100)
	res, err = svc.ValidateCode(ctx, "BIGTRIP", &small)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, promoDomain.ReasonBelowMinimum, res.Message)

	res, err = svc.ValidateCode(ctx, "GHOST", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, promoDomain.ReasonUnknownCode, res.Message)

	res, err = svc.ValidateCode(ctx, "  ", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestPromoService_ValidateCodeSharesConcurrentLookups(t *testing.T) {
	repo := newMemPromoRepo()
	svc := NewPromoService(repo, zap.NewNop())
	ctx := context.Background()
	_, err := svc.CreatePromoCode(ctx, CreatePromoCodeRequest{Code: "SHARED", Kind: "percentage", Value: decimal.NewFromInt(5)})
	require.NoError(t, err)
	repo.delay = 40 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.ValidateCode(ctx, "shared", nil)
			assert.NoError(t, err)
			assert.True(t, res.Valid)
		}()
	}
	wg.Wait()
	assert.Less(t, repo.findCount(), 5)
}

func TestPromoService_RedeemHonoursUsageLimit(t *testing.T) {
	svc := NewPromoService(newMemPromoRepo(), zap.NewNop())
	ctx := context.Background()
	limit := 1
	_, err := svc.CreatePromoCode(ctx, CreatePromoCodeRequest{Code: "SINGLE", Kind: "flat", Value: decimal.NewFromInt(10), UsageLimit: &limit})
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, "SINGLE"))
	assert.Error(t, svc.Redeem(ctx, "SINGLE"))

	res, err := svc.ValidateCode(ctx, "SINGLE", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, promoDomain.ReasonExhausted, res.Message)

	assert.True(t, domain.IsNotFound(svc.Redeem(ctx, "MISSING")))
}
