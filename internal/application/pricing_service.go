package application

import (
	"fmt"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"go.uber.org/zap"
)

// QuoteRequest prices a set of service lines without a draft.
type QuoteRequest struct {
	Services []serviceline.Line `json:"services"`
	Pricing  pricing.Params     `json:"pricing"`
}

// PricingService runs the pricing fold for drafts and ad-hoc quotes.
type PricingService struct {
	logger *zap.Logger
}

// NewPricingService creates a new PricingService.
func NewPricingService(logger *zap.Logger) *PricingService {
	return &PricingService{logger: logger}
}

// Quote validates the inputs and returns the breakdown.
func (s *PricingService) Quote(req QuoteRequest) (pricing.Breakdown, error) {
	for i, l := range req.Services {
		if err := l.Validate(); err != nil {
			return pricing.Breakdown{}, domain.NewValidationError(fmt.Sprintf("services[%d]: %v", i, err))
		}
	}
	if err := req.Pricing.Validate(); err != nil {
		return pricing.Breakdown{}, err
	}
	return s.compute(req.Services, req.Pricing), nil
}

// compute runs the fold. Line selling prices are not part of it; a mismatch is only reported.
func (s *PricingService) compute(lines []serviceline.Line, p pricing.Params) pricing.Breakdown {
	b := pricing.Compute(lines, p)
	if !b.SellingDivergence.IsZero() && len(lines) > 0 {
		s.logger.Debug("line selling prices diverge from the markup total",
			zap.String("selling_reference", b.SellingReference.StringFixed(2)),
			zap.String("total_before_commission", b.TotalBeforeCommission.StringFixed(2)),
			zap.String("divergence", b.SellingDivergence.StringFixed(2)),
		)
	}
	return b
}
