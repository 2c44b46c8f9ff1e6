package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Travel/service-booking/internal/application"
	"github.com/Kilat-Travel/service-booking/internal/response"
)

// PricingHandler serves stateless quotes.
type PricingHandler struct {
	service *application.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(service *application.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// RegisterRoutes registers the pricing routes.
func (h *PricingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/api/v1/pricing/quote", h.Quote)
}

// Quote handles POST /api/v1/pricing/quote.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Quote(req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
