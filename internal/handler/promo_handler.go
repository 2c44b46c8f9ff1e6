package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Kilat-Travel/service-booking/internal/application"
	"github.com/Kilat-Travel/service-booking/internal/response"
)

// PromoHandler handles HTTP requests for the promo code catalog.
type PromoHandler struct {
	service *application.PromoService
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(service *application.PromoService) *PromoHandler {
	return &PromoHandler{service: service}
}

// RegisterRoutes registers all promo code routes.
func (h *PromoHandler) RegisterRoutes(r *gin.RouterGroup) {
	promos := r.Group("/api/v1/promo-codes")
	{
		promos.POST("", h.CreatePromoCode)
		promos.GET("", h.ListPromoCodes)
		promos.GET("/:code/validate", h.ValidatePromoCode)
		promos.DELETE("/:code", h.DeactivatePromoCode)
	}
}

// CreatePromoCode handles POST /api/v1/promo-codes.
func (h *PromoHandler) CreatePromoCode(c *gin.Context) {
	var req application.CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePromoCode(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListPromoCodes handles GET /api/v1/promo-codes?active=true.
func (h *PromoHandler) ListPromoCodes(c *gin.Context) {
	page, limit := parsePagination(c)
	activeOnly := c.Query("active") == "true"

	result, err := h.service.ListPromoCodes(c.Request.Context(), activeOnly, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ValidatePromoCode handles GET /api/v1/promo-codes/:code/validate?subtotal=.
func (h *PromoHandler) ValidatePromoCode(c *gin.Context) {
	var subtotal *decimal.Decimal
	if s := c.Query("subtotal"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			response.BadRequest(c, "invalid subtotal")
			return
		}
		subtotal = &d
	}

	result, err := h.service.ValidateCode(c.Request.Context(), c.Param("code"), subtotal)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"valid":   result.Valid,
		"promo":   result.Promo,
		"message": result.Message,
	})
}

// DeactivatePromoCode handles DELETE /api/v1/promo-codes/:code.
func (h *PromoHandler) DeactivatePromoCode(c *gin.Context) {
	result, err := h.service.DeactivatePromoCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
