package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Travel/service-booking/internal/application"
	"github.com/Kilat-Travel/service-booking/internal/response"
)

// AdminBookingHandler handles back-office HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/balance-due", h.BalanceDue)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BalanceDue handles GET /api/v1/admin/bookings/balance-due?on=YYYY-MM-DD (default today).
func (h *AdminBookingHandler) BalanceDue(c *gin.Context) {
	on := time.Now().UTC()
	if s := c.Query("on"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(c, "on must be a date in YYYY-MM-DD format")
			return
		}
		on = d
	}

	bookings, err := h.service.ListBalanceDue(c.Request.Context(), on)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, bookings)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
