package handler

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/Kilat-Travel/service-booking/internal/application"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/Kilat-Travel/service-booking/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WizardHandler handles HTTP requests for the booking wizard.
type WizardHandler struct {
	service *application.WizardService
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(service *application.WizardService) *WizardHandler {
	return &WizardHandler{service: service}
}

// RegisterRoutes registers all wizard routes on the given router group.
func (h *WizardHandler) RegisterRoutes(r *gin.RouterGroup) {
	drafts := r.Group("/api/v1/wizard/drafts")
	{
		drafts.POST("", h.CreateDraft)
		drafts.GET("/:id", h.GetDraft)
		drafts.DELETE("/:id", h.CancelDraft)

		drafts.PUT("/:id/client", h.SelectClient)
		drafts.PUT("/:id/trip", h.SetTripDetails)
		drafts.PUT("/:id/trip/children", h.SetChildCount)
		drafts.PUT("/:id/passengers", h.SetPassengers)
		drafts.PUT("/:id/passengers/lead", h.SetLeadPassenger)
		drafts.POST("/:id/services", h.AddService)
		drafts.POST("/:id/services/:type", h.AddServiceFromInput)
		drafts.DELETE("/:id/services/:index", h.RemoveService)
		drafts.GET("/:id/pricing", h.GetPricing)
		drafts.PUT("/:id/pricing", h.SetPricingInputs)
		drafts.PUT("/:id/payment-schedule", h.SetPaymentSchedule)
		drafts.PUT("/:id/promo", h.ApplyPromoCode)

		drafts.POST("/:id/next", h.NextStep)
		drafts.POST("/:id/previous", h.PreviousStep)
		drafts.POST("/:id/goto/:step", h.GoToStep)
		drafts.GET("/:id/validate", h.ValidateStep)
		drafts.POST("/:id/save", h.SaveDraft)
		drafts.POST("/:id/submit", h.Submit)
	}
}

// CreateDraft handles POST /api/v1/wizard/drafts.
func (h *WizardHandler) CreateDraft(c *gin.Context) {
	result, err := h.service.CreateDraft(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetDraft handles GET /api/v1/wizard/drafts/:id.
func (h *WizardHandler) GetDraft(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	result, err := h.service.GetDraft(c.Request.Context(), draftID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CancelDraft handles DELETE /api/v1/wizard/drafts/:id.
func (h *WizardHandler) CancelDraft(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	if err := h.service.CancelDraft(c.Request.Context(), draftID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"cancelled": true})
}

// SelectClient handles PUT /api/v1/wizard/drafts/:id/client.
func (h *WizardHandler) SelectClient(c *gin.Context) {
	var req application.SelectClientRequest
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.SelectClient(c.Request.Context(), draftID, req)
	})
}

// SetTripDetails handles PUT /api/v1/wizard/drafts/:id/trip.
func (h *WizardHandler) SetTripDetails(c *gin.Context) {
	var req wizard.TripDetails
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.SetTripDetails(c.Request.Context(), draftID, req)
	})
}

// SetChildCount handles PUT /api/v1/wizard/drafts/:id/trip/children.
func (h *WizardHandler) SetChildCount(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"min=0,max=20"`
	}
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.SetChildCount(c.Request.Context(), draftID, req.Count)
	})
}

// SetPassengers handles PUT /api/v1/wizard/drafts/:id/passengers.
func (h *WizardHandler) SetPassengers(c *gin.Context) {
	var req struct {
		Passengers []wizard.Passenger `json:"passengers"`
	}
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.SetPassengers(c.Request.Context(), draftID, req.Passengers)
	})
}

// SetLeadPassenger handles PUT /api/v1/wizard/drafts/:id/passengers/lead.
func (h *WizardHandler) SetLeadPassenger(c *gin.Context) {
	var req struct {
		Index int `json:"index" binding:"min=0"`
	}
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.SetLeadPassenger(c.Request.Context(), draftID, req.Index)
	})
}

// AddService handles POST /api/v1/wizard/drafts/:id/services with a fully specified line.
func (h *WizardHandler) AddService(c *gin.Context) {
	var line serviceline.Line
	h.mutate(c, &line, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.AddService(c.Request.Context(), draftID, line)
	})
}

// AddServiceFromInput handles POST /api/v1/wizard/drafts/:id/services/:type.
// The body is the family's helper input; the line is priced server side.
func (h *WizardHandler) AddServiceFromInput(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	st, err := serviceline.ParseServiceType(c.Param("type"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(raw) {
		response.BadRequest(c, "invalid JSON body")
		return
	}

	line, err := application.BuildServiceLine(st, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.AddService(c.Request.Context(), draftID, line)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// RemoveService handles DELETE /api/v1/wizard/drafts/:id/services/:index.
func (h *WizardHandler) RemoveService(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid service index")
		return
	}
	result, err := h.service.RemoveService(c.Request.Context(), draftID, index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetPricing handles GET /api/v1/wizard/drafts/:id/pricing.
func (h *WizardHandler) GetPricing(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	result, err := h.service.Pricing(c.Request.Context(), draftID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SetPricingInputs handles PUT /api/v1/wizard/drafts/:id/pricing.
func (h *WizardHandler) SetPricingInputs(c *gin.Context) {
	var req pricing.Params
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.SetPricingInputs(c.Request.Context(), draftID, req)
	})
}

// SetPaymentSchedule handles PUT /api/v1/wizard/drafts/:id/payment-schedule.
func (h *WizardHandler) SetPaymentSchedule(c *gin.Context) {
	var req wizard.PaymentSchedule
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.SetPaymentSchedule(c.Request.Context(), draftID, req)
	})
}

// ApplyPromoCode handles PUT /api/v1/wizard/drafts/:id/promo. An empty code removes the promo.
func (h *WizardHandler) ApplyPromoCode(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"max=32"`
	}
	h.mutate(c, &req, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.ApplyPromoCode(c.Request.Context(), draftID, req.Code)
	})
}

// NextStep handles POST /api/v1/wizard/drafts/:id/next.
func (h *WizardHandler) NextStep(c *gin.Context) {
	h.mutate(c, nil, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.NextStep(c.Request.Context(), draftID)
	})
}

// PreviousStep handles POST /api/v1/wizard/drafts/:id/previous.
func (h *WizardHandler) PreviousStep(c *gin.Context) {
	h.mutate(c, nil, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.PreviousStep(c.Request.Context(), draftID)
	})
}

// GoToStep handles POST /api/v1/wizard/drafts/:id/goto/:step.
func (h *WizardHandler) GoToStep(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		response.BadRequest(c, "invalid step")
		return
	}
	h.mutate(c, nil, func(draftID uuid.UUID) (*application.DraftDTO, error) {
		return h.service.GoToStep(c.Request.Context(), draftID, wizard.Step(step))
	})
}

// ValidateStep handles GET /api/v1/wizard/drafts/:id/validate?step=N. Without step the current step is checked.
func (h *WizardHandler) ValidateStep(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	step, err := strconv.Atoi(c.DefaultQuery("step", "0"))
	if err != nil {
		response.BadRequest(c, "invalid step")
		return
	}
	result, err := h.service.ValidateStep(c.Request.Context(), draftID, wizard.Step(step))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SaveDraft handles POST /api/v1/wizard/drafts/:id/save, writing the recovery snapshot now.
func (h *WizardHandler) SaveDraft(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	if err := h.service.FlushDraft(c.Request.Context(), draftID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"saved": true})
}

// Submit handles POST /api/v1/wizard/drafts/:id/submit.
func (h *WizardHandler) Submit(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req application.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.Submit(c.Request.Context(), draftID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// mutate parses the draft id, binds the body into req when non-nil and runs fn.
func (h *WizardHandler) mutate(c *gin.Context, req interface{}, fn func(draftID uuid.UUID) (*application.DraftDTO, error)) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}
	if req != nil {
		if err := c.ShouldBindJSON(req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	result, err := fn(draftID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func parseDraftID(c *gin.Context) (uuid.UUID, bool) {
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid draft ID")
		return uuid.Nil, false
	}
	return draftID, true
}
