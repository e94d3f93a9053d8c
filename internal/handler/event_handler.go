package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/service"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
	"github.com/glowpoint/studio-api/pkg/response"
)

// EventHandler exposes event, registration and inquiry endpoints.
type EventHandler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	inquiries     *service.InquiryService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events *service.EventService, registrations *service.RegistrationService, inquiries *service.InquiryService) *EventHandler {
	return &EventHandler{events: events, registrations: registrations, inquiries: inquiries}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param kind query string false "PRIVATE or PUBLIC"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	includeUnpublished := claims != nil && claims.Role != models.RoleMember

	events, err := h.events.List(c.Request.Context(), strings.ToUpper(c.Query("kind")), includeUnpublished)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// GetBySlug godoc
// @Summary Get a published event by slug
// @Tags Events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} response.Envelope
// @Router /events/{slug} [get]
func (h *EventHandler) GetBySlug(c *gin.Context) {
	event, err := h.events.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update an event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Register godoc
// @Summary Register for a public event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Not enough spots left"
// @Router /registrations [post]
func (h *EventHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reg, err := h.registrations.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// ListRegistrations godoc
// @Summary List registrations for an event
// @Tags Events
// @Produce json
// @Param event_id query string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *EventHandler) ListRegistrations(c *gin.Context) {
	regs, err := h.registrations.ListByEvent(c.Request.Context(), c.Query("event_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}

// MyRegistrations godoc
// @Summary List the caller's registrations
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/registrations [get]
func (h *EventHandler) MyRegistrations(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	regs, err := h.registrations.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}

// CreateInquiry godoc
// @Summary Submit a private event inquiry
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateInquiryRequest true "Inquiry payload"
// @Success 201 {object} response.Envelope
// @Router /inquiries [post]
func (h *EventHandler) CreateInquiry(c *gin.Context) {
	var req service.CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inquiry, err := h.inquiries.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inquiry)
}

// ListInquiries godoc
// @Summary List private event inquiries
// @Tags Events
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inquiries [get]
func (h *EventHandler) ListInquiries(c *gin.Context) {
	req := service.InquiryListRequest{
		Status:   strings.ToUpper(c.Query("status")),
		Category: strings.ToUpper(c.Query("category")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	inquiries, pagination, err := h.inquiries.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiries, pagination)
}

// UpdateInquiryStatus godoc
// @Summary Move an inquiry through the workflow
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{id}/status [put]
func (h *EventHandler) UpdateInquiryStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inquiry, err := h.inquiries.UpdateStatus(c.Request.Context(), c.Param("id"), models.InquiryStatus(strings.ToUpper(body.Status)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// UpdateRegistrationStatus godoc
// @Summary Update a registration's lifecycle state
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Success 204
// @Router /registrations/{id}/status [put]
func (h *EventHandler) UpdateRegistrationStatus(c *gin.Context) {
	var body struct {
		Status    string `json:"status" binding:"required"`
		PaidCents int    `json:"paid_cents"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.registrations.UpdateStatus(c.Request.Context(), c.Param("id"), models.ReservationStatus(strings.ToUpper(body.Status)), body.PaidCents); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
