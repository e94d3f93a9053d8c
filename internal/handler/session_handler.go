package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glowpoint/studio-api/internal/dto"
	"github.com/glowpoint/studio-api/internal/models"
	"github.com/glowpoint/studio-api/internal/service"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
	"github.com/glowpoint/studio-api/pkg/response"
)

// SessionHandler exposes schedule endpoints.
type SessionHandler struct {
	sessions   *service.SessionService
	recurrence *service.RecurrenceService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService, recurrence *service.RecurrenceService) *SessionHandler {
	return &SessionHandler{sessions: sessions, recurrence: recurrence}
}

// List godoc
// @Summary List class sessions
// @Tags Sessions
// @Produce json
// @Param classTypeId query string false "Filter by class type"
// @Param level query string false "Filter by level"
// @Param instructorId query string false "Filter by instructor"
// @Param locationId query string false "Filter by location"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	req := service.SessionListRequest{
		ClassTypeID:  c.Query("classTypeId"),
		Level:        c.Query("level"),
		InstructorID: c.Query("instructorId"),
		LocationID:   c.Query("locationId"),
		DateFrom:     c.Query("from"),
		DateTo:       c.Query("to"),
		FutureOnly:   c.Query("from") == "" && c.Query("to") == "",
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	// Anonymous and member traffic only sees the published schedule.
	claims := claimsFromContext(c)
	if claims == nil || claims.Role == models.RoleMember {
		published := true
		req.Published = &published
	} else if v := c.Query("published"); v != "" {
		published := v == "true"
		req.Published = &published
	}

	sessions, pagination, err := h.sessions.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get one class session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	detail, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Schedule a class session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update a class session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.UpdateSessionRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req service.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete a class session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Generate godoc
// @Summary Project future occurrences from a recurring session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Seed session ID"
// @Param payload body dto.GenerateRecurrencesRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/generate [post]
func (h *SessionHandler) Generate(c *gin.Context) {
	var req dto.GenerateRecurrencesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	report, err := h.recurrence.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// GenerateBatch godoc
// @Summary Project occurrences for multiple seeds at once
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.BatchGenerateCommand true "Batch command"
// @Success 200 {object} response.Envelope
// @Router /recurrences/generate [post]
func (h *SessionHandler) GenerateBatch(c *gin.Context) {
	var cmd dto.BatchGenerateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.recurrence.GenerateBatch(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportCSV godoc
// @Summary Export the schedule as CSV
// @Tags Sessions
// @Produce text/csv
// @Success 200 {file} byte
// @Router /exports/sessions.csv [get]
func (h *SessionHandler) ExportCSV(c *gin.Context) {
	req := exportRequestFromQuery(c)
	out, err := h.sessions.ExportCSV(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}

// ExportPDF godoc
// @Summary Export the schedule as PDF
// @Tags Sessions
// @Produce application/pdf
// @Success 200 {file} byte
// @Router /exports/sessions.pdf [get]
func (h *SessionHandler) ExportPDF(c *gin.Context) {
	req := exportRequestFromQuery(c)
	out, err := h.sessions.ExportPDF(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}

func exportRequestFromQuery(c *gin.Context) service.SessionListRequest {
	published := true
	return service.SessionListRequest{
		ClassTypeID:  c.Query("classTypeId"),
		Level:        c.Query("level"),
		InstructorID: c.Query("instructorId"),
		LocationID:   c.Query("locationId"),
		DateFrom:     c.Query("from"),
		DateTo:       c.Query("to"),
		Published:    &published,
		FutureOnly:   c.Query("from") == "" && c.Query("to") == "",
	}
}
