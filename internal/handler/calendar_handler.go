package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glowpoint/studio-api/internal/service"
	"github.com/glowpoint/studio-api/pkg/response"
)

// CalendarHandler serves the public calendar feed.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// Feed godoc
// @Summary Calendar feed of published sessions
// @Tags Calendar
// @Produce json
// @Param start query string false "Start date (YYYY-MM-DD)"
// @Param end query string false "End date (YYYY-MM-DD)"
// @Success 200 {array} models.CalendarEntry
// @Router /calendar/feed [get]
func (h *CalendarHandler) Feed(c *gin.Context) {
	entries, err := h.calendar.Feed(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// Calendar widgets expect a bare JSON array, not the response envelope.
	c.JSON(http.StatusOK, entries)
}
