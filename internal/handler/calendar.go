package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/gti/mgmt-dashboard/internal/middleware"
	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/repository"
	"github.com/gti/mgmt-dashboard/internal/service"
)

type CalendarHandler struct {
	tools    *service.CalendarToolServer
	validate *validator.Validate
}

func NewCalendarHandler(tools *service.CalendarToolServer) *CalendarHandler {
	return &CalendarHandler{
		tools:    tools,
		validate: validator.New(),
	}
}

// ListEvents returns events in a time window
// @Summary List calendar events
// @Description Returns events starting within [timeMin, timeMax), sorted by start time
// @Tags Calendar
// @Produce json
// @Param timeMin query string false "Window start (RFC 3339), defaults to now"
// @Param timeMax query string false "Window end (RFC 3339), defaults to 7 days after timeMin"
// @Param maxResults query int false "Maximum number of events (default 10)"
// @Success 200 {array} models.CalendarEvent "Events"
// @Failure 400 {object} models.ErrorResponse "Invalid query"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/calendar/events [get]
func (h *CalendarHandler) ListEvents(c echo.Context) error {
	timeMin := time.Now()
	if raw := c.QueryParam("timeMin"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid timeMin, use RFC 3339"})
		}
		timeMin = t
	}

	timeMax := timeMin.AddDate(0, 0, 7)
	if raw := c.QueryParam("timeMax"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid timeMax, use RFC 3339"})
		}
		timeMax = t
	}

	maxResults := 10
	if raw := c.QueryParam("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "maxResults must be a positive integer"})
		}
		maxResults = n
	}

	events, err := h.tools.ListEvents(c.Request().Context(), timeMin, timeMax, maxResults)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, events)
}

// GetEvent returns a single event
// @Summary Get a calendar event
// @Tags Calendar
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.CalendarEvent "Event"
// @Failure 404 {object} models.ErrorResponse "Event not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/calendar/events/{id} [get]
func (h *CalendarHandler) GetEvent(c echo.Context) error {
	event, err := h.tools.GetEvent(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrEventNotFound) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "event not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, event)
}

// MeetingPreparation builds preparation material for an event
// @Summary Generate meeting preparation
// @Description Extracts the agenda, builds a notes template and attendee context
// @Tags Calendar
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.MeetingPreparation "Preparation material"
// @Failure 404 {object} models.ErrorResponse "Event not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/calendar/events/{id}/prep [get]
func (h *CalendarHandler) MeetingPreparation(c echo.Context) error {
	prep, err := h.tools.MeetingPreparation(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrEventNotFound) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "event not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, prep)
}

// DailyInsights summarises today's calendar
// @Summary Daily calendar insights
// @Description Today's meetings plus conflicts and preparation tasks over the next 30 days
// @Tags Calendar
// @Produce json
// @Success 200 {object} models.DailyInsights "Daily insights"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/calendar/insights/daily [get]
func (h *CalendarHandler) DailyInsights(c echo.Context) error {
	daily, err := h.tools.DailyInsights(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, daily)
}

// AnalyzeSchedule analyses the caller's schedule
// @Summary Analyze schedule
// @Description Busy time, conflicts, preparation needs and recommendations for a time range. userId falls back to the x-user-id header.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param request body models.CalendarAnalysisRequest true "Analysis request"
// @Success 200 {object} models.CalendarAnalysisResponse "Analysis"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/calendar/analyze [post]
func (h *CalendarHandler) AnalyzeSchedule(c echo.Context) error {
	var req models.CalendarAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}
	if req.UserID == "" {
		req.UserID = middleware.GetUserID(c)
	}

	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	}

	resp, err := h.tools.AnalyzeSchedule(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}
