package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/repository"
	"github.com/gti/mgmt-dashboard/internal/service"
)

type ToolHandler struct {
	tools *service.CalendarToolServer
}

func NewToolHandler(tools *service.CalendarToolServer) *ToolHandler {
	return &ToolHandler{tools: tools}
}

// ListTools returns the tool catalogue
// @Summary List calendar tools
// @Tags Tools
// @Produce json
// @Success 200 {array} service.Tool "Tools"
// @Router /api/tools [get]
func (h *ToolHandler) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tools.ListTools())
}

// ExecuteTool invokes a tool by name
// @Summary Execute a calendar tool
// @Description Dispatches to calendar.listEvents, calendar.getEvent, calendar.analyzeSchedule, calendar.getDailyInsights or calendar.generateMeetingPrep
// @Tags Tools
// @Accept json
// @Produce json
// @Param name path string true "Tool name"
// @Param request body models.ToolCallRequest false "Tool parameters"
// @Success 200 {object} models.ToolCallResponse "Tool result"
// @Failure 400 {object} models.ErrorResponse "Invalid parameters"
// @Failure 404 {object} models.ErrorResponse "Unknown tool or event"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/tools/{name} [post]
func (h *ToolHandler) ExecuteTool(c echo.Context) error {
	var req models.ToolCallRequest
	if err := c.Bind(&req); err != nil && !errors.Is(err, io.EOF) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	name := c.Param("name")
	result, err := h.tools.ExecuteTool(c.Request().Context(), name, req.Params)
	if err != nil {
		return c.JSON(toolErrorStatus(err), models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, models.ToolCallResponse{Tool: name, Result: result})
}

// ListResources returns the resource catalogue, or reads one when uri is given
// @Summary List or read calendar resources
// @Tags Tools
// @Produce json
// @Param uri query string false "Resource URI, e.g. calendar://insights/daily"
// @Success 200 {object} interface{} "Resource list or content"
// @Failure 404 {object} models.ErrorResponse "Unknown resource"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/resources [get]
func (h *ToolHandler) ListResources(c echo.Context) error {
	uri := c.QueryParam("uri")
	if uri == "" {
		return c.JSON(http.StatusOK, h.tools.ListResources())
	}

	content, err := h.tools.ReadResource(c.Request().Context(), uri)
	if err != nil {
		return c.JSON(toolErrorStatus(err), models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, content)
}

func toolErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrToolNotFound),
		errors.Is(err, service.ErrResourceNotFound),
		errors.Is(err, repository.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidParams):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
