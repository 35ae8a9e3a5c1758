package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/gti/mgmt-dashboard/internal/metrics"
	"github.com/gti/mgmt-dashboard/internal/middleware"
	"github.com/gti/mgmt-dashboard/internal/service"
)

// Services holds everything the HTTP layer dispatches to
type Services struct {
	Calendar  *service.CalendarToolServer
	Decisions *service.DecisionEngine
	Metrics   *metrics.Metrics
	APIKey    string
	Logger    zerolog.Logger
}

// NewRouter builds the echo instance with every route registered.
// Reads are public; writes and rule management require x-api-key.
func NewRouter(s Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(middleware.RequestLogger(s.Logger))
	e.Use(middleware.Identity())

	calendarHandler := NewCalendarHandler(s.Calendar)
	toolHandler := NewToolHandler(s.Calendar)
	decisionHandler := NewDecisionHandler(s.Decisions)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}

	// Public API routes
	e.GET("/api/calendar/events", calendarHandler.ListEvents)
	e.GET("/api/calendar/events/:id", calendarHandler.GetEvent)
	e.GET("/api/calendar/events/:id/prep", calendarHandler.MeetingPreparation)
	e.GET("/api/calendar/insights/daily", calendarHandler.DailyInsights)
	e.POST("/api/calendar/analyze", calendarHandler.AnalyzeSchedule)

	e.GET("/api/tools", toolHandler.ListTools)
	e.POST("/api/tools/:name", toolHandler.ExecuteTool)
	e.GET("/api/resources", toolHandler.ListResources)

	e.GET("/api/decisions", decisionHandler.ListDecisions)
	e.GET("/api/decisions/history", decisionHandler.GetHistory)
	e.GET("/api/decisions/:id", decisionHandler.GetDecision)
	e.GET("/api/decisions/:id/history", decisionHandler.GetDecisionHistory)

	// Protected API routes (require x-api-key)
	apiProtected := e.Group("/api")
	apiProtected.Use(middleware.APIKeyAuth(s.APIKey))
	apiProtected.POST("/decisions", decisionHandler.CreateDecision)
	apiProtected.POST("/decisions/:id/approve", decisionHandler.ApproveDecision)
	apiProtected.POST("/decisions/:id/reject", decisionHandler.RejectDecision)
	apiProtected.POST("/decisions/:id/feedback", decisionHandler.ProvideFeedback)
	apiProtected.GET("/rules", decisionHandler.ListRules)
	apiProtected.POST("/rules", decisionHandler.CreateRule)
	apiProtected.DELETE("/rules/:id", decisionHandler.DeleteRule)

	// Swagger API documentation
	e.GET("/api/doc/*", echoSwagger.WrapHandler)

	return e
}
