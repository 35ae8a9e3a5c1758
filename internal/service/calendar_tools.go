package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gti/mgmt-dashboard/internal/cache"
	"github.com/gti/mgmt-dashboard/internal/metrics"
	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/repository"
)

var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalidParams    = errors.New("invalid tool parameters")
)

const (
	ToolListEvents      = "calendar.listEvents"
	ToolGetEvent        = "calendar.getEvent"
	ToolAnalyzeSchedule = "calendar.analyzeSchedule"
	ToolDailyInsights   = "calendar.getDailyInsights"
	ToolMeetingPrep     = "calendar.generateMeetingPrep"

	ResourceUpcomingEvents = "calendar://events/upcoming"
	ResourceEvent          = "calendar://events/{eventId}"
	ResourceDailyInsights  = "calendar://insights/daily"
)

const (
	defaultMaxResults = 10
	analysisWindow    = 30 * 24 * time.Hour
	analysisMaxEvents = 100
	upcomingWindow    = 7 * 24 * time.Hour
	upcomingMaxEvents = 50
	analysisCacheKey  = "analysis-window"
)

// EventSource supplies calendar events. GetEvent returns
// repository.ErrEventNotFound for unknown ids.
type EventSource interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) ([]models.CalendarEvent, error)
	GetEvent(ctx context.Context, id string) (*models.CalendarEvent, error)
}

// ToolParameter describes one argument of a tool
type ToolParameter struct {
	Type   string   `json:"type"`
	Format string   `json:"format,omitempty"`
	Enum   []string `json:"enum,omitempty"`
}

// ToolSchema is the JSON-schema-like parameter contract of a tool
type ToolSchema struct {
	Type       string                   `json:"type"`
	Properties map[string]ToolParameter `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

// Tool is a named operation callable through ExecuteTool
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  ToolSchema `json:"parameters"`

	execute func(ctx context.Context, params map[string]any) (any, error)
}

// Resource is a readable document addressed by URI
type Resource struct {
	URI         string `json:"uri"`
	ContentType string `json:"contentType"`
	Description string `json:"description"`

	read func(ctx context.Context, uri string) (any, error)
}

// CalendarToolServer exposes calendar operations as a dispatch table of
// tools and resources. Analysis tools work on a cached 30-day event window.
type CalendarToolServer struct {
	events    EventSource
	cache     cache.EventCache
	intel     *CalendarIntelligence
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
	tools     []Tool
	resources []Resource
}

func NewCalendarToolServer(
	events EventSource,
	eventCache cache.EventCache,
	intel *CalendarIntelligence,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *CalendarToolServer {
	s := &CalendarToolServer{
		events:  events,
		cache:   eventCache,
		intel:   intel,
		metrics: m,
		logger:  logger.With().Str("component", "calendar_tools").Logger(),
		now:     intel.now,
	}
	s.registerTools()
	s.registerResources()
	return s
}

func (s *CalendarToolServer) registerTools() {
	s.tools = []Tool{
		{
			Name:        ToolListEvents,
			Description: "Lists calendar events within a specified time range",
			Parameters: ToolSchema{
				Type: "object",
				Properties: map[string]ToolParameter{
					"timeMin":    {Type: "string", Format: "date-time"},
					"timeMax":    {Type: "string", Format: "date-time"},
					"maxResults": {Type: "integer"},
				},
				Required: []string{"timeMin", "timeMax"},
			},
			execute: func(ctx context.Context, params map[string]any) (any, error) {
				timeMin, err := timeParam(params, "timeMin")
				if err != nil {
					return nil, err
				}
				timeMax, err := timeParam(params, "timeMax")
				if err != nil {
					return nil, err
				}
				maxResults, err := intParam(params, "maxResults", defaultMaxResults)
				if err != nil {
					return nil, err
				}
				return s.ListEvents(ctx, timeMin, timeMax, maxResults)
			},
		},
		{
			Name:        ToolGetEvent,
			Description: "Gets a specific calendar event by ID",
			Parameters: ToolSchema{
				Type:       "object",
				Properties: map[string]ToolParameter{"eventId": {Type: "string"}},
				Required:   []string{"eventId"},
			},
			execute: func(ctx context.Context, params map[string]any) (any, error) {
				id, err := requiredString(params, "eventId")
				if err != nil {
					return nil, err
				}
				event, err := s.GetEvent(ctx, id)
				if errors.Is(err, repository.ErrEventNotFound) {
					return nil, nil
				}
				return event, err
			},
		},
		{
			Name:        ToolAnalyzeSchedule,
			Description: "Analyzes the user's schedule to identify conflicts, changes, and important events",
			Parameters: ToolSchema{
				Type: "object",
				Properties: map[string]ToolParameter{
					"timeRange":              {Type: "string", Enum: []string{"today", "tomorrow", "week", "month"}},
					"userId":                 {Type: "string"},
					"includeDeclinedEvents":  {Type: "boolean"},
					"includeCancelledEvents": {Type: "boolean"},
				},
				Required: []string{"timeRange", "userId"},
			},
			execute: func(ctx context.Context, params map[string]any) (any, error) {
				timeRange, err := requiredString(params, "timeRange")
				if err != nil {
					return nil, err
				}
				userID, err := requiredString(params, "userId")
				if err != nil {
					return nil, err
				}
				return s.AnalyzeSchedule(ctx, models.CalendarAnalysisRequest{
					TimeRange:              models.TimeRange(timeRange),
					UserID:                 userID,
					IncludeDeclinedEvents:  boolParam(params, "includeDeclinedEvents"),
					IncludeCancelledEvents: boolParam(params, "includeCancelledEvents"),
				})
			},
		},
		{
			Name:        ToolDailyInsights,
			Description: "Generates insights for the current day's calendar",
			Parameters:  ToolSchema{Type: "object", Properties: map[string]ToolParameter{}},
			execute: func(ctx context.Context, _ map[string]any) (any, error) {
				return s.DailyInsights(ctx)
			},
		},
		{
			Name:        ToolMeetingPrep,
			Description: "Generates preparation materials for an upcoming meeting",
			Parameters: ToolSchema{
				Type: "object",
				Properties: map[string]ToolParameter{
					"eventId":  {Type: "string"},
					"prepType": {Type: "string", Enum: []string{"agenda", "notes", "summary", "action-items"}},
				},
				Required: []string{"eventId"},
			},
			execute: func(ctx context.Context, params map[string]any) (any, error) {
				id, err := requiredString(params, "eventId")
				if err != nil {
					return nil, err
				}
				return s.MeetingPreparation(ctx, id)
			},
		},
	}
}

func (s *CalendarToolServer) registerResources() {
	s.resources = []Resource{
		{
			URI:         ResourceUpcomingEvents,
			ContentType: "application/json",
			Description: "Upcoming calendar events",
			read: func(ctx context.Context, _ string) (any, error) {
				now := s.now()
				return s.ListEvents(ctx, now, now.Add(upcomingWindow), upcomingMaxEvents)
			},
		},
		{
			URI:         ResourceEvent,
			ContentType: "application/json",
			Description: "Specific calendar event details",
			read: func(ctx context.Context, uri string) (any, error) {
				id := strings.TrimPrefix(uri, "calendar://events/")
				event, err := s.GetEvent(ctx, id)
				if errors.Is(err, repository.ErrEventNotFound) {
					return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
				}
				return event, err
			},
		},
		{
			URI:         ResourceDailyInsights,
			ContentType: "application/json",
			Description: "Daily calendar insights and alerts",
			read: func(ctx context.Context, _ string) (any, error) {
				return s.DailyInsights(ctx)
			},
		},
	}
}

// ListTools returns the tool catalogue
func (s *CalendarToolServer) ListTools() []Tool {
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// ListResources returns the resource catalogue
func (s *CalendarToolServer) ListResources() []Resource {
	out := make([]Resource, len(s.resources))
	copy(out, s.resources)
	return out
}

// ExecuteTool runs a tool by name
func (s *CalendarToolServer) ExecuteTool(ctx context.Context, name string, params map[string]any) (any, error) {
	var tool *Tool
	for i := range s.tools {
		if s.tools[i].Name == name {
			tool = &s.tools[i]
			break
		}
	}
	if tool == nil {
		s.metrics.RecordToolCall("unknown", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := tool.execute(ctx, params)
	if err != nil {
		s.metrics.RecordToolCall(name, "error")
		s.logger.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		return nil, err
	}
	s.metrics.RecordToolCall(name, "ok")
	return result, nil
}

// ReadResource reads a resource by URI. calendar://events/<id> resolves the
// event template.
func (s *CalendarToolServer) ReadResource(ctx context.Context, uri string) (any, error) {
	for _, r := range s.resources {
		if r.URI == uri {
			return r.read(ctx, uri)
		}
	}

	if id, ok := strings.CutPrefix(uri, "calendar://events/"); ok && id != "" && !strings.Contains(id, "/") {
		for _, r := range s.resources {
			if r.URI == ResourceEvent {
				return r.read(ctx, uri)
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
}

// ListEvents reads events straight from the source
func (s *CalendarToolServer) ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) ([]models.CalendarEvent, error) {
	events, err := s.events.ListEvents(ctx, timeMin, timeMax, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent returns repository.ErrEventNotFound when the id is unknown
func (s *CalendarToolServer) GetEvent(ctx context.Context, id string) (*models.CalendarEvent, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// AnalyzeSchedule analyses the cached window for the requesting user
func (s *CalendarToolServer) AnalyzeSchedule(ctx context.Context, req models.CalendarAnalysisRequest) (*models.CalendarAnalysisResponse, error) {
	events, err := s.analysisEvents(ctx)
	if err != nil {
		return nil, err
	}
	resp := s.intel.AnalyzeSchedule(req, events)
	s.recordInsights(resp.Insights)
	return resp, nil
}

// DailyInsights summarises today over the cached window
func (s *CalendarToolServer) DailyInsights(ctx context.Context) (*models.DailyInsights, error) {
	events, err := s.analysisEvents(ctx)
	if err != nil {
		return nil, err
	}
	return s.intel.GenerateDailyInsights(events), nil
}

// MeetingPreparation builds preparation material for one event
func (s *CalendarToolServer) MeetingPreparation(ctx context.Context, eventID string) (*models.MeetingPreparation, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, fmt.Errorf("event with ID %s: %w", eventID, err)
		}
		return nil, err
	}
	return s.intel.GenerateMeetingPreparation(*event), nil
}

// analysisEvents returns the next 30 days of events, cached for the cache TTL.
// An empty window is never served from cache.
func (s *CalendarToolServer) analysisEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	if s.cache != nil {
		if events, ok := s.cache.Get(ctx, analysisCacheKey); ok && len(events) > 0 {
			s.metrics.RecordCacheLookup(true)
			return events, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	now := s.now()
	events, err := s.events.ListEvents(ctx, now, now.Add(analysisWindow), analysisMaxEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, analysisCacheKey, events); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache calendar events")
		}
	}
	return events, nil
}

// InvalidateCache drops the cached analysis window
func (s *CalendarToolServer) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, analysisCacheKey)
}

func (s *CalendarToolServer) recordInsights(insights []models.CalendarInsight) {
	for _, in := range insights {
		s.metrics.RecordInsight(string(in.Type))
	}
}

func requiredString(params map[string]any, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	return v, nil
}

func timeParam(params map[string]any, key string) (time.Time, error) {
	raw, err := requiredString(params, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 date-time", ErrInvalidParams, key)
	}
	return t, nil
}

// intParam accepts JSON numbers and numeric strings
func intParam(params map[string]any, key string, def int) (int, error) {
	switch v := params[key].(type) {
	case nil:
		return def, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidParams, key)
		}
		return n, nil
	}
	if f, ok := toFloat(params[key]); ok {
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidParams, key)
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}
