//go:build e2e

package tests

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gti/mgmt-dashboard/e2e/helpers"
	"github.com/gti/mgmt-dashboard/e2e/testenv"
	"github.com/gti/mgmt-dashboard/internal/models"
)

func TestCalendar_ListAndGetEvents(t *testing.T) {
	a := helpers.NewAssert(t)

	resp, err := env.API.Call(http.MethodGet, "/api/calendar/events", nil)
	a.NoError(err)
	a.Status(resp, http.StatusOK)

	var events []models.CalendarEvent
	a.Decode(resp, &events)
	if a.Len(events, 3) {
		a.Equal(testenv.FixtureReviewUID, events[0].ID)
		a.Equal(testenv.FixtureSyncUID, events[1].ID)
		a.Equal(testenv.FixtureFocusUID, events[2].ID)
		a.Len(events[0].Attendees, 4)
		a.Equal("https://meet.example.com/vendor", events[1].MeetingLink)
	}

	resp, err = env.API.Call(http.MethodGet, "/api/calendar/events?maxResults=1", nil)
	a.NoError(err)
	a.Status(resp, http.StatusOK)
	a.Decode(resp, &events)
	a.Len(events, 1)

	resp, err = env.API.Call(http.MethodGet, "/api/calendar/events?maxResults=zero", nil)
	a.NoError(err)
	a.Status(resp, http.StatusBadRequest)

	resp, err = env.API.Call(http.MethodGet, "/api/calendar/events/"+testenv.FixtureReviewUID, nil)
	a.NoError(err)
	a.Status(resp, http.StatusOK)
	var event models.CalendarEvent
	a.Decode(resp, &event)
	a.Equal("Quarterly Budget Review", event.Title)

	resp, err = env.API.Call(http.MethodGet, "/api/calendar/events/missing@example.com", nil)
	a.NoError(err)
	a.Status(resp, http.StatusNotFound)
}

func TestCalendar_AnalyzeWeek(t *testing.T) {
	a := helpers.NewAssert(t)

	resp, err := env.API.Call(http.MethodPost, "/api/calendar/analyze", map[string]any{"timeRange": "week"})
	a.NoError(err)
	a.Status(resp, http.StatusOK)

	var analysis models.CalendarAnalysisResponse
	a.Decode(resp, &analysis)
	a.Equal(3, analysis.Summary.TotalEvents)
	a.Equal(1, analysis.Summary.ConflictCount, "review and sync overlap by 15 minutes")

	resp, err = env.API.Call(http.MethodPost, "/api/calendar/analyze", map[string]any{"timeRange": "fortnight"})
	a.NoError(err)
	a.Status(resp, http.StatusBadRequest)
}

func TestCalendar_MeetingPreparation(t *testing.T) {
	a := helpers.NewAssert(t)

	resp, err := env.API.Call(http.MethodGet, "/api/calendar/events/"+testenv.FixtureReviewUID+"/prep", nil)
	a.NoError(err)
	a.Status(resp, http.StatusOK)

	var prep models.MeetingPreparation
	a.Decode(resp, &prep)
	a.Equal(testenv.FixtureReviewUID, prep.EventID)
	a.Equal([]string{"Spend to date", "Forecast", "Hiring plan"}, prep.Agenda)
	a.Len(prep.AttendeeContext, 4)
	a.Contains(prep.Notes, "Quarterly Budget Review")
}

func TestCalendar_ToolsAndResources(t *testing.T) {
	a := helpers.NewAssert(t)

	resp, err := env.API.Call(http.MethodGet, "/api/tools", nil)
	a.NoError(err)
	a.Status(resp, http.StatusOK)
	a.Contains(resp.String(), "calendar.generateMeetingPrep")

	resp, err = env.API.Call(http.MethodPost, "/api/tools/calendar.listEvents", map[string]any{
		"params": map[string]any{"maxResults": 2},
	})
	a.NoError(err)
	a.Status(resp, http.StatusOK)
	var call struct {
		Tool   string                 `json:"tool"`
		Result []models.CalendarEvent `json:"result"`
	}
	a.Decode(resp, &call)
	a.Equal("calendar.listEvents", call.Tool)
	a.Len(call.Result, 2)

	resp, err = env.API.Call(http.MethodPost, "/api/tools/calendar.deleteEverything", nil)
	a.NoError(err)
	a.Status(resp, http.StatusNotFound)

	resp, err = env.API.Call(http.MethodPost, "/api/tools/calendar.getEvent", map[string]any{"params": map[string]any{}})
	a.NoError(err)
	a.Status(resp, http.StatusBadRequest)

	uri := url.QueryEscape("calendar://events/" + testenv.FixtureSyncUID)
	resp, err = env.API.Call(http.MethodGet, "/api/resources?uri="+uri, nil)
	a.NoError(err)
	a.Status(resp, http.StatusOK)
	a.Contains(resp.String(), "Vendor Sync")

	resp, err = env.API.Call(http.MethodGet, "/api/resources?uri="+url.QueryEscape("calendar://nowhere"), nil)
	a.NoError(err)
	a.Status(resp, http.StatusNotFound)
}

func TestCalendar_DailyInsightsUsesCache(t *testing.T) {
	if env.Redis == nil {
		t.Skip("redis disabled")
	}
	a := helpers.NewAssert(t)

	for range 2 {
		resp, err := env.API.Call(http.MethodGet, "/api/calendar/insights/daily", nil)
		a.NoError(err)
		a.Status(resp, http.StatusOK)
	}

	resp, err := env.API.Call(http.MethodGet, "/metrics", nil)
	a.NoError(err)
	a.Status(resp, http.StatusOK)
	a.Contains(resp.String(), `dashboard_event_cache_lookups_total{result="hit"}`)
}
