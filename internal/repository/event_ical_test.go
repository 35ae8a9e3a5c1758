package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gti/mgmt-dashboard/internal/models"
)

var icalFixture = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//Example Corp//Calendar//EN",
	"BEGIN:VEVENT",
	"UID:standup@example.com",
	"DTSTAMP:20250601T000000Z",
	"SUMMARY:Team Standup",
	"DTSTART:20250602T090000Z",
	"DTEND:20250602T091500Z",
	"RRULE:FREQ=DAILY;COUNT=3",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:review@example.com",
	"DTSTAMP:20250601T000000Z",
	"SUMMARY:Q2 Planning Review",
	"DESCRIPTION:Notes at https://docs.example.com/q2 and dial in https://zoom.us/j/123",
	"LOCATION:Board room",
	"DTSTART:20250602T140000Z",
	"DTEND:20250602T144500Z",
	"STATUS:TENTATIVE",
	"ORGANIZER;CN=Dana Reyes:mailto:dana@example.com",
	"ATTENDEE;CN=Dana Reyes;PARTSTAT=ACCEPTED:mailto:dana@example.com",
	"ATTENDEE;PARTSTAT=DECLINED;ROLE=OPT-PARTICIPANT:mailto:lee@example.com",
	"URL:https://calendar.example.com/review",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:vendor@example.com",
	"DTSTAMP:20250601T000000Z",
	"SUMMARY:Canceled: Vendor call",
	"DTSTART:20250604T100000Z",
	"DTEND:20250604T103000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:focus@example.com",
	"DTSTAMP:20250601T000000Z",
	"SUMMARY:Focus block",
	"DTSTART:20250605T100000Z",
	"DURATION:PT30M",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.ics")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFixtureRepo(t *testing.T) *ICalEventRepository {
	t.Helper()
	r := NewICalEventRepository(writeFixture(t, icalFixture), time.UTC, zerolog.Nop())
	r.now = func() time.Time { return time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC) }
	return r
}

func TestICalEventRepository_ListEvents(t *testing.T) {
	r := newFixtureRepo(t)
	timeMin := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	timeMax := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	events, err := r.ListEvents(context.Background(), timeMin, timeMax, 0)
	require.NoError(t, err)

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{
		"standup@example.com-2025-06-02T09:00:00Z",
		"review@example.com",
		"standup@example.com-2025-06-03T09:00:00Z",
		"standup@example.com-2025-06-04T09:00:00Z",
		"vendor@example.com",
		"focus@example.com",
	}, ids)

	standup := events[0]
	assert.Equal(t, 15*time.Minute, standup.Duration())
	assert.Equal(t, "standup@example.com", standup.Metadata["recurringEventId"])
	assert.Equal(t, []string{"RRULE:FREQ=DAILY;COUNT=3"}, standup.Recurrence)

	review := events[1]
	assert.Equal(t, "Q2 Planning Review", review.Title)
	assert.Equal(t, "Board room", review.Location)
	assert.Equal(t, models.EventStatusTentative, review.Status)
	assert.Equal(t, "https://zoom.us/j/123", review.MeetingLink)
	assert.Equal(t, "https://calendar.example.com/review", review.Metadata["htmlLink"])
	require.Len(t, review.Attendees, 2)
	assert.Equal(t, models.Attendee{Email: "dana@example.com", Name: "Dana Reyes", ResponseStatus: models.ResponseAccepted}, review.Attendees[0])
	assert.Equal(t, models.ResponseDeclined, review.Attendees[1].ResponseStatus)
	assert.True(t, review.Attendees[1].Optional)
	require.NotNil(t, review.Organizer)
	assert.True(t, review.Organizer.Organizer)
	assert.Equal(t, "dana@example.com", review.Organizer.Email)

	assert.Equal(t, models.EventStatusCancelled, events[4].Status, "cancelled by title")
	assert.Equal(t, 30*time.Minute, events[5].Duration(), "end derived from DURATION")
}

func TestICalEventRepository_ListEventsWindowAndCap(t *testing.T) {
	r := newFixtureRepo(t)
	timeMin := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	timeMax := time.Date(2025, time.June, 4, 9, 0, 0, 0, time.UTC)

	events, err := r.ListEvents(context.Background(), timeMin, timeMax, 0)
	require.NoError(t, err)
	require.Len(t, events, 1, "timeMax is exclusive")
	assert.Equal(t, "standup@example.com-2025-06-03T09:00:00Z", events[0].ID)

	capped, err := r.ListEvents(context.Background(), time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestICalEventRepository_GetEvent(t *testing.T) {
	r := newFixtureRepo(t)
	ctx := context.Background()

	e, err := r.GetEvent(ctx, "review@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Q2 Planning Review", e.Title)

	instance, err := r.GetEvent(ctx, "standup@example.com-2025-06-03T09:00:00Z")
	require.NoError(t, err)
	assert.True(t, instance.StartTime.Equal(time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)))

	_, err = r.GetEvent(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = r.GetEvent(ctx, "standup@example.com-2026-01-01T09:00:00Z")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestICalEventRepository_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.ics":
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = w.Write([]byte(icalFixture))
		case "/login":
			_, _ = w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	timeMin := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	timeMax := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	events, err := NewICalEventRepository(srv.URL+"/feed.ics", time.UTC, zerolog.Nop()).ListEvents(ctx, timeMin, timeMax, 0)
	require.NoError(t, err)
	assert.Len(t, events, 6)

	_, err = NewICalEventRepository(srv.URL+"/login", time.UTC, zerolog.Nop()).ListEvents(ctx, timeMin, timeMax, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "received HTML")

	_, err = NewICalEventRepository(srv.URL+"/missing.ics", time.UTC, zerolog.Nop()).ListEvents(ctx, timeMin, timeMax, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestICalEventRepository_InvalidSources(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	_, err := NewICalEventRepository(filepath.Join(t.TempDir(), "absent.ics"), time.UTC, zerolog.Nop()).ListEvents(ctx, now, now.Add(time.Hour), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open calendar file")

	path := writeFixture(t, "just some text")
	_, err = NewICalEventRepository(path, time.UTC, zerolog.Nop()).ListEvents(ctx, now, now.Add(time.Hour), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected BEGIN:VCALENDAR")
}

func TestExtractMeetingLink(t *testing.T) {
	assert.Equal(t, "https://teams.microsoft.com/l/meetup", extractMeetingLink("Doc https://wiki.example.com then https://teams.microsoft.com/l/meetup"))
	assert.Equal(t, "https://wiki.example.com/page", extractMeetingLink("See https://wiki.example.com/page"))
	assert.Empty(t, extractMeetingLink("No links here"))
}

func TestMapStatuses(t *testing.T) {
	assert.Equal(t, models.EventStatusCancelled, mapEventStatus("cancelled"))
	assert.Equal(t, models.EventStatusConfirmed, mapEventStatus(""))
	assert.Equal(t, models.ResponseTentative, mapPartStat("TENTATIVE"))
	assert.Equal(t, models.ResponseNeedsAction, mapPartStat("NEEDS-ACTION"))
}
