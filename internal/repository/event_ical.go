package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/rs/zerolog"
	"github.com/teambition/rrule-go"

	"github.com/gti/mgmt-dashboard/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

var (
	meetingURLRe    = regexp.MustCompile(`https?://[^\s<>"{}|\\^[\]` + "`" + `]+`)
	nonAlphaNumRe   = regexp.MustCompile(`[^a-z0-9]+`)
	meetingURLHosts = []string{"zoom", "meet.google", "teams.microsoft", "webex", "gotomeeting"}
)

// recurrence expansion window used by GetEvent, which has no caller-supplied range
const (
	lookupPast   = 30 * 24 * time.Hour
	lookupFuture = 90 * 24 * time.Hour
)

// ICalEventRepository reads events from an iCalendar feed. The source is
// either an http(s) URL or a local file path; it is re-read on every call,
// callers put a cache in front.
type ICalEventRepository struct {
	source string
	client *http.Client
	loc    *time.Location
	logger zerolog.Logger
	now    func() time.Time
}

func NewICalEventRepository(source string, loc *time.Location, logger zerolog.Logger) *ICalEventRepository {
	if loc == nil {
		loc = time.Local
	}
	return &ICalEventRepository{
		source: source,
		client: &http.Client{Timeout: 30 * time.Second},
		loc:    loc,
		logger: logger.With().Str("component", "ical").Logger(),
		now:    time.Now,
	}
}

// ListEvents returns events starting in [timeMin, timeMax), recurring events
// expanded to single instances, sorted by start. maxResults <= 0 means no cap.
func (r *ICalEventRepository) ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) ([]models.CalendarEvent, error) {
	cals, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]models.CalendarEvent, 0)
	for _, cal := range cals {
		events = append(events, r.expandCalendar(cal, timeMin, timeMax)...)
	}

	return capEvents(filterWindow(events, timeMin, timeMax), maxResults), nil
}

// GetEvent finds an event by UID, or a recurrence instance by "<uid>-<RFC3339 start>"
func (r *ICalEventRepository) GetEvent(ctx context.Context, id string) (*models.CalendarEvent, error) {
	cals, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	for _, cal := range cals {
		for _, ev := range cal.Events() {
			uid, _ := ev.Props.Text(ical.PropUID)
			if uid == id {
				e := r.parseEvent(ev.Component)
				return &e, nil
			}
			if uid == "" || !strings.HasPrefix(id, uid+"-") {
				continue
			}
			for _, e := range r.expandEvent(ev.Component, now.Add(-lookupPast), now.Add(lookupFuture)) {
				if e.ID == id {
					return &e, nil
				}
			}
		}
	}

	return nil, ErrEventNotFound
}

func (r *ICalEventRepository) fetch(ctx context.Context) ([]*ical.Calendar, error) {
	body, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}

	cals, err := decodeCalendars(string(raw))
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("source", r.source).Int("calendars", len(cals)).Msg("calendar feed decoded")
	return cals, nil
}

func (r *ICalEventRepository) read(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(r.source, "http://") && !strings.HasPrefix(r.source, "https://") {
		f, err := os.Open(r.source)
		if err != nil {
			return nil, fmt.Errorf("failed to open calendar file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("calendar feed returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func decodeCalendars(body string) ([]*ical.Calendar, error) {
	trimmed := strings.TrimSpace(body)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return nil, fmt.Errorf("received HTML instead of iCalendar data - check if URL requires authentication")
	}
	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		preview := trimmed
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return nil, fmt.Errorf("invalid iCalendar format - expected BEGIN:VCALENDAR, got: %s", preview)
	}

	dec := ical.NewDecoder(strings.NewReader(body))
	cals := make([]*ical.Calendar, 0, 1)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}
		cals = append(cals, cal)
	}
	return cals, nil
}

func (r *ICalEventRepository) expandCalendar(cal *ical.Calendar, timeMin, timeMax time.Time) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0)
	seen := make(map[string]bool)

	for _, ev := range cal.Events() {
		for _, e := range r.expandEvent(ev.Component, timeMin, timeMax) {
			// RECURRENCE-ID overrides share the UID of their series
			key := e.ID + "|" + e.StartTime.Format(time.RFC3339)
			if seen[key] {
				continue
			}
			seen[key] = true
			events = append(events, e)
		}
	}
	return events
}

// expandEvent returns the event itself, or its instances within the window if it recurs
func (r *ICalEventRepository) expandEvent(comp *ical.Component, timeMin, timeMax time.Time) []models.CalendarEvent {
	base := r.parseEvent(comp)
	if base.StartTime.IsZero() || base.EndTime.IsZero() {
		r.logger.Debug().Str("title", base.Title).Msg("skipping event without start or end")
		return nil
	}

	if comp.Props.Get(ical.PropRecurrenceRule) == nil {
		return []models.CalendarEvent{base}
	}

	set, err := comp.RecurrenceSet(r.loc)
	if err != nil || set == nil {
		r.logger.Warn().Err(err).Str("title", base.Title).Msg("unsupported recurrence rule, using first occurrence")
		return []models.CalendarEvent{base}
	}

	return expandInstances(base, set, timeMin, timeMax)
}

func expandInstances(base models.CalendarEvent, set *rrule.Set, timeMin, timeMax time.Time) []models.CalendarEvent {
	duration := base.Duration()
	starts := set.Between(timeMin.Add(-duration), timeMax, true)

	out := make([]models.CalendarEvent, 0, len(starts))
	for _, start := range starts {
		instance := base
		instance.ID = base.ID + "-" + start.Format(time.RFC3339)
		instance.StartTime = start
		instance.EndTime = start.Add(duration)
		instance.Metadata = map[string]any{"recurringEventId": base.ID}
		for k, v := range base.Metadata {
			instance.Metadata[k] = v
		}
		out = append(out, instance)
	}
	return out
}

func (r *ICalEventRepository) parseEvent(comp *ical.Component) models.CalendarEvent {
	e := models.CalendarEvent{
		Attendees: make([]models.Attendee, 0),
		Status:    models.EventStatusConfirmed,
		Metadata:  map[string]any{},
	}

	e.ID, _ = comp.Props.Text(ical.PropUID)
	e.Title, _ = comp.Props.Text(ical.PropSummary)
	e.Description, _ = comp.Props.Text(ical.PropDescription)
	e.Location, _ = comp.Props.Text(ical.PropLocation)

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		if t, err := r.parseDateTime(prop); err == nil {
			e.StartTime = t
		}
	}
	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		if t, err := r.parseDateTime(prop); err == nil {
			e.EndTime = t
		}
	} else if !e.StartTime.IsZero() {
		ev := ical.Event{Component: comp}
		if t, err := ev.DateTimeEnd(r.loc); err == nil {
			e.EndTime = t
		}
	}

	if prop := comp.Props.Get(ical.PropStatus); prop != nil {
		e.Status = mapEventStatus(prop.Value)
	}
	// some providers only rename cancelled events
	if e.Status != models.EventStatusCancelled {
		clean := nonAlphaNumRe.ReplaceAllString(strings.ToLower(e.Title), "")
		if strings.HasPrefix(clean, "canceled") || strings.HasPrefix(clean, "cancelled") {
			e.Status = models.EventStatusCancelled
		}
	}

	for _, prop := range comp.Props.Values(ical.PropAttendee) {
		e.Attendees = append(e.Attendees, parseAttendee(prop))
	}
	if prop := comp.Props.Get(ical.PropOrganizer); prop != nil {
		org := parseAttendee(*prop)
		org.ResponseStatus = models.ResponseAccepted
		org.Organizer = true
		e.Organizer = &org
	}

	for _, prop := range comp.Props.Values(ical.PropRecurrenceRule) {
		e.Recurrence = append(e.Recurrence, "RRULE:"+prop.Value)
	}

	e.MeetingLink = extractMeetingLink(e.Description)
	if e.MeetingLink == "" {
		e.MeetingLink = extractMeetingLink(e.Location)
	}

	for _, prop := range comp.Props.Values(ical.PropAttach) {
		if prop.Value == "" {
			continue
		}
		e.Attachments = append(e.Attachments, models.Attachment{
			ID:       prop.Value,
			Title:    prop.Params.Get("FILENAME"),
			FileURL:  prop.Value,
			MimeType: prop.Params.Get(ical.ParamFormatType),
		})
	}

	e.Metadata["iCalUID"] = e.ID
	if prop := comp.Props.Get(ical.PropURL); prop != nil {
		e.Metadata["htmlLink"] = prop.Value
	}

	return e
}

// parseDateTime follows go-ical first, then common raw layouts
func (r *ICalEventRepository) parseDateTime(prop *ical.Prop) (time.Time, error) {
	if t, err := prop.DateTime(r.loc); err == nil {
		return t.In(r.loc), nil
	}

	layouts := []string{
		"20060102T150405",
		"20060102T150405Z",
		"20060102",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, prop.Value, r.loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", prop.Value)
}

func parseAttendee(prop ical.Prop) models.Attendee {
	email := prop.Value
	if len(email) > len("mailto:") && strings.EqualFold(email[:len("mailto:")], "mailto:") {
		email = email[len("mailto:"):]
	}

	return models.Attendee{
		Email:          email,
		Name:           prop.Params.Get(ical.ParamCommonName),
		ResponseStatus: mapPartStat(prop.Params.Get(ical.ParamParticipationStatus)),
		Optional:       strings.EqualFold(prop.Params.Get(ical.ParamRole), "OPT-PARTICIPANT"),
	}
}

func mapEventStatus(v string) models.EventStatus {
	switch strings.ToUpper(v) {
	case "TENTATIVE":
		return models.EventStatusTentative
	case "CANCELLED":
		return models.EventStatusCancelled
	}
	return models.EventStatusConfirmed
}

func mapPartStat(v string) models.ResponseStatus {
	switch strings.ToUpper(v) {
	case "ACCEPTED":
		return models.ResponseAccepted
	case "DECLINED":
		return models.ResponseDeclined
	case "TENTATIVE":
		return models.ResponseTentative
	}
	return models.ResponseNeedsAction
}

// extractMeetingLink prefers known conferencing hosts, then any URL
func extractMeetingLink(text string) string {
	matches := meetingURLRe.FindAllString(text, -1)
	for _, m := range matches {
		lower := strings.ToLower(m)
		for _, host := range meetingURLHosts {
			if strings.Contains(lower, host) {
				return m
			}
		}
	}
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func filterWindow(events []models.CalendarEvent, timeMin, timeMax time.Time) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.StartTime.Before(timeMin) || !e.StartTime.Before(timeMax) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func capEvents(events []models.CalendarEvent, maxResults int) []models.CalendarEvent {
	if maxResults > 0 && len(events) > maxResults {
		return events[:maxResults]
	}
	return events
}
