package service

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gti/mgmt-dashboard/internal/models"
)

const (
	prepLookahead          = 24 * time.Hour
	minConflictOverlap     = 5.0  // minutes
	backToBackBuffer       = 15.0 // minutes
	workdayHours           = 8
	meetingOverloadPercent = 70
)

var preparationKeywords = []string{
	"review", "discuss", "planning", "strategy", "decision",
	"presentation", "report", "update", "sync", "alignment",
	"interview", "evaluation", "assessment", "quarterly", "annual",
}

var criticalKeywords = []string{
	"urgent", "critical", "emergency", "important", "priority",
	"deadline", "review", "decision", "approval", "executive",
}

var (
	agendaMarkerRe = regexp.MustCompile(`(?i)agenda:?\s*(.*)$`)
	bulletLineRe   = regexp.MustCompile(`^\s*(?:[-*]|\d+\.)\s*(.+?)\s*$`)
)

// CalendarIntelligence turns calendar events into insights, daily summaries,
// schedule analyses and meeting preparation material. It holds no state
// besides its clock and location, so identical inputs yield identical results.
type CalendarIntelligence struct {
	now func() time.Time
	loc *time.Location
}

// CalendarOption configures a CalendarIntelligence
type CalendarOption func(*CalendarIntelligence)

// WithClock overrides the time source
func WithClock(now func() time.Time) CalendarOption {
	return func(c *CalendarIntelligence) {
		c.now = now
	}
}

// WithLocation sets the location used for day boundaries and display formatting
func WithLocation(loc *time.Location) CalendarOption {
	return func(c *CalendarIntelligence) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func NewCalendarIntelligence(opts ...CalendarOption) *CalendarIntelligence {
	c := &CalendarIntelligence{
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeEvents runs preparation, conflict and change detection over events
func (c *CalendarIntelligence) AnalyzeEvents(events []models.CalendarEvent) []models.CalendarInsight {
	now := c.now()
	insights := make([]models.CalendarInsight, 0)

	insights = append(insights, c.identifyMeetingsNeedingPreparation(events, now)...)
	insights = append(insights, c.detectScheduleConflicts(events, now)...)
	insights = append(insights, c.identifyRecentChanges(events)...)

	return insights
}

// GenerateDailyInsights summarises today's meetings. Conflicts and preparation
// needs are evaluated over the full event list so cross-day overlaps are kept.
func (c *CalendarIntelligence) GenerateDailyInsights(events []models.CalendarEvent) *models.DailyInsights {
	now := c.now().In(c.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	tomorrow := today.AddDate(0, 0, 1)

	todayEvents := make([]models.CalendarEvent, 0)
	for _, e := range events {
		if !e.StartTime.Before(today) && e.StartTime.Before(tomorrow) {
			todayEvents = append(todayEvents, e)
		}
	}
	sortByStart(todayEvents)

	insights := c.AnalyzeEvents(events)

	daily := &models.DailyInsights{
		Date:             today.Format("2006-01-02"),
		UpcomingMeetings: make([]models.UpcomingMeeting, 0, len(todayEvents)),
		Conflicts:        make([]models.ConflictSummary, 0),
		Changes:          make([]models.ChangeSummary, 0),
		PreparationTasks: make([]models.PreparationTask, 0),
	}

	for _, in := range insights {
		switch in.Type {
		case models.InsightConflict:
			resolution, _ := in.Metadata["suggestedResolution"].(string)
			daily.Conflicts = append(daily.Conflicts, models.ConflictSummary{
				ID:                  in.ID,
				Description:         in.Description,
				EventIDs:            slices.Clone(in.RelatedEventIDs),
				SuggestedResolution: resolution,
			})
		case models.InsightChange:
			changeType, _ := in.Metadata["changeType"].(string)
			if changeType == "" {
				changeType = "time"
			}
			daily.Changes = append(daily.Changes, models.ChangeSummary{
				ID:          in.ID,
				Description: in.Description,
				EventID:     in.RelatedEventIDs[0],
				ChangeType:  changeType,
			})
		case models.InsightPreparationNeeded:
			dueBy, _ := in.Metadata["dueBy"].(time.Time)
			daily.PreparationTasks = append(daily.PreparationTasks, models.PreparationTask{
				ID:          in.ID,
				EventID:     in.RelatedEventIDs[0],
				Title:       in.Title,
				Description: in.Description,
				DueBy:       dueBy,
			})
		}
	}

	for _, e := range todayEvents {
		meeting := models.UpcomingMeeting{
			ID:        e.ID,
			Title:     e.Title,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
		}
		if prep := findPreparationInsight(insights, e.ID); prep != nil {
			meeting.NeedsPreparation = true
			meeting.PreparationItems, _ = prep.Metadata["preparationItems"].([]string)
		}
		daily.UpcomingMeetings = append(daily.UpcomingMeetings, meeting)
	}

	return daily
}

// AnalyzeSchedule analyses the requester's events within the requested window
func (c *CalendarIntelligence) AnalyzeSchedule(req models.CalendarAnalysisRequest, events []models.CalendarEvent) *models.CalendarAnalysisResponse {
	now := c.now().In(c.loc)
	endDate := c.resolveWindowEnd(req.TimeRange, now)

	filtered := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.StartTime.Before(now) || e.StartTime.After(endDate) {
			continue
		}
		if !req.IncludeDeclinedEvents && declinedBy(e, req.UserID) {
			continue
		}
		if !req.IncludeCancelledEvents && e.Status == models.EventStatusCancelled {
			continue
		}
		filtered = append(filtered, e)
	}

	insights := c.AnalyzeEvents(filtered)

	var totalMeetingHours float64
	for _, e := range filtered {
		totalMeetingHours += e.Duration().Hours()
	}

	workHours := float64(workdaysBetween(now, endDate) * workdayHours)
	var busyPercent float64
	if workHours > 0 {
		busyPercent = totalMeetingHours / workHours * 100
	}

	return &models.CalendarAnalysisResponse{
		TimeRange: models.AnalysisWindow{Start: now, End: endDate},
		Summary: models.AnalysisSummary{
			TotalEvents:         len(filtered),
			TotalMeetingHours:   totalMeetingHours,
			BusyHoursPercentage: busyPercent,
			ConflictCount:       countInsights(insights, models.InsightConflict),
			// Deadlines need a task source; none is wired to the analyzer.
			UpcomingDeadlines: 0,
		},
		Insights:        insights,
		Recommendations: c.generateRecommendations(insights, filtered, busyPercent),
	}
}

// GenerateMeetingPreparation builds an agenda, a notes template and attendee context
func (c *CalendarIntelligence) GenerateMeetingPreparation(event models.CalendarEvent) *models.MeetingPreparation {
	attendees := make([]models.AttendeeContext, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		attendees = append(attendees, models.AttendeeContext{
			AttendeeID:              a.Email,
			Name:                    a.DisplayName(),
			Notes:                   "",
			PreviousMeetingOutcomes: []string{},
		})
	}

	return &models.MeetingPreparation{
		EventID:           event.ID,
		Title:             "Preparation for: " + event.Title,
		Agenda:            extractAgenda(event.Description),
		Notes:             c.meetingNotesTemplate(event),
		ActionItems:       []string{},
		RelevantDocuments: []models.RelevantDocument{},
		AttendeeContext:   attendees,
	}
}

func (c *CalendarIntelligence) resolveWindowEnd(r models.TimeRange, now time.Time) time.Time {
	switch r {
	case models.TimeRangeToday:
		return endOfDay(now)
	case models.TimeRangeTomorrow:
		return endOfDay(now.AddDate(0, 0, 1))
	case models.TimeRangeMonth:
		return now.AddDate(0, 1, 0)
	default:
		return now.AddDate(0, 0, 7)
	}
}

func (c *CalendarIntelligence) identifyMeetingsNeedingPreparation(events []models.CalendarEvent, now time.Time) []models.CalendarInsight {
	insights := make([]models.CalendarInsight, 0)

	for _, e := range events {
		until := e.StartTime.Sub(now)
		if until <= 0 || until > prepLookahead {
			continue
		}
		if !needsPreparation(e) {
			continue
		}

		expires := e.StartTime
		insights = append(insights, models.CalendarInsight{
			ID:              "prep-" + e.ID,
			Type:            models.InsightPreparationNeeded,
			Title:           "Prepare for: " + e.Title,
			Description:     fmt.Sprintf("You have a meeting %q at %s that requires preparation.", e.Title, e.StartTime.In(c.loc).Format("3:04 PM")),
			Priority:        meetingPriority(e),
			RelatedEventIDs: []string{e.ID},
			CreatedAt:       now,
			ExpiresAt:       &expires,
			Actions: []models.InsightAction{{
				ID:         "prepare-" + e.ID,
				Label:      "Prepare Now",
				ActionType: "prepare",
				Data:       map[string]any{"eventId": e.ID},
			}},
			Metadata: map[string]any{
				"preparationItems": preparationItems(e),
				"dueBy":            e.StartTime,
			},
		})
	}

	return insights
}

// detectScheduleConflicts reports at most one conflict per event: once an
// overlap above the threshold is found for an event, later candidates are not checked.
func (c *CalendarIntelligence) detectScheduleConflicts(events []models.CalendarEvent, now time.Time) []models.CalendarInsight {
	insights := make([]models.CalendarInsight, 0)

	sorted := slices.Clone(events)
	sortByStart(sorted)

	for i := 0; i < len(sorted)-1; i++ {
		first := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			second := sorted[j]
			if !second.StartTime.Before(first.EndTime) {
				// Sorted by start, so nothing later overlaps either
				break
			}

			overlapStart := later(first.StartTime, second.StartTime)
			overlapEnd := earlier(first.EndTime, second.EndTime)
			overlapMinutes := overlapEnd.Sub(overlapStart).Minutes()
			if overlapMinutes <= minConflictOverlap {
				continue
			}

			expires := first.StartTime
			pair := first.ID + "-" + second.ID
			insights = append(insights, models.CalendarInsight{
				ID:          "conflict-" + pair,
				Type:        models.InsightConflict,
				Title:       "Schedule Conflict",
				Description: fmt.Sprintf("You have a scheduling conflict between %q and %q on %s.", first.Title, second.Title, first.StartTime.In(c.loc).Format("Jan 2, 2006")),
				Priority:    models.PriorityHigh,
				RelatedEventIDs: []string{
					first.ID, second.ID,
				},
				CreatedAt: now,
				ExpiresAt: &expires,
				Actions: []models.InsightAction{{
					ID:         "resolve-" + pair,
					Label:      "Resolve Conflict",
					ActionType: "reschedule",
					Data:       map[string]any{"eventIds": []string{first.ID, second.ID}},
				}},
				Metadata: map[string]any{
					"overlapMinutes":      overlapMinutes,
					"suggestedResolution": suggestConflictResolution(first, second),
				},
			})
			break
		}
	}

	return insights
}

// identifyRecentChanges is reserved for diffing successive event snapshots.
// Event sources do not expose revision history yet, so it reports nothing.
func (c *CalendarIntelligence) identifyRecentChanges(_ []models.CalendarEvent) []models.CalendarInsight {
	return nil
}

func (c *CalendarIntelligence) meetingNotesTemplate(e models.CalendarEvent) string {
	start := e.StartTime.In(c.loc)
	end := e.EndTime.In(c.loc)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Title)
	fmt.Fprintf(&b, "**Date:** %s\n", start.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "**Time:** %s - %s\n\n", start.Format("15:04"), end.Format("15:04"))

	b.WriteString("**Attendees:**\n")
	for _, a := range e.Attendees {
		fmt.Fprintf(&b, "- %s\n", a.DisplayName())
	}
	b.WriteString("\n")

	if agenda := extractAgenda(e.Description); len(agenda) > 0 {
		b.WriteString("**Agenda:**\n")
		for _, item := range agenda {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}

	b.WriteString("**Discussion Notes:**\n\n")
	b.WriteString("**Action Items:**\n\n")
	b.WriteString("**Next Steps:**\n\n")

	return b.String()
}

func (c *CalendarIntelligence) generateRecommendations(insights []models.CalendarInsight, events []models.CalendarEvent, busyPercent float64) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 4)

	if busyPercent > meetingOverloadPercent {
		recs = append(recs, models.Recommendation{
			ID:          "rec-meeting-overload",
			Type:        "meeting-reduction",
			Description: "You have a high meeting load. Consider blocking focus time or declining non-essential meetings.",
			Priority:    models.PriorityHigh,
		})
	}

	if len(detectBackToBackMeetings(events)) > 0 {
		recs = append(recs, models.Recommendation{
			ID:          "rec-back-to-back",
			Type:        "meeting-spacing",
			Description: "You have several back-to-back meetings. Consider adding buffer time between meetings.",
			Priority:    models.PriorityMedium,
		})
	}

	if n := countInsights(insights, models.InsightConflict); n > 0 {
		recs = append(recs, models.Recommendation{
			ID:          "rec-conflicts",
			Type:        "conflict-resolution",
			Description: fmt.Sprintf("You have %d scheduling conflicts. Review and resolve them as soon as possible.", n),
			Priority:    models.PriorityHigh,
		})
	}

	if n := countInsights(insights, models.InsightPreparationNeeded); n > 0 {
		recs = append(recs, models.Recommendation{
			ID:          "rec-preparation",
			Type:        "meeting-preparation",
			Description: fmt.Sprintf("You have %d meetings that require preparation. Schedule time to prepare.", n),
			Priority:    models.PriorityMedium,
		})
	}

	return recs
}

func needsPreparation(e models.CalendarEvent) bool {
	if e.Duration().Minutes() > 30 {
		return true
	}
	if len(e.Attendees) > 3 {
		return true
	}
	return containsAny(titleAndDescription(e), preparationKeywords)
}

// meetingPriority applies the first matching rule; rules are not combined
func meetingPriority(e models.CalendarEvent) models.Priority {
	if isOneOnOne(strings.ToLower(e.Title)) {
		return models.PriorityHigh
	}
	if len(e.Attendees) > 5 {
		return models.PriorityHigh
	}
	if e.Duration().Minutes() > 60 {
		return models.PriorityHigh
	}
	if containsAny(titleAndDescription(e), criticalKeywords) {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

func isOneOnOne(title string) bool {
	return strings.Contains(title, "1:1") ||
		strings.Contains(title, "one on one") ||
		strings.Contains(title, "1-on-1")
}

func preparationItems(e models.CalendarEvent) []string {
	items := []string{"Review meeting agenda and objectives"}

	if strings.Contains(e.Description, "agenda") {
		items = append(items, "Review the provided agenda")
	}

	title := strings.ToLower(e.Title)
	switch {
	case strings.Contains(title, "1:1") || strings.Contains(title, "one on one"):
		items = append(items,
			"Prepare updates on your current projects",
			"Note any challenges or blockers to discuss",
			"Prepare questions or topics you want to address",
		)
	case strings.Contains(title, "review") || strings.Contains(title, "status"):
		items = append(items,
			"Prepare status updates on relevant projects",
			"Gather metrics and progress data",
		)
	case strings.Contains(title, "interview"):
		items = append(items,
			"Review candidate resume and application materials",
			"Prepare interview questions",
		)
	case strings.Contains(title, "planning") || strings.Contains(title, "strategy"):
		items = append(items,
			"Review relevant background materials",
			"Prepare ideas or proposals to share",
		)
	}

	return append(items, "Review previous meeting notes if available")
}

// suggestConflictResolution prefers moving the shorter meeting, then the one with fewer attendees
func suggestConflictResolution(a, b models.CalendarEvent) string {
	da, db := a.Duration(), b.Duration()
	switch {
	case da < db:
		return fmt.Sprintf("Consider rescheduling %q to a later time.", a.Title)
	case db < da:
		return fmt.Sprintf("Consider rescheduling %q to a later time.", b.Title)
	}

	switch {
	case len(a.Attendees) < len(b.Attendees):
		return fmt.Sprintf("Consider rescheduling %q as it has fewer attendees.", a.Title)
	case len(b.Attendees) < len(a.Attendees):
		return fmt.Sprintf("Consider rescheduling %q as it has fewer attendees.", b.Title)
	}

	return "Review both meetings and determine which one can be rescheduled."
}

// extractAgenda collects bullet or numbered lines following an "agenda" marker,
// falling back to every bullet line in the description
func extractAgenda(description string) []string {
	items := make([]string, 0)
	if description == "" {
		return items
	}

	lines := strings.Split(description, "\n")

	for i, line := range lines {
		m := agendaMarkerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if rest := strings.TrimSpace(m[1]); rest != "" {
			if item, ok := bulletItem(rest); ok {
				items = append(items, item)
			}
		}
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" && len(items) > 0 {
				break
			}
			item, ok := bulletItem(next)
			if !ok {
				if strings.TrimSpace(next) == "" {
					continue
				}
				break
			}
			items = append(items, item)
		}
		break
	}

	if len(items) > 0 {
		return items
	}

	for _, line := range lines {
		if item, ok := bulletItem(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func bulletItem(line string) (string, bool) {
	m := bulletLineRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// detectBackToBackMeetings returns adjacent pairs separated by less than the buffer
func detectBackToBackMeetings(events []models.CalendarEvent) [][2]models.CalendarEvent {
	pairs := make([][2]models.CalendarEvent, 0)

	sorted := slices.Clone(events)
	sortByStart(sorted)

	for i := 0; i < len(sorted)-1; i++ {
		gap := sorted[i+1].StartTime.Sub(sorted[i].EndTime).Minutes()
		if gap < backToBackBuffer {
			pairs = append(pairs, [2]models.CalendarEvent{sorted[i], sorted[i+1]})
		}
	}

	return pairs
}

// workdaysBetween counts Monday-Friday days from start to end inclusive
func workdaysBetween(start, end time.Time) int {
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func declinedBy(e models.CalendarEvent, userID string) bool {
	for _, a := range e.Attendees {
		if a.Email == userID {
			return a.ResponseStatus == models.ResponseDeclined
		}
	}
	return false
}

func findPreparationInsight(insights []models.CalendarInsight, eventID string) *models.CalendarInsight {
	for i := range insights {
		if insights[i].Type == models.InsightPreparationNeeded && slices.Contains(insights[i].RelatedEventIDs, eventID) {
			return &insights[i]
		}
	}
	return nil
}

func countInsights(insights []models.CalendarInsight, t models.InsightType) int {
	n := 0
	for _, in := range insights {
		if in.Type == t {
			n++
		}
	}
	return n
}

// sortByStart orders events by start time, then id, so that any permutation
// of the same events sorts identically
func sortByStart(events []models.CalendarEvent) {
	slices.SortStableFunc(events, func(a, b models.CalendarEvent) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func titleAndDescription(e models.CalendarEvent) string {
	return strings.ToLower(e.Title + " " + e.Description)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
