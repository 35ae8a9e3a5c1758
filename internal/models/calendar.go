package models

import (
	"strings"
	"time"
)

// EventStatus is the lifecycle state reported by the calendar provider
type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusTentative EventStatus = "tentative"
	EventStatusCancelled EventStatus = "cancelled"
)

// ResponseStatus is an attendee's reply to an invitation
type ResponseStatus string

const (
	ResponseAccepted    ResponseStatus = "accepted"
	ResponseDeclined    ResponseStatus = "declined"
	ResponseTentative   ResponseStatus = "tentative"
	ResponseNeedsAction ResponseStatus = "needsAction"
)

// Attendee is a participant of a calendar event
type Attendee struct {
	ID             string         `json:"id,omitempty"`
	Email          string         `json:"email"`
	Name           string         `json:"name,omitempty"`
	ResponseStatus ResponseStatus `json:"responseStatus"`
	Optional       bool           `json:"optional,omitempty"`
	Organizer      bool           `json:"organizer,omitempty"`
}

// DisplayName returns the attendee name, falling back to the local part of the email
func (a Attendee) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	local, _, _ := strings.Cut(a.Email, "@")
	return local
}

// Attachment is a file linked from an event
type Attachment struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FileURL  string `json:"fileUrl"`
	MimeType string `json:"mimeType"`
	IconLink string `json:"iconLink,omitempty"`
}

// Reminder is a notification configured on an event
type Reminder struct {
	Type    string `json:"type"` // email, popup or notification
	Minutes int    `json:"minutes"`
}

// CalendarEvent is a single meeting as supplied by an event source.
// The analyzer never mutates events.
type CalendarEvent struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	Location    string         `json:"location,omitempty"`
	Attendees   []Attendee     `json:"attendees"`
	Organizer   *Attendee      `json:"organizer,omitempty"`
	Recurrence  []string       `json:"recurrence,omitempty"`
	Status      EventStatus    `json:"status"`
	MeetingLink string         `json:"meetingLink,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Reminders   []Reminder     `json:"reminders,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Duration returns the scheduled length of the event
func (e CalendarEvent) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// InsightType classifies a calendar insight
type InsightType string

const (
	InsightUpcomingMeeting   InsightType = "upcoming-meeting"
	InsightConflict          InsightType = "conflict"
	InsightChange            InsightType = "change"
	InsightPreparationNeeded InsightType = "preparation-needed"
	InsightFollowUp          InsightType = "follow-up"
)

// Priority is shared by insights, recommendations and decisions
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// InsightAction is a suggested follow-up attached to an insight
type InsightAction struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	ActionType string         `json:"actionType"` // reschedule, prepare, follow-up, cancel, join, custom
	Data       map[string]any `json:"data,omitempty"`
}

// CalendarInsight is a single detected fact about a calendar
type CalendarInsight struct {
	ID              string          `json:"id"`
	Type            InsightType     `json:"type"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Priority        Priority        `json:"priority"`
	RelatedEventIDs []string        `json:"relatedEventIds"`
	CreatedAt       time.Time       `json:"createdAt"`
	ExpiresAt       *time.Time      `json:"expiresAt,omitempty"`
	Actions         []InsightAction `json:"actions,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// UpcomingMeeting is a meeting starting today
type UpcomingMeeting struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	NeedsPreparation bool      `json:"needsPreparation"`
	PreparationItems []string  `json:"preparationItems,omitempty"`
}

// ConflictSummary is the DailyInsights projection of a conflict insight
type ConflictSummary struct {
	ID                  string   `json:"id"`
	Description         string   `json:"description"`
	EventIDs            []string `json:"eventIds"`
	SuggestedResolution string   `json:"suggestedResolution,omitempty"`
}

// ChangeSummary is the DailyInsights projection of a change insight
type ChangeSummary struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	EventID     string `json:"eventId"`
	ChangeType  string `json:"changeType"` // time, location, attendees, cancelled, new
}

// PreparationTask is the DailyInsights projection of a preparation insight
type PreparationTask struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueBy       time.Time `json:"dueBy"`
}

// DailyInsights groups the insights relevant to a single day
type DailyInsights struct {
	Date             string            `json:"date"` // YYYY-MM-DD
	UpcomingMeetings []UpcomingMeeting `json:"upcomingMeetings"`
	Conflicts        []ConflictSummary `json:"conflicts"`
	Changes          []ChangeSummary   `json:"changes"`
	PreparationTasks []PreparationTask `json:"preparationTasks"`
}

// RelevantDocument is a document linked to a meeting preparation
type RelevantDocument struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// AttendeeContext carries per-attendee background for a meeting
type AttendeeContext struct {
	AttendeeID              string   `json:"attendeeId"`
	Name                    string   `json:"name"`
	Notes                   string   `json:"notes"`
	PreviousMeetingOutcomes []string `json:"previousMeetingOutcomes"`
}

// MeetingPreparation is the material generated ahead of a meeting
type MeetingPreparation struct {
	EventID           string             `json:"eventId"`
	Title             string             `json:"title"`
	Agenda            []string           `json:"agenda"`
	Notes             string             `json:"notes"`
	ActionItems       []string           `json:"actionItems"`
	RelevantDocuments []RelevantDocument `json:"relevantDocuments"`
	AttendeeContext   []AttendeeContext  `json:"attendeeContext"`
}

// TimeRange names the window analysed by AnalyzeSchedule
type TimeRange string

const (
	TimeRangeToday    TimeRange = "today"
	TimeRangeTomorrow TimeRange = "tomorrow"
	TimeRangeWeek     TimeRange = "week"
	TimeRangeMonth    TimeRange = "month"
)

// CalendarAnalysisRequest asks for an analysis of a user's schedule
type CalendarAnalysisRequest struct {
	TimeRange              TimeRange `json:"timeRange" validate:"required,oneof=today tomorrow week month"`
	UserID                 string    `json:"userId"`
	IncludeDeclinedEvents  bool      `json:"includeDeclinedEvents,omitempty"`
	IncludeCancelledEvents bool      `json:"includeCancelledEvents,omitempty"`
}

// AnalysisWindow is the resolved [start, end] of an analysis
type AnalysisWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AnalysisSummary aggregates schedule statistics
type AnalysisSummary struct {
	TotalEvents         int     `json:"totalEvents"`
	TotalMeetingHours   float64 `json:"totalMeetingHours"`
	BusyHoursPercentage float64 `json:"busyHoursPercentage"`
	ConflictCount       int     `json:"conflictCount"`
	UpcomingDeadlines   int     `json:"upcomingDeadlines"`
}

// Recommendation is a schedule hygiene suggestion
type Recommendation struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"` // low, medium or high
}

// CalendarAnalysisResponse is the result of AnalyzeSchedule
type CalendarAnalysisResponse struct {
	TimeRange       AnalysisWindow    `json:"timeRange"`
	Summary         AnalysisSummary   `json:"summary"`
	Insights        []CalendarInsight `json:"insights"`
	Recommendations []Recommendation  `json:"recommendations"`
}
