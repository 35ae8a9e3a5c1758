package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// MemoryEventRepository serves a fixed set of events, used when no calendar
// feed is configured
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []models.CalendarEvent
}

func NewMemoryEventRepository(events []models.CalendarEvent) *MemoryEventRepository {
	return &MemoryEventRepository{events: slices.Clone(events)}
}

// Replace swaps the served events
func (r *MemoryEventRepository) Replace(events []models.CalendarEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = slices.Clone(events)
}

// ListEvents returns events starting in [timeMin, timeMax), sorted by start
func (r *MemoryEventRepository) ListEvents(_ context.Context, timeMin, timeMax time.Time, maxResults int) ([]models.CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return capEvents(filterWindow(r.events, timeMin, timeMax), maxResults), nil
}

// GetEvent retrieves an event by its ID
func (r *MemoryEventRepository) GetEvent(_ context.Context, id string) (*models.CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, ErrEventNotFound
}

// SampleEvents builds a demo day around now: a meeting that needs
// preparation, two overlapping meetings and a back-to-back pair
func SampleEvents(now time.Time) []models.CalendarEvent {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	at := func(days, hour, minute int) time.Time {
		return day.AddDate(0, 0, days).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}
	person := func(email, name string, status models.ResponseStatus) models.Attendee {
		return models.Attendee{Email: email, Name: name, ResponseStatus: status}
	}

	return []models.CalendarEvent{
		{
			ID:          "evt-planning-review",
			Title:       "Q2 Planning Review",
			Description: "Agenda:\n- Revenue targets\n- Hiring plan\n- Roadmap risks",
			StartTime:   now.Add(2 * time.Hour).Truncate(time.Minute),
			EndTime:     now.Add(2*time.Hour + 45*time.Minute).Truncate(time.Minute),
			Location:    "Board room",
			Attendees: []models.Attendee{
				person("alice@example.com", "Alice Johnson", models.ResponseAccepted),
				person("bob@example.com", "Bob Smith", models.ResponseAccepted),
				person("charlie@example.com", "", models.ResponseTentative),
				person("dana@example.com", "Dana Lee", models.ResponseNeedsAction),
			},
			Status:      models.EventStatusConfirmed,
			MeetingLink: "https://meet.google.com/abc-defg-hij",
		},
		{
			ID:        "evt-standup",
			Title:     "Team Standup",
			StartTime: at(1, 9, 0),
			EndTime:   at(1, 9, 15),
			Attendees: []models.Attendee{
				person("alice@example.com", "Alice Johnson", models.ResponseAccepted),
				person("bob@example.com", "Bob Smith", models.ResponseAccepted),
			},
			Status: models.EventStatusConfirmed,
		},
		{
			ID:          "evt-vendor-sync",
			Title:       "Vendor sync",
			Description: "Contract renewal discussion",
			StartTime:   at(1, 10, 0),
			EndTime:     at(1, 10, 30),
			Attendees: []models.Attendee{
				person("alice@example.com", "Alice Johnson", models.ResponseAccepted),
				person("vendor@partner.example", "", models.ResponseAccepted),
			},
			Status: models.EventStatusConfirmed,
		},
		{
			ID:        "evt-design-crit",
			Title:     "Design critique",
			StartTime: at(1, 10, 20),
			EndTime:   at(1, 10, 50),
			Attendees: []models.Attendee{
				person("alice@example.com", "Alice Johnson", models.ResponseAccepted),
				person("charlie@example.com", "", models.ResponseAccepted),
				person("erin@example.com", "Erin Park", models.ResponseAccepted),
			},
			Status: models.EventStatusConfirmed,
		},
		{
			ID:        "evt-one-on-one",
			Title:     "1:1 Alice / Bob",
			StartTime: at(1, 11, 0),
			EndTime:   at(1, 11, 30),
			Attendees: []models.Attendee{
				person("alice@example.com", "Alice Johnson", models.ResponseAccepted),
				person("bob@example.com", "Bob Smith", models.ResponseAccepted),
			},
			Status: models.EventStatusConfirmed,
		},
		{
			ID:        "evt-offsite",
			Title:     "Offsite logistics",
			StartTime: at(3, 14, 0),
			EndTime:   at(3, 15, 0),
			Attendees: []models.Attendee{
				person("alice@example.com", "Alice Johnson", models.ResponseDeclined),
			},
			Status: models.EventStatusCancelled,
		},
	}
}
