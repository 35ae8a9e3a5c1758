// Package testenv provides ephemeral test infrastructure using testcontainers.
package testenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fixture event UIDs, exposed so tests can address them directly.
const (
	FixtureReviewUID = "e2e-review@example.com"
	FixtureSyncUID   = "e2e-sync@example.com"
	FixtureFocusUID  = "e2e-focus@example.com"
)

// WriteCalendarFixture writes an iCalendar feed with events placed
// relative to now and returns its path.
//
// The review and sync events overlap by 15 minutes, enough to be reported
// as a conflict. The review has four attendees and an agenda so it needs
// preparation. The focus block sits three days out.
func WriteCalendarFixture(dir string, now time.Time) (string, error) {
	now = now.UTC().Truncate(time.Minute)
	review := now.Add(2 * time.Hour)
	sync := review.Add(30 * time.Minute)
	focus := now.AddDate(0, 0, 3)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//mgmt-dashboard//e2e//EN",
		"BEGIN:VEVENT",
		"UID:" + FixtureReviewUID,
		"DTSTAMP:" + icalTime(now),
		"DTSTART:" + icalTime(review),
		"DTEND:" + icalTime(review.Add(45*time.Minute)),
		"SUMMARY:Quarterly Budget Review",
		`DESCRIPTION:Agenda:\n1. Spend to date\n2. Forecast\n3. Hiring plan`,
		"ORGANIZER;CN=Manager:mailto:manager@example.com",
		"ATTENDEE;CN=Ana;PARTSTAT=ACCEPTED:mailto:ana@example.com",
		"ATTENDEE;CN=Ben;PARTSTAT=ACCEPTED:mailto:ben@example.com",
		"ATTENDEE;CN=Cho;PARTSTAT=TENTATIVE:mailto:cho@example.com",
		"ATTENDEE;CN=Dee;PARTSTAT=NEEDS-ACTION:mailto:dee@example.com",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:" + FixtureSyncUID,
		"DTSTAMP:" + icalTime(now),
		"DTSTART:" + icalTime(sync),
		"DTEND:" + icalTime(sync.Add(30*time.Minute)),
		"SUMMARY:Vendor Sync",
		"LOCATION:https://meet.example.com/vendor",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:" + FixtureFocusUID,
		"DTSTAMP:" + icalTime(now),
		"DTSTART:" + icalTime(focus),
		"DURATION:PT1H",
		"SUMMARY:Focus time",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	path := filepath.Join(dir, "calendar.ics")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write calendar fixture: %w", err)
	}
	return path, nil
}

func icalTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
