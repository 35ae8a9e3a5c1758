// Package cache keeps recently fetched calendar events so repeated tool
// calls and page loads do not hit the event source each time.
package cache

import (
	"context"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// EventCache stores event lists under a string key until they expire.
// Implementations are safe for concurrent use.
type EventCache interface {
	Get(ctx context.Context, key string) ([]models.CalendarEvent, bool)
	Set(ctx context.Context, key string, events []models.CalendarEvent) error
	Invalidate(ctx context.Context, key string) error
}
