package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gti/mgmt-dashboard/internal/models"
)

type memoryEntry struct {
	events    []models.CalendarEvent
	expiresAt time.Time
}

// MemoryEventCache is an in-process TTL cache
type MemoryEventCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryEventCache(ttl time.Duration) *MemoryEventCache {
	return &MemoryEventCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryEventCache) Get(_ context.Context, key string) ([]models.CalendarEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return slices.Clone(e.events), true
}

func (c *MemoryEventCache) Set(_ context.Context, key string, events []models.CalendarEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		events:    slices.Clone(events),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryEventCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}
