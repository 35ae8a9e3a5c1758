//go:build e2e

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gti/mgmt-dashboard/internal/models"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisEventCache(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, startRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisEventCache(client, time.Minute, zerolog.Nop())

	_, ok := c.Get(ctx, "window")
	assert.False(t, ok)

	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "window", []models.CalendarEvent{
		{ID: "a", Title: "Standup", StartTime: start, EndTime: start.Add(15 * time.Minute), Attendees: []models.Attendee{}},
	}))

	events, ok := c.Get(ctx, "window")
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Title)
	assert.True(t, start.Equal(events[0].StartTime))

	ttl, err := client.TTL(ctx, keyPrefix+"window").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// corrupt entries read as a miss
	require.NoError(t, client.Set(ctx, keyPrefix+"broken", "not json", time.Minute).Err())
	_, ok = c.Get(ctx, "broken")
	assert.False(t, ok)

	require.NoError(t, c.Invalidate(ctx, "window"))
	_, ok = c.Get(ctx, "window")
	assert.False(t, ok)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}
