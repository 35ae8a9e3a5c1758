package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gti/mgmt-dashboard/internal/models"
)

const keyPrefix = "dashboard:events:"

// RedisEventCache stores event lists as JSON strings with a TTL, so several
// server instances share one fetch window
type RedisEventCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClient parses a redis:// URL and verifies the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}

	return client, nil
}

func NewRedisEventCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisEventCache {
	return &RedisEventCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "event_cache").Logger(),
	}
}

// Get treats any redis or decode failure as a miss
func (c *RedisEventCache) Get(ctx context.Context, key string) ([]models.CalendarEvent, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("event cache read failed")
		return nil, false
	}

	var events []models.CalendarEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("event cache entry is corrupt")
		return nil, false
	}
	return events, true
}

func (c *RedisEventCache) Set(ctx context.Context, key string, events []models.CalendarEvent) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing event cache: %w", err)
	}
	return nil
}

func (c *RedisEventCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting event cache entry: %w", err)
	}
	return nil
}
