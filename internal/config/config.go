package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from the environment.
// Empty optional values select the in-process fallback for that component.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json or console
	Timezone  string `envconfig:"TIMEZONE" default:"Local"`

	// Decisions are kept in memory when no database is configured
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// Mutating decision endpoints are open when empty (dev mode)
	APIKey string `envconfig:"API_KEY"`

	// Calendar feed (http(s) URL or .ics path); sample events when empty
	ICalURL       string        `envconfig:"ICAL_URL"`
	EventCacheTTL time.Duration `envconfig:"EVENT_CACHE_TTL" default:"5m"`
	RedisURL      string        `envconfig:"REDIS_URL"`

	DecisionPluginURL string        `envconfig:"DECISION_PLUGIN_URL"`
	PluginTimeout     time.Duration `envconfig:"PLUGIN_TIMEOUT" default:"10s"`

	RulesFile string `envconfig:"RULES_FILE"`
	SeedData  bool   `envconfig:"SEED_DATA" default:"true"`
}

// Location resolves Timezone; "Local" and "" mean the process zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PersistenceEnabled reports whether decisions are stored in Postgres
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// Load reads a .env file when present, then the environment
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
