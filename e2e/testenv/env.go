// Package testenv provides ephemeral test infrastructure using testcontainers.
//
// This package manages the complete E2E test environment including:
//   - Ephemeral PostgreSQL and Redis containers via testcontainers-go
//   - A calendar feed fixture on disk
//   - The dashboard server as a subprocess
//
// Example usage:
//
//	func TestMain(m *testing.M) {
//	    env, err := testenv.Setup(context.Background(), testenv.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    env.Teardown()
//	    os.Exit(code)
//	}
package testenv

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gti/mgmt-dashboard/e2e/helpers"
	"github.com/gti/mgmt-dashboard/internal/database"
)

// TestEnv holds all resources for E2E testing.
//
// Tests sharing one TestEnv must not run in parallel; CleanupTestData
// truncates the decision tables between them.
type TestEnv struct {
	// Postgres is the ephemeral PostgreSQL container (nil with an external database).
	Postgres *PostgresContainer

	// Redis is the ephemeral event cache (nil when SkipRedis is set).
	Redis *RedisContainer

	// Service is the running dashboard server.
	Service *Service

	// DB provides database helper for tests.
	DB *helpers.DBHelper

	// API provides HTTP client for tests (pre-configured with API key).
	API *helpers.APIClient

	// Pool provides direct database access.
	Pool *pgxpool.Pool

	// Config holds the environment configuration.
	Config EnvConfig

	// StartedAt is the instant the calendar fixture was built around.
	StartedAt time.Time

	// cleanupFuncs holds cleanup functions in reverse order.
	cleanupFuncs []func()
}

// EnvConfig holds configuration for the test environment.
type EnvConfig struct {
	// Postgres holds PostgreSQL container configuration.
	Postgres PostgresConfig

	// Service holds service configuration.
	Service ServiceConfig

	// RedisImage overrides the Redis image (default: redis:7-alpine).
	RedisImage string

	// SkipRedis runs the service with its in-memory event cache.
	SkipRedis bool

	// SkipService skips starting the service (for DB-only tests).
	SkipService bool

	// ExternalDatabaseURL is an optional external database URL to use instead of testcontainers.
	// If set, the Postgres container is skipped. Useful for CI environments without Docker.
	ExternalDatabaseURL string
}

// DefaultConfig returns the default test environment configuration.
func DefaultConfig() EnvConfig {
	return EnvConfig{
		Postgres:            DefaultPostgresConfig(),
		Service:             DefaultServiceConfig(),
		SkipRedis:           os.Getenv("E2E_SKIP_REDIS") != "",
		ExternalDatabaseURL: os.Getenv("TEST_DATABASE_URL"),
	}
}

// Setup initializes the complete E2E test environment.
//
// This function:
//  1. Starts an ephemeral PostgreSQL container (or uses the external database)
//  2. Runs database migrations
//  3. Starts Redis unless skipped
//  4. Writes the calendar fixture
//  5. Starts the dashboard server and initializes the helpers
//
// Always call Teardown() when done.
func Setup(ctx context.Context, cfg EnvConfig) (*TestEnv, error) {
	env := &TestEnv{
		Config:       cfg,
		StartedAt:    time.Now().UTC(),
		cleanupFuncs: make([]func(), 0),
	}

	var dbURL string
	if cfg.ExternalDatabaseURL != "" {
		db, err := database.New(ctx, cfg.ExternalDatabaseURL, zerolog.Nop())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to external database: %w", err)
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations on external database: %w", err)
		}
		env.addCleanup(db.Close)
		env.Pool = db.Pool
		dbURL = cfg.ExternalDatabaseURL
	} else {
		pg, pgCleanup, err := StartPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to start postgres: %w", err)
		}
		env.addCleanup(pgCleanup)
		env.Postgres = pg
		env.Pool = pg.Pool
		dbURL = pg.ConnectionString
	}

	env.DB = helpers.NewDBHelper(env.Pool)

	if cfg.SkipService {
		return env, nil
	}

	svcCfg := cfg.Service
	svcCfg.DatabaseURL = dbURL

	if !cfg.SkipRedis {
		redis, redisCleanup, err := StartRedis(ctx, cfg.RedisImage)
		if err != nil {
			env.Teardown()
			return nil, fmt.Errorf("failed to start redis: %w", err)
		}
		env.addCleanup(redisCleanup)
		env.Redis = redis
		svcCfg.RedisURL = redis.URL
	}

	if svcCfg.ICalPath == "" {
		dir, err := os.MkdirTemp("", "mgmt-dashboard-e2e-")
		if err != nil {
			env.Teardown()
			return nil, fmt.Errorf("failed to create fixture dir: %w", err)
		}
		env.addCleanup(func() { _ = os.RemoveAll(dir) })

		path, err := WriteCalendarFixture(dir, env.StartedAt)
		if err != nil {
			env.Teardown()
			return nil, err
		}
		svcCfg.ICalPath = path
	}

	svc, svcCleanup, err := StartService(ctx, svcCfg)
	if err != nil {
		env.Teardown()
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	env.addCleanup(svcCleanup)
	env.Service = svc

	env.API = helpers.NewAPIClient(svc.URL)
	env.API.SetHeader("x-api-key", svcCfg.APIKey)

	return env, nil
}

// Teardown releases all test resources in reverse order.
func (env *TestEnv) Teardown() {
	for i := len(env.cleanupFuncs) - 1; i >= 0; i-- {
		env.cleanupFuncs[i]()
	}
	env.cleanupFuncs = nil
}

// CleanupTestData removes all decisions, rules and history.
//
// Call this between tests for isolation:
//
//	func TestSomething(t *testing.T) {
//	    require.NoError(t, env.CleanupTestData(ctx))
//	    // ... test code ...
//	}
func (env *TestEnv) CleanupTestData(ctx context.Context) error {
	return TruncateDecisionTables(ctx, env.Pool)
}

// ServiceURL returns the base URL of the running service.
func (env *TestEnv) ServiceURL() string {
	if env.Service == nil {
		return ""
	}
	return env.Service.URL
}

func (env *TestEnv) addCleanup(fn func()) {
	env.cleanupFuncs = append(env.cleanupFuncs, fn)
}
