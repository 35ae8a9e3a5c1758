// Package testenv provides ephemeral test infrastructure using testcontainers.
package testenv

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gti/mgmt-dashboard/internal/database"
)

// decisionTables are truncated between tests, children first
var decisionTables = []string{
	"decision_history",
	"decision_rules",
	"decisions",
}

// PostgresContainer holds the ephemeral PostgreSQL container and connection.
type PostgresContainer struct {
	// Container is the testcontainers container instance.
	Container testcontainers.Container

	// Pool is the connection pool to the container database.
	Pool *pgxpool.Pool

	// ConnectionString is the PostgreSQL connection URL handed to the service.
	ConnectionString string
}

// PostgresConfig holds configuration for the PostgreSQL container.
type PostgresConfig struct {
	// Image is the PostgreSQL Docker image (default: postgres:16-alpine).
	Image string

	// Database is the database name.
	Database string

	// Username is the database user.
	Username string

	// Password is the database password.
	Password string
}

// DefaultPostgresConfig returns default PostgreSQL container configuration.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Image:    "postgres:16-alpine",
		Database: "mgmt_dashboard_test",
		Username: "test_user",
		Password: "test_pass",
	}
}

// StartPostgres spins up an ephemeral PostgreSQL container with the
// dashboard schema applied.
//
// Always call the returned cleanup function when done:
//
//	pg, cleanup, err := StartPostgres(ctx, DefaultPostgresConfig())
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
func StartPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresContainer, func(), error) {
	container, err := postgres.Run(ctx,
		cfg.Image,
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	terminate := func() {
		_ = container.Terminate(context.Background())
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	// Connect and migrate through the service's own database package
	db, err := database.New(ctx, connStr, zerolog.Nop())
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		terminate()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pg := &PostgresContainer{
		Container:        container,
		Pool:             db.Pool,
		ConnectionString: connStr,
	}

	cleanup := func() {
		db.Close()
		terminate()
	}

	return pg, cleanup, nil
}

// TruncateDecisionTables removes all decisions, rules and history while
// preserving the schema.
func TruncateDecisionTables(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range decisionTables {
		if _, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
