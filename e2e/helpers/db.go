// Package helpers provides narrowly-scoped utilities for E2E testing.
//
// The db helper reads the decision tables directly so tests can verify what
// the service persisted, independent of the API that wrote it.
package helpers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBHelper provides direct PostgreSQL access for E2E tests.
type DBHelper struct {
	pool *pgxpool.Pool
}

// NewDBHelper creates a new database helper wrapping the given connection pool.
//
// The pool should be configured to connect to the test database, not production.
// Callers are responsible for closing the pool when tests are complete.
func NewDBHelper(pool *pgxpool.Pool) *DBHelper {
	return &DBHelper{pool: pool}
}

// Query executes a SELECT query and returns the resulting rows.
//
//	rows, err := db.Query(ctx, "SELECT id, status FROM decisions WHERE category = $1", "budget")
//
// The caller is responsible for closing the returned Rows.
func (h *DBHelper) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return h.pool.Query(ctx, sql, args...)
}

// Exec executes a non-SELECT statement (INSERT, UPDATE, DELETE, etc).
//
//	tag, err := db.Exec(ctx, "UPDATE decision_rules SET enabled = FALSE WHERE id = $1", ruleID)
func (h *DBHelper) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return h.pool.Exec(ctx, sql, args...)
}

// DecisionStatus returns the stored status of a decision.
//
//	status, err := db.DecisionStatus(ctx, decision.ID)
//	a.Equal("auto-approved", status)
func (h *DBHelper) DecisionStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := h.pool.QueryRow(ctx, "SELECT status FROM decisions WHERE id = $1", id).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("failed to read status of %s: %w", id, err)
	}
	return status, nil
}

// HistoryCount returns the number of audit entries recorded for a decision.
func (h *DBHelper) HistoryCount(ctx context.Context, decisionID string) (int, error) {
	var n int
	err := h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM decision_history WHERE decision_id = $1", decisionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count history of %s: %w", decisionID, err)
	}
	return n, nil
}

// FeedbackRating returns the rating stored on the first history entry of a
// decision, or nil when none was given.
func (h *DBHelper) FeedbackRating(ctx context.Context, decisionID string) (*int, error) {
	var rating *int
	err := h.pool.QueryRow(ctx,
		"SELECT feedback_rating FROM decision_history WHERE decision_id = $1 ORDER BY id LIMIT 1",
		decisionID,
	).Scan(&rating)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback of %s: %w", decisionID, err)
	}
	return rating, nil
}
