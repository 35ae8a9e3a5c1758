package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema
func (db *DB) RunMigrations(ctx context.Context) error {
	db.logger.Info().Msg("running database migrations")

	schema := `
	-- Decisions; nested context and options are stored as JSONB
	CREATE TABLE IF NOT EXISTS decisions (
		seq BIGSERIAL UNIQUE,
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL CHECK (category IN ('budget', 'scheduling', 'communication', 'task', 'resource', 'other')),
		priority TEXT NOT NULL CHECK (priority IN ('low', 'medium', 'high', 'critical')),
		status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'auto-approved', 'escalated')),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
		due_by TIMESTAMP WITH TIME ZONE,
		context JSONB NOT NULL DEFAULT '{}',
		options JSONB NOT NULL DEFAULT '[]',
		selected_option TEXT NOT NULL DEFAULT '',
		reasoning TEXT NOT NULL DEFAULT '',
		approved_by TEXT NOT NULL DEFAULT '',
		rejected_by TEXT NOT NULL DEFAULT '',
		escalated_to TEXT NOT NULL DEFAULT '',
		auto_decision_threshold FLOAT,
		notify_users JSONB
	);

	-- Rules are evaluated in ascending priority
	CREATE TABLE IF NOT EXISTS decision_rules (
		seq BIGSERIAL UNIQUE,
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		conditions JSONB NOT NULL DEFAULT '[]',
		action TEXT NOT NULL CHECK (action IN ('auto_approve', 'auto_reject', 'escalate', 'notify')),
		action_params JSONB,
		priority INTEGER NOT NULL DEFAULT 0,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	);

	-- Append-only outcome log
	CREATE TABLE IF NOT EXISTS decision_history (
		id BIGSERIAL PRIMARY KEY,
		decision_id TEXT NOT NULL,
		outcome TEXT NOT NULL CHECK (outcome IN ('approved', 'rejected')),
		selected_option TEXT NOT NULL DEFAULT '',
		recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
		feedback_rating INTEGER CHECK (feedback_rating BETWEEN 1 AND 5),
		feedback_comments TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_status ON decisions(status);
	CREATE INDEX IF NOT EXISTS idx_decision_rules_priority ON decision_rules(priority, seq);
	CREATE INDEX IF NOT EXISTS idx_decision_history_decision ON decision_history(decision_id, id);
	`

	_, err := db.Pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db.logger.Info().Msg("database migrations completed successfully")
	return nil
}
