package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDecisionNotFound = errors.New("decision not found")

// DecisionRepository stores decisions in Postgres. Nested structures
// (context, options, rule conditions) are kept in JSONB columns.
type DecisionRepository struct {
	pool *pgxpool.Pool
}

func NewDecisionRepository(pool *pgxpool.Pool) *DecisionRepository {
	return &DecisionRepository{pool: pool}
}

const decisionColumns = `id, title, description, category, priority, status, created_at, updated_at, due_by,
	context, options, selected_option, reasoning, approved_by, rejected_by, escalated_to,
	auto_decision_threshold, notify_users`

// SaveDecision inserts a decision or overwrites the stored copy
func (r *DecisionRepository) SaveDecision(ctx context.Context, d *models.Decision) error {
	dctx, err := json.Marshal(d.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal decision context: %w", err)
	}
	options, err := json.Marshal(d.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal decision options: %w", err)
	}
	notify, err := json.Marshal(d.NotifyUsers)
	if err != nil {
		return fmt.Errorf("failed to marshal notify users: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO decisions (`+decisionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   category = EXCLUDED.category,
		   priority = EXCLUDED.priority,
		   status = EXCLUDED.status,
		   updated_at = EXCLUDED.updated_at,
		   due_by = EXCLUDED.due_by,
		   context = EXCLUDED.context,
		   options = EXCLUDED.options,
		   selected_option = EXCLUDED.selected_option,
		   reasoning = EXCLUDED.reasoning,
		   approved_by = EXCLUDED.approved_by,
		   rejected_by = EXCLUDED.rejected_by,
		   escalated_to = EXCLUDED.escalated_to,
		   auto_decision_threshold = EXCLUDED.auto_decision_threshold,
		   notify_users = EXCLUDED.notify_users`,
		d.ID, d.Title, d.Description, d.Category, d.Priority, d.Status, d.CreatedAt, d.UpdatedAt, d.DueBy,
		dctx, options, d.SelectedOption, d.Reasoning, d.ApprovedBy, d.RejectedBy, d.EscalatedTo,
		d.AutoDecisionThreshold, notify)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}

	return nil
}

// GetDecision retrieves a decision by its ID
func (r *DecisionRepository) GetDecision(ctx context.Context, id string) (*models.Decision, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE id = $1`, id)

	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDecisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}

	return d, nil
}

// ListDecisions returns all decisions in creation order
func (r *DecisionRepository) ListDecisions(ctx context.Context) ([]models.Decision, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+decisionColumns+` FROM decisions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	return collectDecisions(rows)
}

// ListDecisionsByStatus returns decisions with the given status in creation order
func (r *DecisionRepository) ListDecisionsByStatus(ctx context.Context, status models.DecisionStatus) ([]models.Decision, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE status = $1 ORDER BY seq`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	return collectDecisions(rows)
}

func collectDecisions(rows pgx.Rows) ([]models.Decision, error) {
	defer rows.Close()

	decisions := make([]models.Decision, 0)
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}

	return decisions, nil
}

func scanDecision(row pgx.Row) (*models.Decision, error) {
	var (
		d                     models.Decision
		dctx, options, notify []byte
	)
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.Priority, &d.Status,
		&d.CreatedAt, &d.UpdatedAt, &d.DueBy, &dctx, &options, &d.SelectedOption, &d.Reasoning,
		&d.ApprovedBy, &d.RejectedBy, &d.EscalatedTo, &d.AutoDecisionThreshold, &notify)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dctx, &d.Context); err != nil {
		return nil, fmt.Errorf("failed to decode decision context: %w", err)
	}
	if err := json.Unmarshal(options, &d.Options); err != nil {
		return nil, fmt.Errorf("failed to decode decision options: %w", err)
	}
	if len(notify) > 0 {
		if err := json.Unmarshal(notify, &d.NotifyUsers); err != nil {
			return nil, fmt.Errorf("failed to decode notify users: %w", err)
		}
	}

	return &d, nil
}

// SaveRule inserts a rule or overwrites the stored copy
func (r *DecisionRepository) SaveRule(ctx context.Context, rule *models.DecisionRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal rule conditions: %w", err)
	}
	params, err := json.Marshal(rule.ActionParams)
	if err != nil {
		return fmt.Errorf("failed to marshal rule params: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO decision_rules (id, name, description, category, conditions, action, action_params, priority, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   description = EXCLUDED.description,
		   category = EXCLUDED.category,
		   conditions = EXCLUDED.conditions,
		   action = EXCLUDED.action,
		   action_params = EXCLUDED.action_params,
		   priority = EXCLUDED.priority,
		   enabled = EXCLUDED.enabled`,
		rule.ID, rule.Name, rule.Description, rule.Category, conditions, rule.Action, params, rule.Priority, rule.Enabled)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

// DeleteRule removes a rule and reports whether it existed
func (r *DecisionRepository) DeleteRule(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM decision_rules WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete rule: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListRules returns rules in ascending priority, ties in insertion order
func (r *DecisionRepository) ListRules(ctx context.Context) ([]models.DecisionRule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, category, conditions, action, action_params, priority, enabled
		 FROM decision_rules ORDER BY priority, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rules := make([]models.DecisionRule, 0)
	for rows.Next() {
		var (
			rule               models.DecisionRule
			conditions, params []byte
		)
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Description, &rule.Category, &conditions,
			&rule.Action, &params, &rule.Priority, &rule.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("failed to decode rule conditions: %w", err)
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rule.ActionParams); err != nil {
				return nil, fmt.Errorf("failed to decode rule params: %w", err)
			}
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// AppendHistory adds an entry to the audit log
func (r *DecisionRepository) AppendHistory(ctx context.Context, entry models.DecisionHistory) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO decision_history (decision_id, outcome, selected_option, recorded_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.DecisionID, entry.Outcome, entry.SelectedOption, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ListHistory returns the full audit log, oldest first
func (r *DecisionRepository) ListHistory(ctx context.Context) ([]models.DecisionHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT decision_id, outcome, selected_option, recorded_at, feedback_rating, feedback_comments
		 FROM decision_history ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return collectHistory(rows)
}

// ListHistoryForDecision returns the audit entries of one decision, oldest first
func (r *DecisionRepository) ListHistoryForDecision(ctx context.Context, decisionID string) ([]models.DecisionHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT decision_id, outcome, selected_option, recorded_at, feedback_rating, feedback_comments
		 FROM decision_history WHERE decision_id = $1 ORDER BY id`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return collectHistory(rows)
}

func collectHistory(rows pgx.Rows) ([]models.DecisionHistory, error) {
	defer rows.Close()

	history := make([]models.DecisionHistory, 0)
	for rows.Next() {
		var (
			h        models.DecisionHistory
			rating   *int
			comments *string
		)
		if err := rows.Scan(&h.DecisionID, &h.Outcome, &h.SelectedOption, &h.Timestamp, &rating, &comments); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if rating != nil {
			h.Feedback = &models.Feedback{Rating: *rating}
			if comments != nil {
				h.Feedback.Comments = *comments
			}
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return history, nil
}

// AttachFeedback sets feedback on the first history entry of a decision
func (r *DecisionRepository) AttachFeedback(ctx context.Context, decisionID string, fb models.Feedback) (bool, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE decision_history SET feedback_rating = $2, feedback_comments = $3
		 WHERE id = (SELECT id FROM decision_history WHERE decision_id = $1 ORDER BY id LIMIT 1)`,
		decisionID, fb.Rating, fb.Comments)
	if err != nil {
		return false, fmt.Errorf("failed to attach feedback: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
