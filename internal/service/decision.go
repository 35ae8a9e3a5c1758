package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gti/mgmt-dashboard/internal/metrics"
	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/plugin"
	"github.com/gti/mgmt-dashboard/internal/repository"
)

// DecisionStore persists decisions, rules and the outcome history.
// GetDecision returns repository.ErrDecisionNotFound for unknown ids and
// ListRules returns rules in ascending priority order.
type DecisionStore interface {
	SaveDecision(ctx context.Context, d *models.Decision) error
	GetDecision(ctx context.Context, id string) (*models.Decision, error)
	ListDecisions(ctx context.Context) ([]models.Decision, error)
	ListDecisionsByStatus(ctx context.Context, status models.DecisionStatus) ([]models.Decision, error)

	SaveRule(ctx context.Context, rule *models.DecisionRule) error
	DeleteRule(ctx context.Context, id string) (bool, error)
	ListRules(ctx context.Context) ([]models.DecisionRule, error)

	AppendHistory(ctx context.Context, entry models.DecisionHistory) error
	ListHistory(ctx context.Context) ([]models.DecisionHistory, error)
	ListHistoryForDecision(ctx context.Context, decisionID string) ([]models.DecisionHistory, error)
	AttachFeedback(ctx context.Context, decisionID string, fb models.Feedback) (bool, error)
}

// defaultAutoDecisionThreshold applies when a decision carries a zero threshold
const defaultAutoDecisionThreshold = 0.8

// transition triggers, used as a metrics label
const (
	triggerRule      = "rule"
	triggerPlugin    = "plugin"
	triggerThreshold = "threshold"
	triggerManual    = "manual"
)

// DecisionEngine evaluates decisions against prioritized rules and
// confidence thresholds. Evaluation happens once, at creation.
type DecisionEngine struct {
	store         DecisionStore
	plugins       *plugin.Registry
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	pluginTimeout time.Duration
	now           func() time.Time

	// outcome reports sent to plugins in the background
	outcomes sync.WaitGroup
}

func NewDecisionEngine(
	store DecisionStore,
	plugins *plugin.Registry,
	m *metrics.Metrics,
	logger zerolog.Logger,
	pluginTimeout time.Duration,
) *DecisionEngine {
	return &DecisionEngine{
		store:         store,
		plugins:       plugins,
		metrics:       m,
		logger:        logger.With().Str("component", "decision_engine").Logger(),
		pluginTimeout: pluginTimeout,
		now:           time.Now,
	}
}

// CreateDecision stores a new pending decision and evaluates it immediately
func (e *DecisionEngine) CreateDecision(ctx context.Context, in models.DecisionInput) (*models.Decision, error) {
	now := e.now()
	d := (&models.Decision{
		ID:                    "decision-" + uuid.NewString(),
		Title:                 in.Title,
		Description:           in.Description,
		Category:              in.Category,
		Priority:              in.Priority,
		Status:                models.DecisionPending,
		CreatedAt:             now,
		UpdatedAt:             now,
		DueBy:                 in.DueBy,
		Context:               in.Context,
		Options:               in.Options,
		AutoDecisionThreshold: in.AutoDecisionThreshold,
		NotifyUsers:           in.NotifyUsers,
	}).Clone()
	if d.Context.Metadata == nil {
		d.Context.Metadata = map[string]any{}
	}

	if err := e.store.SaveDecision(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save decision: %w", err)
	}
	e.metrics.RecordDecisionCreated(string(d.Category))

	if err := e.evaluate(ctx, d); err != nil {
		return nil, err
	}

	return d.Clone(), nil
}

// evaluate applies the first matching rule, then the confidence threshold
// if the decision is still pending
func (e *DecisionEngine) evaluate(ctx context.Context, d *models.Decision) error {
	if d.Status != models.DecisionPending {
		return nil
	}

	rules, err := e.store.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		// "other" rules match every category
		if rule.Category != models.CategoryOther && rule.Category != d.Category {
			continue
		}
		if !e.ruleMatches(rule, d) {
			continue
		}

		e.logger.Debug().Str("decision_id", d.ID).Str("rule", rule.Name).Str("action", string(rule.Action)).Msg("rule matched")
		if err := e.applyRule(ctx, d, rule); err != nil {
			return err
		}
		break
	}

	if d.Status == models.DecisionPending && d.AutoDecisionThreshold != nil {
		return e.attemptAutoDecision(ctx, d)
	}
	return nil
}

func (e *DecisionEngine) ruleMatches(rule models.DecisionRule, d *models.Decision) bool {
	for _, cond := range rule.Conditions {
		value, err := lookupField(d, cond.Field)
		if err != nil {
			e.logger.Warn().Err(err).Str("rule", rule.Name).Msg("rule condition skipped")
			return false
		}
		if !matchCondition(cond.Operator, value, cond.Value) {
			return false
		}
	}
	return true
}

func (e *DecisionEngine) applyRule(ctx context.Context, d *models.Decision, rule models.DecisionRule) error {
	reasoning := rule.StringParam("reasoning")

	switch rule.Action {
	case models.ActionAutoApprove:
		if len(d.Options) == 0 {
			return nil
		}
		optionID := rule.StringParam("optionId")
		if optionID == "" {
			optionID = d.Options[0].ID
		}
		if reasoning == "" {
			reasoning = "Auto-approved by rule: " + rule.Name
		}
		return e.resolve(ctx, d, models.DecisionAutoApproved, optionID, reasoning, triggerRule)

	case models.ActionAutoReject:
		if reasoning == "" {
			reasoning = "Auto-rejected by rule: " + rule.Name
		}
		return e.resolve(ctx, d, models.DecisionRejected, "", reasoning, triggerRule)

	case models.ActionEscalate:
		if reasoning == "" {
			reasoning = "Escalated by rule: " + rule.Name
		}
		d.Status = models.DecisionEscalated
		d.EscalatedTo = rule.StringParam("escalateTo")
		d.Reasoning = reasoning
		d.UpdatedAt = e.now()
		if err := e.store.SaveDecision(ctx, d); err != nil {
			return fmt.Errorf("failed to escalate decision: %w", err)
		}
		e.metrics.RecordTransition(string(d.Status), triggerRule)
		return nil

	case models.ActionNotify:
		d.NotifyUsers = rule.StringsParam("notifyUsers")
		d.UpdatedAt = e.now()
		if err := e.store.SaveDecision(ctx, d); err != nil {
			return fmt.Errorf("failed to annotate decision: %w", err)
		}
		return nil
	}

	e.logger.Warn().Str("rule", rule.Name).Str("action", string(rule.Action)).Msg("unknown rule action")
	return nil
}

// attemptAutoDecision resolves a pending decision whose best option meets its threshold.
// When decision plugins are registered only the first enabled one is consulted.
func (e *DecisionEngine) attemptAutoDecision(ctx context.Context, d *models.Decision) error {
	if len(d.Options) == 0 {
		return nil
	}
	threshold := *d.AutoDecisionThreshold
	if threshold == 0 {
		threshold = defaultAutoDecisionThreshold
	}

	if e.plugins.HasDecisionPlugins() {
		enabled := e.plugins.EnabledDecisionPlugins()
		if len(enabled) == 0 {
			return nil
		}
		return e.evaluateWithPlugin(ctx, enabled[0], d, threshold)
	}

	best := d.Options[0]
	for _, o := range d.Options[1:] {
		if o.Confidence > best.Confidence {
			best = o
		}
	}
	if best.Confidence < threshold {
		return nil
	}
	return e.resolve(ctx, d, models.DecisionAutoApproved, best.ID, "Auto-approved based on confidence score", triggerThreshold)
}

func (e *DecisionEngine) evaluateWithPlugin(ctx context.Context, p plugin.DecisionPlugin, d *models.Decision, threshold float64) error {
	pluginID := p.Metadata().ID

	callCtx := ctx
	if e.pluginTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.pluginTimeout)
		defer cancel()
	}

	snapshot := d.Clone()
	eval, err := p.EvaluateDecision(callCtx, snapshot.Context, snapshot.Options)
	if err != nil {
		// the decision stays pending
		e.metrics.RecordPluginError(pluginID, "evaluate")
		e.logger.Error().Err(err).Str("plugin", pluginID).Str("decision_id", d.ID).Msg("decision plugin evaluation failed")
		return nil
	}
	if eval == nil || eval.Confidence < threshold {
		return nil
	}
	if _, ok := d.FindOption(eval.Decision); !ok {
		e.logger.Warn().Str("plugin", pluginID).Str("decision_id", d.ID).Str("option", eval.Decision).Msg("plugin chose an unknown option")
		return nil
	}

	reasoning := eval.Reasoning
	if reasoning == "" {
		reasoning = "Auto-approved by decision engine"
	}
	return e.resolve(ctx, d, models.DecisionAutoApproved, eval.Decision, reasoning, triggerPlugin)
}

// resolve moves d to an approved or rejected terminal state and records the outcome
func (e *DecisionEngine) resolve(ctx context.Context, d *models.Decision, status models.DecisionStatus, optionID, reasoning, trigger string) error {
	d.Status = status
	d.SelectedOption = optionID
	d.Reasoning = reasoning
	d.UpdatedAt = e.now()

	if err := e.store.SaveDecision(ctx, d); err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}
	e.metrics.RecordTransition(string(status), trigger)

	outcome := models.OutcomeApproved
	if status == models.DecisionRejected {
		outcome = models.OutcomeRejected
	}
	return e.recordOutcome(ctx, d.ID, outcome, optionID)
}

func (e *DecisionEngine) recordOutcome(ctx context.Context, decisionID string, outcome models.Outcome, optionID string) error {
	entry := models.DecisionHistory{
		DecisionID:     decisionID,
		Outcome:        outcome,
		SelectedOption: optionID,
		Timestamp:      e.now(),
	}
	if err := e.store.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record decision history: %w", err)
	}

	report := plugin.OutcomeReport{Outcome: outcome, SelectedOption: optionID}
	for _, p := range e.plugins.EnabledDecisionPlugins() {
		e.outcomes.Add(1)
		go func(p plugin.DecisionPlugin) {
			defer e.outcomes.Done()

			// detached from the request so the report outlives it
			reportCtx := context.WithoutCancel(ctx)
			if e.pluginTimeout > 0 {
				var cancel context.CancelFunc
				reportCtx, cancel = context.WithTimeout(reportCtx, e.pluginTimeout)
				defer cancel()
			}

			if err := p.RecordOutcome(reportCtx, decisionID, report); err != nil {
				e.metrics.RecordPluginError(p.Metadata().ID, "record_outcome")
				e.logger.Error().Err(err).Str("plugin", p.Metadata().ID).Str("decision_id", decisionID).Msg("failed to record outcome in plugin")
			}
		}(p)
	}
	return nil
}

// Wait blocks until every background outcome report has finished
func (e *DecisionEngine) Wait() {
	e.outcomes.Wait()
}

// ApproveDecision manually approves a decision with one of its options.
// Returns nil when the decision or option does not exist.
func (e *DecisionEngine) ApproveDecision(ctx context.Context, id, optionID, approvedBy, reasoning string) (*models.Decision, error) {
	d, err := e.load(ctx, id)
	if err != nil || d == nil {
		return nil, err
	}
	if _, ok := d.FindOption(optionID); !ok {
		return nil, nil
	}

	if reasoning == "" {
		reasoning = "Manually approved"
	}
	d.ApprovedBy = approvedBy
	if err := e.resolve(ctx, d, models.DecisionApproved, optionID, reasoning, triggerManual); err != nil {
		return nil, err
	}
	return d.Clone(), nil
}

// RejectDecision manually rejects a decision. Returns nil when it does not exist.
func (e *DecisionEngine) RejectDecision(ctx context.Context, id, rejectedBy, reasoning string) (*models.Decision, error) {
	d, err := e.load(ctx, id)
	if err != nil || d == nil {
		return nil, err
	}

	if reasoning == "" {
		reasoning = "Manually rejected"
	}
	d.RejectedBy = rejectedBy
	if err := e.resolve(ctx, d, models.DecisionRejected, "", reasoning, triggerManual); err != nil {
		return nil, err
	}
	return d.Clone(), nil
}

func (e *DecisionEngine) load(ctx context.Context, id string) (*models.Decision, error) {
	d, err := e.store.GetDecision(ctx, id)
	if errors.Is(err, repository.ErrDecisionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return d, nil
}

// AddRule stores a rule with a fresh id. Existing decisions are not re-evaluated.
func (e *DecisionEngine) AddRule(ctx context.Context, rule models.DecisionRule) (*models.DecisionRule, error) {
	rule.ID = "rule-" + uuid.NewString()
	rule.Conditions = slices.Clone(rule.Conditions)
	if err := e.store.SaveRule(ctx, &rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}
	return &rule, nil
}

// RemoveRule deletes a rule and reports whether it existed
func (e *DecisionEngine) RemoveRule(ctx context.Context, id string) (bool, error) {
	removed, err := e.store.DeleteRule(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete rule: %w", err)
	}
	return removed, nil
}

// ListRules returns rules in evaluation order
func (e *DecisionEngine) ListRules(ctx context.Context) ([]models.DecisionRule, error) {
	rules, err := e.store.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// ProvideFeedback attaches a rating to the first history entry of a decision.
// Returns false when the decision has no history.
func (e *DecisionEngine) ProvideFeedback(ctx context.Context, decisionID string, rating int, comments string) (bool, error) {
	ok, err := e.store.AttachFeedback(ctx, decisionID, models.Feedback{Rating: rating, Comments: comments})
	if err != nil {
		return false, fmt.Errorf("failed to attach feedback: %w", err)
	}
	return ok, nil
}

// GetDecision returns a decision, or nil when it does not exist
func (e *DecisionEngine) GetDecision(ctx context.Context, id string) (*models.Decision, error) {
	return e.load(ctx, id)
}

func (e *DecisionEngine) GetAllDecisions(ctx context.Context) ([]models.Decision, error) {
	decisions, err := e.store.ListDecisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	return decisions, nil
}

func (e *DecisionEngine) GetDecisionsByStatus(ctx context.Context, status models.DecisionStatus) ([]models.Decision, error) {
	decisions, err := e.store.ListDecisionsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	return decisions, nil
}

// PendingDecisions returns decisions awaiting manual action
func (e *DecisionEngine) PendingDecisions(ctx context.Context) ([]models.Decision, error) {
	return e.GetDecisionsByStatus(ctx, models.DecisionPending)
}

func (e *DecisionEngine) GetDecisionHistory(ctx context.Context) ([]models.DecisionHistory, error) {
	history, err := e.store.ListHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list decision history: %w", err)
	}
	return history, nil
}

func (e *DecisionEngine) GetDecisionHistoryForDecision(ctx context.Context, decisionID string) ([]models.DecisionHistory, error) {
	history, err := e.store.ListHistoryForDecision(ctx, decisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decision history: %w", err)
	}
	return history, nil
}
