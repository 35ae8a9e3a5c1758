package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gti/mgmt-dashboard/internal/metrics"
	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/plugin"
	"github.com/gti/mgmt-dashboard/internal/repository"
)

type fakeDecisionPlugin struct {
	id      string
	enabled bool
	eval    *plugin.Evaluation
	err     error

	mu       sync.Mutex
	calls    int
	outcomes map[string]plugin.OutcomeReport
}

func (p *fakeDecisionPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{ID: p.id, Name: p.id, Category: plugin.CategoryDecision, Enabled: p.enabled}
}

func (p *fakeDecisionPlugin) Capabilities() []plugin.Capability {
	return []plugin.Capability{plugin.CapabilityDecision}
}

func (p *fakeDecisionPlugin) EvaluateDecision(_ context.Context, _ models.DecisionContext, _ []models.DecisionOption) (*plugin.Evaluation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.eval, p.err
}

func (p *fakeDecisionPlugin) RecordOutcome(_ context.Context, decisionID string, outcome plugin.OutcomeReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outcomes == nil {
		p.outcomes = make(map[string]plugin.OutcomeReport)
	}
	p.outcomes[decisionID] = outcome
	return nil
}

func (p *fakeDecisionPlugin) evaluations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeDecisionPlugin) outcome(decisionID string) (plugin.OutcomeReport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.outcomes[decisionID]
	return o, ok
}

var fixedNow = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, plugins ...plugin.Plugin) (*DecisionEngine, *repository.MemoryDecisionRepository) {
	t.Helper()

	registry := plugin.NewRegistry()
	for _, p := range plugins {
		require.NoError(t, registry.Register(p))
	}

	store := repository.NewMemoryDecisionRepository()
	engine := NewDecisionEngine(store, registry, metrics.New(), zerolog.Nop(), time.Second)
	engine.now = func() time.Time { return fixedNow }
	return engine, store
}

func threshold(v float64) *float64 { return &v }

func budgetInput(amount any, th *float64) models.DecisionInput {
	return models.DecisionInput{
		Title:    "Team offsite",
		Category: models.CategoryBudget,
		Priority: models.PriorityMedium,
		Context: models.DecisionContext{
			UserID:   "manager",
			Metadata: map[string]any{"amount": amount},
		},
		Options: []models.DecisionOption{
			{ID: "approve", Description: "Approve", Confidence: 0.9, Impact: models.OptionImpact{Scope: models.ScopeTeam}},
			{ID: "reject", Description: "Reject", Confidence: 0.1, Impact: models.OptionImpact{Scope: models.ScopeTeam}},
		},
		AutoDecisionThreshold: th,
	}
}

func smallBudgetRule() models.DecisionRule {
	return models.DecisionRule{
		Name:     "small budget",
		Category: models.CategoryBudget,
		Conditions: []models.RuleCondition{
			{Field: "context.metadata.amount", Operator: models.OpLessThan, Value: 500},
		},
		Action:       models.ActionAutoApprove,
		ActionParams: map[string]any{"optionId": "approve"},
		Priority:     10,
		Enabled:      true,
	}
}

func TestCreateDecision_ThresholdAutoApproves(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.CreateDecision(ctx, budgetInput(2000, threshold(0.8)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(d.ID, "decision-"))
	assert.Equal(t, models.DecisionAutoApproved, d.Status)
	assert.Equal(t, "approve", d.SelectedOption)
	assert.Equal(t, "Auto-approved based on confidence score", d.Reasoning)
	assert.Equal(t, fixedNow, d.CreatedAt)

	history, err := engine.GetDecisionHistoryForDecision(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OutcomeApproved, history[0].Outcome)
	assert.Equal(t, "approve", history[0].SelectedOption)
}

func TestCreateDecision_BelowThresholdStaysPending(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.CreateDecision(ctx, budgetInput(2000, threshold(0.95)))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, d.Status)

	noThreshold, err := engine.CreateDecision(ctx, budgetInput(2000, nil))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, noThreshold.Status)

	pending, err := engine.PendingDecisions(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	history, err := engine.GetDecisionHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateDecision_ThresholdBoundaries(t *testing.T) {
	ctx := context.Background()

	withConfidences := func(first, second float64, th *float64) models.DecisionInput {
		in := budgetInput(2000, th)
		in.Options[0].Confidence = first
		in.Options[1].Confidence = second
		return in
	}

	tests := []struct {
		name       string
		input      models.DecisionInput
		wantStatus models.DecisionStatus
		wantOption string
	}{
		{"tie picks first option", withConfidences(0.7, 0.7, threshold(0.5)), models.DecisionAutoApproved, "approve"},
		{"later option wins only when higher", withConfidences(0.6, 0.7, threshold(0.5)), models.DecisionAutoApproved, "reject"},
		{"confidence equal to threshold", withConfidences(0.8, 0.1, threshold(0.8)), models.DecisionAutoApproved, "approve"},
		{"confidence just below threshold", withConfidences(0.79, 0.1, threshold(0.8)), models.DecisionPending, ""},
		{"zero threshold falls back to default", withConfidences(0.2, 0.1, threshold(0)), models.DecisionPending, ""},
		{"zero threshold approves at default", withConfidences(0.85, 0.1, threshold(0)), models.DecisionAutoApproved, "approve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)

			d, err := engine.CreateDecision(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, d.Status)
			assert.Equal(t, tt.wantOption, d.SelectedOption)
		})
	}
}

func TestCreateDecision_RuleComparesNumericStrings(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.AddRule(ctx, smallBudgetRule())
	require.NoError(t, err)

	d, err := engine.CreateDecision(ctx, budgetInput("200", nil))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionAutoApproved, d.Status)

	large, err := engine.CreateDecision(ctx, budgetInput("2000", nil))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, large.Status)
}

func TestCreateDecision_RuleAutoApproves(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.AddRule(ctx, smallBudgetRule())
	require.NoError(t, err)

	d, err := engine.CreateDecision(ctx, budgetInput(200, nil))
	require.NoError(t, err)

	assert.Equal(t, models.DecisionAutoApproved, d.Status)
	assert.Equal(t, "approve", d.SelectedOption)
	assert.Equal(t, "Auto-approved by rule: small budget", d.Reasoning)

	history, err := engine.GetDecisionHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, d.ID, history[0].DecisionID)
}

func TestCreateDecision_RulesEvaluatedByPriority(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	escalate := models.DecisionRule{
		Name:         "all budget escalates",
		Category:     models.CategoryBudget,
		Action:       models.ActionEscalate,
		ActionParams: map[string]any{"escalateTo": "cfo", "reasoning": "Escalated to finance"},
		Priority:     5,
		Enabled:      true,
	}
	_, err := engine.AddRule(ctx, smallBudgetRule())
	require.NoError(t, err)
	_, err = engine.AddRule(ctx, escalate)
	require.NoError(t, err)

	d, err := engine.CreateDecision(ctx, budgetInput(100, threshold(0.5)))
	require.NoError(t, err)

	assert.Equal(t, models.DecisionEscalated, d.Status)
	assert.Equal(t, "cfo", d.EscalatedTo)
	assert.Equal(t, "Escalated to finance", d.Reasoning)
	assert.Empty(t, d.SelectedOption)

	history, err := engine.GetDecisionHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history, "escalation is not an approve/reject outcome")
}

func TestCreateDecision_DisabledAndOtherCategoryRules(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	disabled := smallBudgetRule()
	disabled.Enabled = false
	disabled.Priority = 1
	_, err := engine.AddRule(ctx, disabled)
	require.NoError(t, err)

	wildcard := models.DecisionRule{
		Name:     "reject offsites",
		Category: models.CategoryOther,
		Conditions: []models.RuleCondition{
			{Field: "title", Operator: models.OpContains, Value: "offsite"},
		},
		Action:   models.ActionAutoReject,
		Priority: 50,
		Enabled:  true,
	}
	_, err = engine.AddRule(ctx, wildcard)
	require.NoError(t, err)

	d, err := engine.CreateDecision(ctx, budgetInput(100, nil))
	require.NoError(t, err)

	assert.Equal(t, models.DecisionRejected, d.Status)
	assert.Equal(t, "Auto-rejected by rule: reject offsites", d.Reasoning)

	history, err := engine.GetDecisionHistoryForDecision(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OutcomeRejected, history[0].Outcome)
	assert.Empty(t, history[0].SelectedOption)
}

func TestCreateDecision_CategoryMismatchSkipsRule(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	rule := smallBudgetRule()
	rule.Category = models.CategoryScheduling
	_, err := engine.AddRule(ctx, rule)
	require.NoError(t, err)

	d, err := engine.CreateDecision(ctx, budgetInput(100, nil))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, d.Status)
}

func TestCreateDecision_NotifyRuleKeepsThresholdPath(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	notify := models.DecisionRule{
		Name:         "notify finance",
		Category:     models.CategoryBudget,
		Action:       models.ActionNotify,
		ActionParams: map[string]any{"notifyUsers": []any{"finance@example.com", "cfo@example.com"}},
		Priority:     1,
		Enabled:      true,
	}
	_, err := engine.AddRule(ctx, notify)
	require.NoError(t, err)
	_, err = engine.AddRule(ctx, smallBudgetRule())
	require.NoError(t, err)

	d, err := engine.CreateDecision(ctx, budgetInput(100, threshold(0.8)))
	require.NoError(t, err)

	assert.Equal(t, []string{"finance@example.com", "cfo@example.com"}, d.NotifyUsers)
	// notify stops rule evaluation, so only the threshold can resolve it
	assert.Equal(t, models.DecisionAutoApproved, d.Status)
	assert.Equal(t, "Auto-approved based on confidence score", d.Reasoning)
}

func TestCreateDecision_UnknownFieldDoesNotMatch(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	rule := smallBudgetRule()
	rule.Conditions = []models.RuleCondition{{Field: "budget.amount", Operator: models.OpLessThan, Value: 500}}
	_, err := engine.AddRule(ctx, rule)
	require.NoError(t, err)

	d, err := engine.CreateDecision(ctx, budgetInput(100, nil))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, d.Status)
}

func TestCreateDecision_DoesNotAliasInput(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	in := budgetInput(100, nil)
	d, err := engine.CreateDecision(ctx, in)
	require.NoError(t, err)

	in.Options[0].ID = "mutated"
	in.Context.Metadata["amount"] = 9999

	stored, err := engine.GetDecision(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "approve", stored.Options[0].ID)
	assert.Equal(t, 100, stored.Context.Metadata["amount"])
}

func TestCreateDecision_PluginApproves(t *testing.T) {
	p := &fakeDecisionPlugin{
		id:      "scorer",
		enabled: true,
		eval:    &plugin.Evaluation{Decision: "reject", Confidence: 0.95, Reasoning: "Budget exhausted"},
	}
	engine, _ := newTestEngine(t, p)
	ctx := context.Background()

	d, err := engine.CreateDecision(ctx, budgetInput(2000, threshold(0.8)))
	require.NoError(t, err)
	engine.Wait()

	assert.Equal(t, models.DecisionAutoApproved, d.Status)
	assert.Equal(t, "reject", d.SelectedOption)
	assert.Equal(t, "Budget exhausted", d.Reasoning)
	assert.Equal(t, 1, p.evaluations())

	report, ok := p.outcome(d.ID)
	require.True(t, ok, "plugin should receive the outcome")
	assert.Equal(t, models.OutcomeApproved, report.Outcome)
	assert.Equal(t, "reject", report.SelectedOption)
}

func TestCreateDecision_PluginVetoesLocalThreshold(t *testing.T) {
	tests := []struct {
		name   string
		plugin *fakeDecisionPlugin
	}{
		{"evaluation fails", &fakeDecisionPlugin{id: "p", enabled: true, err: errors.New("scorer unavailable")}},
		{"low confidence", &fakeDecisionPlugin{id: "p", enabled: true, eval: &plugin.Evaluation{Decision: "approve", Confidence: 0.3}}},
		{"unknown option", &fakeDecisionPlugin{id: "p", enabled: true, eval: &plugin.Evaluation{Decision: "maybe", Confidence: 0.99}}},
		{"disabled plugin", &fakeDecisionPlugin{id: "p", enabled: false, eval: &plugin.Evaluation{Decision: "approve", Confidence: 0.99}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, tt.plugin)

			d, err := engine.CreateDecision(context.Background(), budgetInput(2000, threshold(0.8)))
			require.NoError(t, err)
			engine.Wait()

			assert.Equal(t, models.DecisionPending, d.Status)
			assert.Empty(t, d.SelectedOption)
		})
	}
}

func TestCreateDecision_OnlyFirstEnabledPluginEvaluates(t *testing.T) {
	first := &fakeDecisionPlugin{id: "first", enabled: true, eval: &plugin.Evaluation{Decision: "approve", Confidence: 0.9}}
	second := &fakeDecisionPlugin{id: "second", enabled: true, eval: &plugin.Evaluation{Decision: "reject", Confidence: 0.9}}
	engine, _ := newTestEngine(t, first, second)

	d, err := engine.CreateDecision(context.Background(), budgetInput(2000, threshold(0.8)))
	require.NoError(t, err)
	engine.Wait()

	assert.Equal(t, "approve", d.SelectedOption)
	assert.Equal(t, 1, first.evaluations())
	assert.Equal(t, 0, second.evaluations())

	_, ok := second.outcome(d.ID)
	assert.True(t, ok, "every enabled plugin receives outcomes")
}

func TestApproveDecision(t *testing.T) {
	p := &fakeDecisionPlugin{id: "observer", enabled: true}
	engine, _ := newTestEngine(t, p)
	ctx := context.Background()

	d, err := engine.CreateDecision(ctx, budgetInput(2000, nil))
	require.NoError(t, err)

	approved, err := engine.ApproveDecision(ctx, d.ID, "reject", "lead", "")
	require.NoError(t, err)
	require.NotNil(t, approved)
	engine.Wait()

	assert.Equal(t, models.DecisionApproved, approved.Status)
	assert.Equal(t, "reject", approved.SelectedOption)
	assert.Equal(t, "lead", approved.ApprovedBy)
	assert.Equal(t, "Manually approved", approved.Reasoning)

	report, ok := p.outcome(d.ID)
	require.True(t, ok)
	assert.Equal(t, models.OutcomeApproved, report.Outcome)

	missingOption, err := engine.ApproveDecision(ctx, d.ID, "nope", "lead", "")
	require.NoError(t, err)
	assert.Nil(t, missingOption)

	missing, err := engine.ApproveDecision(ctx, "decision-unknown", "approve", "lead", "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRejectDecision(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.CreateDecision(ctx, budgetInput(2000, nil))
	require.NoError(t, err)

	rejected, err := engine.RejectDecision(ctx, d.ID, "lead", "Out of budget")
	require.NoError(t, err)
	require.NotNil(t, rejected)

	assert.Equal(t, models.DecisionRejected, rejected.Status)
	assert.Equal(t, "lead", rejected.RejectedBy)
	assert.Equal(t, "Out of budget", rejected.Reasoning)
	assert.Empty(t, rejected.SelectedOption)

	history, err := engine.GetDecisionHistoryForDecision(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OutcomeRejected, history[0].Outcome)

	missing, err := engine.RejectDecision(ctx, "decision-unknown", "lead", "")
	require.NoError(t, err)
	assert.Nil(t, missing)

	history, err = engine.GetDecisionHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestProvideFeedback(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.CreateDecision(ctx, budgetInput(2000, threshold(0.5)))
	require.NoError(t, err)

	ok, err := engine.ProvideFeedback(ctx, d.ID, 4, "good call")
	require.NoError(t, err)
	assert.True(t, ok)

	history, err := engine.GetDecisionHistoryForDecision(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Feedback)
	assert.Equal(t, 4, history[0].Feedback.Rating)
	assert.Equal(t, "good call", history[0].Feedback.Comments)

	ok, err = engine.ProvideFeedback(ctx, "decision-unknown", 3, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuleManagement(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	low := smallBudgetRule()
	low.Priority = 30
	high := smallBudgetRule()
	high.Name = "first"
	high.Priority = 1

	added, err := engine.AddRule(ctx, low)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(added.ID, "rule-"))
	_, err = engine.AddRule(ctx, high)
	require.NoError(t, err)

	rules, err := engine.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "first", rules[0].Name)

	removed, err := engine.RemoveRule(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = engine.RemoveRule(ctx, added.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	rules, err = engine.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestGetDecisionsByStatus(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateDecision(ctx, budgetInput(100, threshold(0.5)))
	require.NoError(t, err)
	_, err = engine.CreateDecision(ctx, budgetInput(100, nil))
	require.NoError(t, err)

	all, err := engine.GetAllDecisions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	auto, err := engine.GetDecisionsByStatus(ctx, models.DecisionAutoApproved)
	require.NoError(t, err)
	assert.Len(t, auto, 1)

	missing, err := engine.GetDecision(ctx, "decision-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSeedDecisions(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.SeedDecisions(ctx, nil))

	decisions, err := engine.GetAllDecisions(ctx)
	require.NoError(t, err)
	require.Len(t, decisions, 3)

	statuses := make(map[string]models.DecisionStatus, len(decisions))
	for _, d := range decisions {
		statuses[d.Title] = d.Status
	}
	assert.Equal(t, models.DecisionAutoApproved, statuses["Office Supplies Budget Approval"])
	assert.Equal(t, models.DecisionAutoApproved, statuses["Team Meeting Rescheduling"])
	assert.Equal(t, models.DecisionEscalated, statuses["New Hire Equipment Purchase"])

	rules, err := engine.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 3)
	assert.Equal(t, 5, rules[0].Priority)

	history, err := engine.GetDecisionHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// seeding twice is a no-op
	require.NoError(t, engine.SeedDecisions(ctx, nil))
	decisions, err = engine.GetAllDecisions(ctx)
	require.NoError(t, err)
	assert.Len(t, decisions, 3)
}
