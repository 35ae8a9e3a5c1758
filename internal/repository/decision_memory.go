package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// MemoryDecisionRepository keeps decisions, rules and history in process.
// Every read returns copies so callers never alias stored state.
type MemoryDecisionRepository struct {
	mu        sync.RWMutex
	decisions map[string]*models.Decision
	order     []string
	rules     []models.DecisionRule
	history   []models.DecisionHistory
}

func NewMemoryDecisionRepository() *MemoryDecisionRepository {
	return &MemoryDecisionRepository{
		decisions: make(map[string]*models.Decision),
	}
}

// SaveDecision inserts or replaces a decision
func (r *MemoryDecisionRepository) SaveDecision(_ context.Context, d *models.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.decisions[d.ID]; !ok {
		r.order = append(r.order, d.ID)
	}
	r.decisions[d.ID] = d.Clone()
	return nil
}

// GetDecision retrieves a decision by its ID
func (r *MemoryDecisionRepository) GetDecision(_ context.Context, id string) (*models.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.decisions[id]
	if !ok {
		return nil, ErrDecisionNotFound
	}
	return d.Clone(), nil
}

// ListDecisions returns all decisions in creation order
func (r *MemoryDecisionRepository) ListDecisions(_ context.Context) ([]models.Decision, error) {
	return r.list(func(*models.Decision) bool { return true }), nil
}

// ListDecisionsByStatus returns decisions with the given status in creation order
func (r *MemoryDecisionRepository) ListDecisionsByStatus(_ context.Context, status models.DecisionStatus) ([]models.Decision, error) {
	return r.list(func(d *models.Decision) bool { return d.Status == status }), nil
}

func (r *MemoryDecisionRepository) list(keep func(*models.Decision) bool) []models.Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Decision, 0, len(r.order))
	for _, id := range r.order {
		if d := r.decisions[id]; keep(d) {
			out = append(out, *d.Clone())
		}
	}
	return out
}

// SaveRule adds a rule, replacing one with the same ID, and keeps the list
// sorted by ascending priority
func (r *MemoryDecisionRepository) SaveRule(_ context.Context, rule *models.DecisionRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneRule(*rule)
	idx := slices.IndexFunc(r.rules, func(x models.DecisionRule) bool { return x.ID == rule.ID })
	if idx >= 0 {
		r.rules[idx] = stored
	} else {
		r.rules = append(r.rules, stored)
	}
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority < r.rules[j].Priority
	})
	return nil
}

// DeleteRule removes a rule and reports whether it existed
func (r *MemoryDecisionRepository) DeleteRule(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.rules, func(x models.DecisionRule) bool { return x.ID == id })
	if idx < 0 {
		return false, nil
	}
	r.rules = slices.Delete(r.rules, idx, idx+1)
	return true, nil
}

// ListRules returns rules in ascending priority order
func (r *MemoryDecisionRepository) ListRules(_ context.Context) ([]models.DecisionRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.DecisionRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, cloneRule(rule))
	}
	return out, nil
}

// AppendHistory adds an entry to the end of the audit log
func (r *MemoryDecisionRepository) AppendHistory(_ context.Context, entry models.DecisionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.Feedback = nil
	r.history = append(r.history, entry)
	return nil
}

// ListHistory returns the full audit log, oldest first
func (r *MemoryDecisionRepository) ListHistory(_ context.Context) ([]models.DecisionHistory, error) {
	return r.historyWhere(func(models.DecisionHistory) bool { return true }), nil
}

// ListHistoryForDecision returns the audit entries of one decision, oldest first
func (r *MemoryDecisionRepository) ListHistoryForDecision(_ context.Context, decisionID string) ([]models.DecisionHistory, error) {
	return r.historyWhere(func(h models.DecisionHistory) bool { return h.DecisionID == decisionID }), nil
}

func (r *MemoryDecisionRepository) historyWhere(keep func(models.DecisionHistory) bool) []models.DecisionHistory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.DecisionHistory, 0)
	for _, h := range r.history {
		if !keep(h) {
			continue
		}
		if h.Feedback != nil {
			fb := *h.Feedback
			h.Feedback = &fb
		}
		out = append(out, h)
	}
	return out
}

// AttachFeedback sets feedback on the first history entry of a decision
func (r *MemoryDecisionRepository) AttachFeedback(_ context.Context, decisionID string, fb models.Feedback) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.history {
		if r.history[i].DecisionID == decisionID {
			r.history[i].Feedback = &fb
			return true, nil
		}
	}
	return false, nil
}

func cloneRule(rule models.DecisionRule) models.DecisionRule {
	rule.Conditions = slices.Clone(rule.Conditions)
	rule.ActionParams = maps.Clone(rule.ActionParams)
	return rule
}
