package service

import (
	"context"
	"fmt"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// SampleRules returns the built-in rule set used when no rules file is configured
func SampleRules() []models.DecisionRule {
	return []models.DecisionRule{
		{
			Name:        "Auto-approve small budget requests",
			Description: "Automatically approve budget requests under $500",
			Category:    models.CategoryBudget,
			Conditions: []models.RuleCondition{
				{Field: "context.metadata.amount", Operator: models.OpLessThan, Value: 500},
			},
			Action: models.ActionAutoApprove,
			ActionParams: map[string]any{
				"optionId":  "approve",
				"reasoning": "Auto-approved as amount is under $500 threshold",
			},
			Priority: 10,
			Enabled:  true,
		},
		{
			Name:        "Escalate large budget requests",
			Description: "Escalate budget requests over $1000 to department head",
			Category:    models.CategoryBudget,
			Conditions: []models.RuleCondition{
				{Field: "context.metadata.amount", Operator: models.OpGreaterThan, Value: 1000},
			},
			Action: models.ActionEscalate,
			ActionParams: map[string]any{
				"escalateTo": "user",
				"reasoning":  "Escalated as amount exceeds $1000 threshold",
			},
			Priority: 5,
			Enabled:  true,
		},
		{
			Name:        "Auto-approve meeting reschedules with high confidence",
			Description: "Automatically approve meeting reschedules if confidence is high",
			Category:    models.CategoryScheduling,
			Conditions: []models.RuleCondition{
				{Field: "options.0.confidence", Operator: models.OpGreaterThan, Value: 0.8},
			},
			Action: models.ActionAutoApprove,
			ActionParams: map[string]any{
				"optionId":  "reschedule",
				"reasoning": "Auto-approved as confidence in reschedule option is high",
			},
			Priority: 20,
			Enabled:  true,
		},
	}
}

// SampleDecisions returns the demo decisions created on first start
func SampleDecisions() []models.DecisionInput {
	threshold := func() *float64 { v := 0.8; return &v }

	return []models.DecisionInput{
		{
			Title:       "Office Supplies Budget Approval",
			Description: "Request for $250 to purchase office supplies for the engineering team",
			Category:    models.CategoryBudget,
			Priority:    models.PriorityMedium,
			Context: models.DecisionContext{
				UserID:       "user",
				DepartmentID: "d1",
				Metadata: map[string]any{
					"amount":      250,
					"currency":    "USD",
					"purpose":     "Office supplies",
					"requestedBy": "Alex Johnson",
				},
			},
			Options: []models.DecisionOption{
				{
					ID:          "approve",
					Description: "Approve the budget request",
					Impact: models.OptionImpact{
						Description: "Will allow the team to purchase necessary supplies",
						Scope:       models.ScopeTeam,
						Metrics:     map[string]any{"budget": -250},
					},
					Confidence: 0.9,
				},
				{
					ID:          "reject",
					Description: "Reject the budget request",
					Impact: models.OptionImpact{
						Description: "Team will need to wait for supplies or find alternatives",
						Scope:       models.ScopeTeam,
					},
					Confidence: 0.1,
				},
			},
			AutoDecisionThreshold: threshold(),
		},
		{
			Title:       "Team Meeting Rescheduling",
			Description: "Weekly team sync needs to be rescheduled due to conflicts",
			Category:    models.CategoryScheduling,
			Priority:    models.PriorityMedium,
			Context: models.DecisionContext{
				UserID: "user",
				TeamID: "engineering",
				Metadata: map[string]any{
					"currentTime":  "Wednesday 10:00 AM",
					"proposedTime": "Thursday 2:00 PM",
					"attendees":    []any{"m1", "dev1", "dev2", "dev3", "ic1"},
				},
			},
			Options: []models.DecisionOption{
				{
					ID:          "reschedule",
					Description: "Reschedule to Thursday 2:00 PM",
					Impact: models.OptionImpact{
						Description: "All team members can attend",
						Scope:       models.ScopeTeam,
					},
					Confidence: 0.85,
				},
				{
					ID:          "keep",
					Description: "Keep the current schedule",
					Impact: models.OptionImpact{
						Description: "Some team members will miss the meeting",
						Scope:       models.ScopeTeam,
					},
					Confidence: 0.15,
				},
			},
			AutoDecisionThreshold: threshold(),
		},
		{
			Title:       "New Hire Equipment Purchase",
			Description: "Request to purchase a laptop for new team member",
			Category:    models.CategoryBudget,
			Priority:    models.PriorityHigh,
			Context: models.DecisionContext{
				UserID:       "user",
				DepartmentID: "d1",
				Metadata: map[string]any{
					"amount":      1800,
					"currency":    "USD",
					"purpose":     "New hire laptop",
					"requestedBy": "Emily Rodriguez",
					"forEmployee": "New Designer",
				},
			},
			Options: []models.DecisionOption{
				{
					ID:          "approve",
					Description: "Approve the equipment purchase",
					Impact: models.OptionImpact{
						Description: "New hire will have necessary equipment",
						Scope:       models.ScopeIndividual,
						Metrics:     map[string]any{"budget": -1800},
					},
					Confidence: 0.7,
				},
				{
					ID:          "alternative",
					Description: "Provide a refurbished laptop",
					Impact: models.OptionImpact{
						Description: "Save budget but may not meet all requirements",
						Scope:       models.ScopeIndividual,
						Metrics:     map[string]any{"budget": -800},
					},
					Confidence: 0.2,
				},
				{
					ID:          "reject",
					Description: "Reject the purchase request",
					Impact: models.OptionImpact{
						Description: "New hire will not have necessary equipment",
						Scope:       models.ScopeIndividual,
					},
					Confidence: 0.1,
				},
			},
			AutoDecisionThreshold: threshold(),
		},
	}
}

// SeedDecisions loads rules and then the sample decisions, so the samples go
// through rule evaluation. Does nothing if the store already holds decisions.
// A nil rules slice means the built-in sample rules.
func (e *DecisionEngine) SeedDecisions(ctx context.Context, rules []models.DecisionRule) error {
	existing, err := e.GetAllDecisions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		e.logger.Info().Int("decisions", len(existing)).Msg("store already has data, skipping seed")
		return nil
	}

	if rules == nil {
		rules = SampleRules()
	}

	e.logger.Info().Int("rules", len(rules)).Msg("seeding decision rules and sample decisions")
	for _, rule := range rules {
		if _, err := e.AddRule(ctx, rule); err != nil {
			return fmt.Errorf("failed to seed rule %q: %w", rule.Name, err)
		}
	}

	for _, in := range SampleDecisions() {
		d, err := e.CreateDecision(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to seed decision %q: %w", in.Title, err)
		}
		e.logger.Debug().Str("decision_id", d.ID).Str("status", string(d.Status)).Msg("seeded decision")
	}

	return nil
}
