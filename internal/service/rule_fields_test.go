package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gti/mgmt-dashboard/internal/models"
)

func fieldsDecision() *models.Decision {
	th := 0.75
	return &models.Decision{
		Title:    "Laptop purchase",
		Category: models.CategoryBudget,
		Priority: models.PriorityHigh,
		Status:   models.DecisionPending,
		Context: models.DecisionContext{
			UserID:          "u-1",
			TeamID:          "platform",
			RelatedEntities: []string{"proj-9", "vendor-2"},
			Metadata: map[string]any{
				"amount": 1800,
				"vendor": map[string]any{"name": "Acme", "tier": 2.0},
				"tags":   []any{"hardware", "q3"},
			},
		},
		Options: []models.DecisionOption{
			{
				ID:         "approve",
				Confidence: 0.7,
				Impact: models.OptionImpact{
					Scope:   models.ScopeIndividual,
					Metrics: map[string]any{"budget": -1800},
				},
			},
			{ID: "reject", Confidence: 0.2},
		},
		AutoDecisionThreshold: &th,
	}
}

func TestLookupField(t *testing.T) {
	d := fieldsDecision()

	tests := []struct {
		path string
		want any
	}{
		{"title", "Laptop purchase"},
		{"category", "budget"},
		{"priority", "high"},
		{"status", "pending"},
		{"autoDecisionThreshold", 0.75},
		{"context.userId", "u-1"},
		{"context.teamId", "platform"},
		{"context.departmentId", nil},
		{"context.relatedEntities", []string{"proj-9", "vendor-2"}},
		{"context.metadata.amount", 1800},
		{"context.metadata.vendor.name", "Acme"},
		{"context.metadata.vendor.missing", nil},
		{"context.metadata.amount.nested", nil},
		{"options", []string{"approve", "reject"}},
		{"options.0.id", "approve"},
		{"options.0.confidence", 0.7},
		{"options.0.impact.scope", "individual"},
		{"options.0.impact.metrics.budget", -1800},
		{"options.1.impact.metrics.budget", nil},
		{"options.5.confidence", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := lookupField(d, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupField_Unknown(t *testing.T) {
	d := fieldsDecision()

	for _, path := range []string{"amount", "context.metadata.", "options.x.id", "options.0.weight", "options.-1.id", "options.0"} {
		t.Run(path, func(t *testing.T) {
			_, err := lookupField(d, path)
			assert.ErrorIs(t, err, errUnknownField)
		})
	}
}

func TestMatchCondition(t *testing.T) {
	tests := []struct {
		name  string
		op    models.ConditionOperator
		field any
		value any
		want  bool
	}{
		{"equals across numeric types", models.OpEquals, 500, 500.0, true},
		{"equals strings", models.OpEquals, "budget", "budget", true},
		{"equals type mismatch", models.OpEquals, "500", 500, false},
		{"equals absent field", models.OpEquals, nil, "x", false},
		{"not equals absent field", models.OpNotEquals, nil, "x", true},
		{"greater than", models.OpGreaterThan, 1800, 1000, true},
		{"greater than equal values", models.OpGreaterThan, 1000, 1000, false},
		{"less than", models.OpLessThan, 0.7, 0.8, true},
		{"less than strings", models.OpLessThan, "apple", "banana", true},
		{"less than absent field", models.OpLessThan, nil, 500, false},
		{"numeric string greater than number", models.OpGreaterThan, "900", 500, true},
		{"numeric string less than number", models.OpLessThan, "200", 500, true},
		{"number less than numeric string", models.OpLessThan, 200, " 500 ", true},
		{"numeric strings compare lexically", models.OpLessThan, "1000", "200", true},
		{"non-numeric string against number", models.OpGreaterThan, "lots", 500, false},
		{"bool against number", models.OpLessThan, true, 500, false},
		{"contains substring", models.OpContains, "Laptop purchase", "purchase", true},
		{"contains list member", models.OpContains, []string{"a", "b"}, "b", true},
		{"contains any list", models.OpContains, []any{"hardware", 3.0}, 3, true},
		{"contains missing member", models.OpContains, []string{"a"}, "z", false},
		{"contains absent field", models.OpContains, nil, "a", false},
		{"not contains", models.OpNotContains, "Laptop purchase", "desk", true},
		{"not contains absent field", models.OpNotContains, nil, "a", true},
		{"unknown operator", models.ConditionOperator("matches"), "a", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchCondition(tt.op, tt.field, tt.value))
		})
	}
}
