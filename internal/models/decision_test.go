package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionClone_NestedValues(t *testing.T) {
	th := 0.8
	d := &Decision{
		ID: "decision-1",
		Context: DecisionContext{
			Metadata: map[string]any{
				"amount": 250,
				"vendor": map[string]any{"name": "Acme", "tags": []any{"hardware"}},
				"owners": []string{"finance"},
			},
		},
		Options: []DecisionOption{
			{ID: "approve", Impact: OptionImpact{Metrics: map[string]any{"cost": map[string]any{"q3": 100}}}},
		},
		AutoDecisionThreshold: &th,
	}

	c := d.Clone()
	require.NotNil(t, c)

	c.Context.Metadata["vendor"].(map[string]any)["name"] = "Globex"
	c.Context.Metadata["vendor"].(map[string]any)["tags"].([]any)[0] = "software"
	c.Context.Metadata["owners"].([]string)[0] = "ops"
	c.Options[0].Impact.Metrics["cost"].(map[string]any)["q3"] = 999
	*c.AutoDecisionThreshold = 0.1

	vendor := d.Context.Metadata["vendor"].(map[string]any)
	assert.Equal(t, "Acme", vendor["name"])
	assert.Equal(t, []any{"hardware"}, vendor["tags"])
	assert.Equal(t, []string{"finance"}, d.Context.Metadata["owners"])
	assert.Equal(t, 100, d.Options[0].Impact.Metrics["cost"].(map[string]any)["q3"])
	assert.Equal(t, 0.8, *d.AutoDecisionThreshold)
}

func TestDecisionClone_Nil(t *testing.T) {
	var d *Decision
	assert.Nil(t, d.Clone())

	c := (&Decision{ID: "decision-2"}).Clone()
	assert.Nil(t, c.Context.Metadata)
	assert.Empty(t, c.Options)
}
