package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gti/mgmt-dashboard/internal/models"
)

type basicPlugin struct {
	meta Metadata
	caps []Capability
}

func (p basicPlugin) Metadata() Metadata         { return p.meta }
func (p basicPlugin) Capabilities() []Capability { return p.caps }

type scorerPlugin struct {
	basicPlugin
}

func (p scorerPlugin) EvaluateDecision(context.Context, models.DecisionContext, []models.DecisionOption) (*Evaluation, error) {
	return &Evaluation{}, nil
}

func (p scorerPlugin) RecordOutcome(context.Context, string, OutcomeReport) error {
	return nil
}

func scorer(id string, enabled bool) scorerPlugin {
	return scorerPlugin{basicPlugin{
		meta: Metadata{ID: id, Name: id, Category: CategoryDecision, Enabled: enabled},
		caps: []Capability{CapabilityDecision},
	}}
}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(scorer("b", true)))
	require.NoError(t, r.Register(scorer("a", false)))
	err := r.Register(scorer("b", false))
	assert.ErrorIs(t, err, ErrPluginExists)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.True(t, list[0].Enabled)
	assert.Equal(t, "a", list[1].ID)
	assert.False(t, list[1].Enabled)

	p, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Metadata().ID)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_EnableDisable(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(scorer("s", false)))

	assert.False(t, r.IsEnabled("s"))
	assert.True(t, r.Enable("s"))
	assert.True(t, r.IsEnabled("s"))
	assert.True(t, r.Disable("s"))
	assert.False(t, r.IsEnabled("s"))

	assert.False(t, r.Enable("missing"))
	assert.False(t, r.IsEnabled("missing"))
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(scorer("one", true)))
	require.NoError(t, r.Register(scorer("two", true)))

	assert.True(t, r.Unregister("one"))
	assert.False(t, r.Unregister("one"))

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].ID)

	// the id can be reused once removed
	assert.NoError(t, r.Register(scorer("one", true)))
}

func TestRegistry_DecisionPlugins(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.HasDecisionPlugins())

	monitor := basicPlugin{
		meta: Metadata{ID: "monitor", Category: CategoryMonitoring, Enabled: true},
		caps: []Capability{CapabilityIntegration},
	}
	// declares the capability without implementing the interface
	liar := basicPlugin{
		meta: Metadata{ID: "liar", Category: CategoryDecision, Enabled: true},
		caps: []Capability{CapabilityDecision},
	}
	require.NoError(t, r.Register(monitor))
	require.NoError(t, r.Register(liar))
	assert.False(t, r.HasDecisionPlugins())

	require.NoError(t, r.Register(scorer("off", false)))
	assert.True(t, r.HasDecisionPlugins())
	assert.Empty(t, r.EnabledDecisionPlugins())

	require.NoError(t, r.Register(scorer("on", true)))
	enabled := r.EnabledDecisionPlugins()
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].Metadata().ID)

	assert.Len(t, r.ByCategory(CategoryDecision), 3)
	assert.Len(t, r.ByCategory(CategoryMonitoring), 1)
}

func TestRegistry_NilIsEmpty(t *testing.T) {
	var r *Registry
	assert.False(t, r.HasDecisionPlugins())
	assert.Empty(t, r.EnabledDecisionPlugins())
}

func TestCapabilityAssertions(t *testing.T) {
	s := scorer("s", true)

	_, ok := AsDecisionPlugin(s)
	assert.True(t, ok)
	_, ok = AsIntegrationPlugin(s)
	assert.False(t, ok)
	_, ok = AsAutomationPlugin(s)
	assert.False(t, ok)
	assert.True(t, Has(s, CapabilityDecision))
}
