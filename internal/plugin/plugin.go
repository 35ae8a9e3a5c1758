// Package plugin defines capability-tagged plugins and the registry that owns them.
package plugin

import (
	"context"
	"slices"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// Capability names an interface a plugin implements
type Capability string

const (
	CapabilityIntegration Capability = "integration"
	CapabilityAutomation  Capability = "automation"
	CapabilityDecision    Capability = "decision"
)

// Category is the catalogue grouping shown to administrators
type Category string

const (
	CategoryIntegration  Category = "integration"
	CategoryAutomation   Category = "automation"
	CategoryMonitoring   Category = "monitoring"
	CategoryOrganization Category = "organization"
	CategoryDecision     Category = "decision"
)

// Metadata identifies a plugin. Enabled is the initial state; afterwards
// the registry owns the flag.
type Metadata struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Author      string   `json:"author"`
	Icon        string   `json:"icon,omitempty"`
	Category    Category `json:"category"`
	Enabled     bool     `json:"enabled"`
}

// Plugin is the base every plugin implements
type Plugin interface {
	Metadata() Metadata
	Capabilities() []Capability
}

// Evaluation is a plugin's proposed outcome for a decision
type Evaluation struct {
	Decision   string  `json:"decision"` // option id
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// OutcomeReport tells a plugin how a decision was resolved
type OutcomeReport struct {
	Outcome        models.Outcome `json:"outcome"`
	SelectedOption string         `json:"selectedOption"`
}

// DecisionPlugin scores decisions on behalf of the engine
type DecisionPlugin interface {
	Plugin
	EvaluateDecision(ctx context.Context, dctx models.DecisionContext, options []models.DecisionOption) (*Evaluation, error)
	RecordOutcome(ctx context.Context, decisionID string, outcome OutcomeReport) error
}

// IntegrationPlugin connects the dashboard to an external system
type IntegrationPlugin interface {
	Plugin
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
}

// AutomationPlugin runs and schedules tasks
type AutomationPlugin interface {
	Plugin
	ExecuteTask(ctx context.Context, taskID string, params map[string]any) (any, error)
	ScheduleTask(ctx context.Context, definition map[string]any, schedule string) (string, error)
	CancelTask(ctx context.Context, taskID string) (bool, error)
}

// Has reports whether p declares capability c
func Has(p Plugin, c Capability) bool {
	return slices.Contains(p.Capabilities(), c)
}

// AsDecisionPlugin returns p as a DecisionPlugin when it declares and implements the capability
func AsDecisionPlugin(p Plugin) (DecisionPlugin, bool) {
	if !Has(p, CapabilityDecision) {
		return nil, false
	}
	dp, ok := p.(DecisionPlugin)
	return dp, ok
}

// AsIntegrationPlugin returns p as an IntegrationPlugin when it declares and implements the capability
func AsIntegrationPlugin(p Plugin) (IntegrationPlugin, bool) {
	if !Has(p, CapabilityIntegration) {
		return nil, false
	}
	ip, ok := p.(IntegrationPlugin)
	return ip, ok
}

// AsAutomationPlugin returns p as an AutomationPlugin when it declares and implements the capability
func AsAutomationPlugin(p Plugin) (AutomationPlugin, bool) {
	if !Has(p, CapabilityAutomation) {
		return nil, false
	}
	ap, ok := p.(AutomationPlugin)
	return ap, ok
}
