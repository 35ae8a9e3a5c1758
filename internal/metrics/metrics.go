// Package metrics provides Prometheus metrics for the dashboard core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	DecisionsCreated   *prometheus.CounterVec
	DecisionTransition *prometheus.CounterVec
	PluginErrors       *prometheus.CounterVec
	InsightsGenerated  *prometheus.CounterVec
	EventCacheLookups  *prometheus.CounterVec
	ToolCalls          *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		DecisionsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_decisions_created_total",
				Help: "Decisions created by category.",
			},
			[]string{"category"},
		),
		DecisionTransition: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_decision_transitions_total",
				Help: "Decision status transitions by resulting status and trigger.",
			},
			[]string{"status", "trigger"},
		),
		PluginErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_plugin_errors_total",
				Help: "Decision plugin failures by plugin and operation.",
			},
			[]string{"plugin", "operation"},
		),
		InsightsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_calendar_insights_total",
				Help: "Calendar insights produced by type.",
			},
			[]string{"type"},
		),
		EventCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_event_cache_lookups_total",
				Help: "Event cache lookups by result (hit or miss).",
			},
			[]string{"result"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_tool_calls_total",
				Help: "Calendar tool invocations by tool and status.",
			},
			[]string{"tool", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(m.DecisionsCreated)
	reg.MustRegister(m.DecisionTransition)
	reg.MustRegister(m.PluginErrors)
	reg.MustRegister(m.InsightsGenerated)
	reg.MustRegister(m.EventCacheLookups)
	reg.MustRegister(m.ToolCalls)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordDecisionCreated increments the creation counter.
func (m *Metrics) RecordDecisionCreated(category string) {
	if m == nil {
		return
	}
	m.DecisionsCreated.WithLabelValues(category).Inc()
}

// RecordTransition increments the transition counter.
func (m *Metrics) RecordTransition(status, trigger string) {
	if m == nil {
		return
	}
	m.DecisionTransition.WithLabelValues(status, trigger).Inc()
}

// RecordPluginError increments the plugin error counter.
func (m *Metrics) RecordPluginError(pluginID, operation string) {
	if m == nil {
		return
	}
	m.PluginErrors.WithLabelValues(pluginID, operation).Inc()
}

// RecordInsight increments the insight counter.
func (m *Metrics) RecordInsight(insightType string) {
	if m == nil {
		return
	}
	m.InsightsGenerated.WithLabelValues(insightType).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.EventCacheLookups.WithLabelValues(result).Inc()
}

// RecordToolCall increments the tool call counter.
func (m *Metrics) RecordToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
}
