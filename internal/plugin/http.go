package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// HTTPDecisionPlugin delegates decision scoring to a remote service.
// Evaluations are POSTed to <baseURL>/evaluate and outcomes to <baseURL>/outcomes.
type HTTPDecisionPlugin struct {
	meta    Metadata
	baseURL string
	client  *http.Client
}

type evaluateRequest struct {
	Context models.DecisionContext  `json:"context"`
	Options []models.DecisionOption `json:"options"`
}

type outcomeRequest struct {
	DecisionID string `json:"decisionId"`
	OutcomeReport
}

func NewHTTPDecisionPlugin(id, baseURL string, timeout time.Duration) *HTTPDecisionPlugin {
	return &HTTPDecisionPlugin{
		meta: Metadata{
			ID:          id,
			Name:        "Remote decision scorer",
			Description: "Scores pending decisions through an HTTP endpoint",
			Version:     "1.0.0",
			Author:      "platform",
			Category:    CategoryDecision,
			Enabled:     true,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *HTTPDecisionPlugin) Metadata() Metadata {
	return p.meta
}

func (p *HTTPDecisionPlugin) Capabilities() []Capability {
	return []Capability{CapabilityDecision}
}

// EvaluateDecision asks the remote scorer which option to pick
func (p *HTTPDecisionPlugin) EvaluateDecision(ctx context.Context, dctx models.DecisionContext, options []models.DecisionOption) (*Evaluation, error) {
	var eval Evaluation
	if err := p.post(ctx, "/evaluate", evaluateRequest{Context: dctx, Options: options}, &eval); err != nil {
		return nil, fmt.Errorf("failed to evaluate decision: %w", err)
	}
	return &eval, nil
}

// RecordOutcome reports a resolved decision back to the remote scorer
func (p *HTTPDecisionPlugin) RecordOutcome(ctx context.Context, decisionID string, outcome OutcomeReport) error {
	if err := p.post(ctx, "/outcomes", outcomeRequest{DecisionID: decisionID, OutcomeReport: outcome}, nil); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// post sends a JSON payload and decodes the JSON response into out when non-nil
func (p *HTTPDecisionPlugin) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("plugin endpoint returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
