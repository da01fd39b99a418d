package visualize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
)

// Mode selects the visualization strategy.
type Mode string

const (
	Mode2D Mode = "2D"
	Mode3D Mode = "3D"
)

// Plan is the planning collaborator's answer for one visualize action.
// Immutable once produced.
type Plan struct {
	Mode      Mode   `json:"mode"`
	Script    string `json:"script"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Planner is the visualization-planning capability: selected text in,
// plan out. Called exactly once per visualize action, never retried.
type Planner interface {
	Plan(ctx context.Context, text string) (Plan, error)
}

// HTTPPlanner talks to a remote planning endpoint.
type HTTPPlanner struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPPlanner creates a planner client.
func NewHTTPPlanner(endpoint, apiKey string, timeout time.Duration) *HTTPPlanner {
	return &HTTPPlanner{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type planRequest struct {
	Text string `json:"text"`
}

// Plan submits the selection text and validates the returned plan.
func (p *HTTPPlanner) Plan(ctx context.Context, text string) (Plan, error) {
	if p.endpoint == "" {
		return Plan{}, apperrors.NewPlanningError("no planner endpoint configured", nil)
	}

	body, err := json.Marshal(planRequest{Text: text})
	if err != nil {
		return Plan{}, apperrors.NewPlanningError("failed to encode planning request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Plan{}, apperrors.NewPlanningError("invalid planner endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Plan{}, apperrors.NewPlanningError("planning call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Plan{}, apperrors.NewPlanningError(
			fmt.Sprintf("planner returned status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Plan{}, apperrors.NewPlanningError("failed to read planning response", err)
	}

	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return Plan{}, apperrors.NewPlanningError("unparseable planning response", err)
	}
	if plan.Mode != Mode2D && plan.Mode != Mode3D {
		return Plan{}, apperrors.NewPlanningError(
			fmt.Sprintf("planner returned unknown mode %q", plan.Mode), nil)
	}
	if plan.Script == "" {
		return Plan{}, apperrors.NewPlanningError("planner returned an empty script", nil)
	}
	return plan, nil
}
