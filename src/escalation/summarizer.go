package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

// Summarizer produces the human-readable summary and recommended actions
// for an escalation. Advisory only: when it fails, the dispatcher falls
// back to a deterministic template so escalation never stalls on prose.
type Summarizer interface {
	Summarize(ctx context.Context, occ *model.ExceptionOccurrence, tier model.EscalationTier, reason string) (string, []string, error)
}

// HTTPSummarizer calls an external summarization service (typically
// LLM-backed) for richer escalation briefs.
type HTTPSummarizer struct {
	http *resty.Client
}

func NewHTTPSummarizer(baseURL string, timeout time.Duration) *HTTPSummarizer {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &HTTPSummarizer{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(1),
	}
}

type summarizeResponse struct {
	Summary            string   `json:"summary"`
	RecommendedActions []string `json:"recommended_actions"`
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, occ *model.ExceptionOccurrence, tier model.EscalationTier, reason string) (string, []string, error) {
	var out summarizeResponse

	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"occurrence": occ,
			"tier":       tier,
			"reason":     reason,
		}).
		SetResult(&out).
		Post("/v1/summarize")

	if err != nil {
		return "", nil, fmt.Errorf("summarizer request failed: %w", err)
	}
	if resp.IsError() {
		return "", nil, fmt.Errorf("summarizer returned status %d", resp.StatusCode())
	}
	if out.Summary == "" {
		return "", nil, fmt.Errorf("summarizer returned empty summary")
	}

	return out.Summary, out.RecommendedActions, nil
}

// templateSummary is the deterministic fallback brief.
func templateSummary(occ *model.ExceptionOccurrence, tier model.EscalationTier, reason string) (string, []string) {
	summary := fmt.Sprintf("[%s] %s escalated to %s: %s (component %s, %d resolution attempts). Reason: %s",
		occ.Severity, occ.Type, tier, occ.Title, occ.Component, occ.ResolutionAttempts, reason)

	actions := []string{
		fmt.Sprintf("Inspect component %s for the reported failure", occ.Component),
		"Review the occurrence resolution log for failed remediation steps",
	}
	if occ.AssignedStrategyID != "" {
		actions = append(actions, fmt.Sprintf("Check why strategy %s did not resolve the issue", occ.AssignedStrategyID))
	}
	if occ.TransactionID != nil {
		actions = append(actions, fmt.Sprintf("Verify the state of transaction %s", *occ.TransactionID))
	}

	return summary, actions
}

// summarize runs the advisory summarizer with the template as safety net.
func summarize(ctx context.Context, s Summarizer, occ *model.ExceptionOccurrence, tier model.EscalationTier, reason string) (string, []string) {
	if s != nil {
		summary, actions, err := s.Summarize(ctx, occ, tier, reason)
		if err == nil {
			return summary, actions
		}
		logger.WithError(err).WithFields(map[string]interface{}{
			"component":     "EscalationDispatcher",
			"occurrence_id": occ.ID,
		}).Warn("summarizer unavailable, using template summary")
	}

	return templateSummary(occ, tier, reason)
}
