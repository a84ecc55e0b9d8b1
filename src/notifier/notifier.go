package notifier

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

// Notifier delivers an escalation request over the given channels.
// Delivery failures must be reported as errors (usually wrapping
// model.ErrNotifierUnavailable) but the dispatcher only logs them; they
// never block an escalation state transition.
type Notifier interface {
	Notify(ctx context.Context, channels []string, request *model.EscalationRequest) error
}

// LogNotifier writes escalations to the application log. It is the default
// when no outbound channel is configured, so escalation never fails silently.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, channels []string, request *model.EscalationRequest) error {
	logger.WithFields(map[string]interface{}{
		"component":     "LogNotifier",
		"occurrence_id": request.OccurrenceID,
		"tier":          request.Tier,
		"channels":      channels,
		"respond_in":    request.RequiredResponse.String(),
	}).Warn(request.Summary)
	return nil
}

// Multi fans a notification out to several notifiers. Every notifier runs;
// the first error is returned after all have been attempted.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, channels []string, request *model.EscalationRequest) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, channels, request); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
