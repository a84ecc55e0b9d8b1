package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

// WebhookNotifier posts escalation requests to per-channel webhook URLs
// (email gateway, SMS bridge, pager, chat — whatever the host wires in).
// Channels with no configured URL are skipped with a warning.
type WebhookNotifier struct {
	http     *resty.Client
	channels map[string]string
}

// NewWebhookNotifier builds a notifier from a channel→URL map.
func NewWebhookNotifier(channelURLs map[string]string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(4 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.StatusCode() >= 500
		})

	return &WebhookNotifier{http: httpClient, channels: channelURLs}
}

func (n *WebhookNotifier) Notify(ctx context.Context, channels []string, request *model.EscalationRequest) error {
	var firstErr error

	for _, channel := range channels {
		url, ok := n.channels[channel]
		if !ok || url == "" {
			logger.WithFields(map[string]interface{}{
				"component": "WebhookNotifier",
				"channel":   channel,
			}).Warn("no webhook configured for channel, skipping")
			continue
		}

		resp, err := n.http.R().
			SetContext(ctx).
			SetBody(request).
			Post(url)

		if err != nil {
			logger.WithError(err).WithFields(map[string]interface{}{
				"component":     "WebhookNotifier",
				"channel":       channel,
				"occurrence_id": request.OccurrenceID,
			}).Error("failed to deliver escalation")
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: channel %s: %v", model.ErrNotifierUnavailable, channel, err)
			}
			continue
		}

		if resp.IsError() {
			logger.WithFields(map[string]interface{}{
				"component":     "WebhookNotifier",
				"channel":       channel,
				"occurrence_id": request.OccurrenceID,
				"status":        resp.StatusCode(),
			}).Error("escalation webhook rejected")
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: channel %s: status %d", model.ErrNotifierUnavailable, channel, resp.StatusCode())
			}
			continue
		}

		logger.WithFields(map[string]interface{}{
			"component":     "WebhookNotifier",
			"channel":       channel,
			"occurrence_id": request.OccurrenceID,
		}).Info("escalation delivered")
	}

	return firstErr
}
