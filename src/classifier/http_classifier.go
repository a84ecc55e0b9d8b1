package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 250 * time.Millisecond
	defaultRetryMaxBackoff = 2 * time.Second
)

// HTTPClassifier calls an external pattern-classification service.
type HTTPClassifier struct {
	http *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 || code == 408 {
		return true
	}
	return false
}

// NewHTTPClassifier builds a classifier client for the given base URL.
func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &HTTPClassifier{http: httpClient}
}

type classifyRequest struct {
	ExceptionType model.ExceptionType `json:"exception_type"`
	Context       map[string]any      `json:"context,omitempty"`
}

// Classify posts the failure to the classification service. Transport
// failures and non-2xx responses map to model.ErrClassifierUnavailable so
// intake can fall back to the static severity map.
func (c *HTTPClassifier) Classify(ctx context.Context, exceptionType model.ExceptionType, reportContext map[string]any) (Classification, error) {
	var classification Classification

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(classifyRequest{ExceptionType: exceptionType, Context: reportContext}).
		SetResult(&classification).
		Post("/v1/classify")

	if err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"component": "HTTPClassifier",
			"type":      exceptionType,
		}).Warn("classifier request failed")
		return Classification{}, fmt.Errorf("%w: %v", model.ErrClassifierUnavailable, err)
	}

	if resp.IsError() {
		logger.WithFields(map[string]interface{}{
			"component": "HTTPClassifier",
			"type":      exceptionType,
			"status":    resp.StatusCode(),
		}).Warn("classifier returned error status")
		return Classification{}, fmt.Errorf("%w: status %d", model.ErrClassifierUnavailable, resp.StatusCode())
	}

	if classification.Confidence < 0 || classification.Confidence > 1 {
		return Classification{}, fmt.Errorf("%w: confidence %f out of range", model.ErrClassifierUnavailable, classification.Confidence)
	}

	return classification, nil
}
