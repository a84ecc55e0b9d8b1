package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"resolutionengine/src/model"
)

// NewHTTPProbe builds a probe that GETs the given URL and passes on any
// 2xx response. Most platform services expose a /healthcheck endpoint this
// can point at.
func NewHTTPProbe(name, url string, exceptionType model.ExceptionType, timeout time.Duration) Probe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	httpClient := resty.New().SetTimeout(timeout)

	return Probe{
		Name: name,
		Type: exceptionType,
		Check: func(ctx context.Context) (bool, string) {
			resp, err := httpClient.R().SetContext(ctx).Get(url)
			if err != nil {
				return false, fmt.Sprintf("probe request failed: %v", err)
			}
			if resp.IsError() {
				return false, fmt.Sprintf("probe returned status %d", resp.StatusCode())
			}
			return true, ""
		},
	}
}
