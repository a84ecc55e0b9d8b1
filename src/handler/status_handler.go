package handler

import (
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/engine"
	"resolutionengine/src/model"
)

// StatusSource exposes the engine's observability snapshot.
type StatusSource interface {
	GetStatus() engine.Status
}

// EscalationSource exposes the live escalation requests.
type EscalationSource interface {
	Escalations() []*model.EscalationRequest
}

// StatusHandler returns the engine status snapshot. Read-only.
func StatusHandler(source StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(source.GetStatus()); err != nil {
			logger.WithError(err).Error("failed to encode status")
		}
	}
}

// EscalationsHandler lists live escalation requests.
func EscalationsHandler(source EscalationSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests := source.Escalations()
		if requests == nil {
			requests = []*model.EscalationRequest{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(requests); err != nil {
			logger.WithError(err).Error("failed to encode escalations")
		}
	}
}
