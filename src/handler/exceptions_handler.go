package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/intake"
	"resolutionengine/src/model"
)

// Reporter is the engine surface the exception handlers need.
type Reporter interface {
	Report(ctx context.Context, input intake.ReportInput) (string, error)
	Occurrence(id string) (model.ExceptionOccurrence, bool)
}

type reportResponse struct {
	OccurrenceID string `json:"occurrence_id"`
}

// ReportExceptionHandler accepts a failure report and returns the new
// occurrence id.
func ReportExceptionHandler(reporter Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input intake.ReportInput
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&input); err != nil {
			logger.WithError(err).Warn("invalid exception report payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		id, err := reporter.Report(r.Context(), input)
		if err != nil {
			if model.IsValidationError(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.WithError(err).Error("failed to report exception")
			http.Error(w, "Unable to report exception", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(reportResponse{OccurrenceID: id}); err != nil {
			logger.WithError(err).Error("failed to encode report response")
		}
	}
}

// GetExceptionHandler returns one occurrence by id.
func GetExceptionHandler(reporter Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		occ, ok := reporter.Occurrence(id)
		if !ok {
			http.Error(w, "Occurrence not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(occ); err != nil {
			logger.WithError(err).Error("failed to encode occurrence")
		}
	}
}
