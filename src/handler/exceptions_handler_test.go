package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"resolutionengine/src/intake"
	"resolutionengine/src/model"
)

type mockReporter struct {
	id          string
	err         error
	occurrence  model.ExceptionOccurrence
	found       bool
	lastInput   intake.ReportInput
	calledCount int
}

func (m *mockReporter) Report(ctx context.Context, input intake.ReportInput) (string, error) {
	m.calledCount++
	m.lastInput = input
	return m.id, m.err
}

func (m *mockReporter) Occurrence(id string) (model.ExceptionOccurrence, bool) {
	return m.occurrence, m.found
}

func TestReportExceptionHandler_Success(t *testing.T) {
	mockRep := &mockReporter{id: "occ-42"}
	handler := ReportExceptionHandler(mockRep)

	body := `{"type":"API_FAILURE","title":"gateway flapping","component":"vendor-gateway"}`
	req := httptest.NewRequest(http.MethodPost, "/exceptions", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	var response reportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if response.OccurrenceID != "occ-42" {
		t.Fatalf("expected occurrence id occ-42, got %q", response.OccurrenceID)
	}

	if mockRep.calledCount != 1 {
		t.Fatalf("expected reporter to be called once, got %d", mockRep.calledCount)
	}
	if mockRep.lastInput.Type != model.TypeAPIFailure {
		t.Fatalf("unexpected input type %s", mockRep.lastInput.Type)
	}
}

func TestReportExceptionHandler_InvalidJSON(t *testing.T) {
	handler := ReportExceptionHandler(&mockReporter{})

	req := httptest.NewRequest(http.MethodPost, "/exceptions", strings.NewReader(`{not json`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestReportExceptionHandler_UnknownField(t *testing.T) {
	handler := ReportExceptionHandler(&mockReporter{})

	req := httptest.NewRequest(http.MethodPost, "/exceptions", strings.NewReader(`{"type":"API_FAILURE","title":"x","bogus":true}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown field, got %d", rr.Code)
	}
}

func TestReportExceptionHandler_ValidationError(t *testing.T) {
	mockRep := &mockReporter{err: &model.ValidationError{Field: "title", Reason: "is required"}}
	handler := ReportExceptionHandler(mockRep)

	req := httptest.NewRequest(http.MethodPost, "/exceptions", strings.NewReader(`{"type":"API_FAILURE"}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "title") {
		t.Fatalf("expected validation detail in body, got %q", rr.Body.String())
	}
}

func TestReportExceptionHandler_InternalError(t *testing.T) {
	mockRep := &mockReporter{err: assert.AnError}
	handler := ReportExceptionHandler(mockRep)

	req := httptest.NewRequest(http.MethodPost, "/exceptions", strings.NewReader(`{"type":"API_FAILURE","title":"x"}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestGetExceptionHandler(t *testing.T) {
	detectedAt := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	mockRep := &mockReporter{
		occurrence: model.ExceptionOccurrence{
			ID:               "occ-1",
			Type:             model.TypeAPIFailure,
			Severity:         model.SeverityHigh,
			Title:            "gateway flapping",
			DetectedAt:       detectedAt,
			ResolutionStatus: model.StatusResolving,
		},
		found: true,
	}

	router := chi.NewRouter()
	router.Get("/exceptions/{id}", GetExceptionHandler(mockRep))

	req := httptest.NewRequest(http.MethodGet, "/exceptions/occ-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var occ model.ExceptionOccurrence
	if err := json.Unmarshal(rr.Body.Bytes(), &occ); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if occ.ID != "occ-1" || occ.ResolutionStatus != model.StatusResolving {
		t.Fatalf("unexpected occurrence: %+v", occ)
	}
}

func TestGetExceptionHandler_NotFound(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/exceptions/{id}", GetExceptionHandler(&mockReporter{}))

	req := httptest.NewRequest(http.MethodGet, "/exceptions/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
