package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"resolutionengine/src/engine"
	"resolutionengine/src/model"
)

type mockStatusSource struct {
	status engine.Status
}

func (m *mockStatusSource) GetStatus() engine.Status {
	return m.status
}

type mockEscalationSource struct {
	requests []*model.EscalationRequest
}

func (m *mockEscalationSource) Escalations() []*model.EscalationRequest {
	return m.requests
}

func TestStatusHandler(t *testing.T) {
	source := &mockStatusSource{status: engine.Status{
		Running:            true,
		ActiveOccurrences:  4,
		TotalOccurrences:   10,
		AutoResolutionRate: 0.6,
		CountsByState:      map[string]int{"RESOLVING": 2, "MONITORING": 2},
	}}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	StatusHandler(source).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var status engine.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !status.Running || status.ActiveOccurrences != 4 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.CountsByState["RESOLVING"] != 2 {
		t.Fatalf("unexpected state counts: %v", status.CountsByState)
	}
}

func TestEscalationsHandler(t *testing.T) {
	source := &mockEscalationSource{requests: []*model.EscalationRequest{
		{ID: "req-1", OccurrenceID: "occ-1", Tier: model.TierHumanReview},
	}}

	req := httptest.NewRequest(http.MethodGet, "/escalations", nil)
	rr := httptest.NewRecorder()
	EscalationsHandler(source).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var requests []model.EscalationRequest
	if err := json.Unmarshal(rr.Body.Bytes(), &requests); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(requests) != 1 || requests[0].Tier != model.TierHumanReview {
		t.Fatalf("unexpected requests: %+v", requests)
	}
}

func TestEscalationsHandler_EmptyIsArray(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/escalations", nil)
	rr := httptest.NewRecorder()
	EscalationsHandler(&mockEscalationSource{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}
