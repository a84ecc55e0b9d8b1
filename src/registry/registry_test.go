package registry

import (
	"testing"
	"time"

	"resolutionengine/src/model"
)

func add(r *Registry, id string, status model.ResolutionStatus) {
	r.Add(&model.ExceptionOccurrence{
		ID:               id,
		Type:             model.TypeAPIFailure,
		Severity:         model.SeverityHigh,
		ResolutionStatus: status,
		UpdatedAt:        time.Now(),
	})
}

func TestGetReturnsCopy(t *testing.T) {
	r := New()
	add(r, "occ-1", model.StatusDetected)

	occ, ok := r.Get("occ-1")
	if !ok {
		t.Fatalf("expected occurrence")
	}

	occ.ResolutionStatus = model.StatusResolved

	stored, _ := r.Get("occ-1")
	if stored.ResolutionStatus != model.StatusDetected {
		t.Fatalf("mutating a Get result must not touch the registry")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	r := New()
	if r.Update("nope", func(o *model.ExceptionOccurrence) {}) {
		t.Fatalf("update of unknown id must return false")
	}
}

func TestTryTransition(t *testing.T) {
	r := New()
	add(r, "occ-1", model.StatusAnalyzing)

	if !r.TryTransition("occ-1", model.StatusResolving, model.StatusDetected, model.StatusAnalyzing) {
		t.Fatalf("expected transition from ANALYZING")
	}

	// second claim must lose
	if r.TryTransition("occ-1", model.StatusResolving, model.StatusDetected, model.StatusAnalyzing) {
		t.Fatalf("occurrence already claimed, second transition must fail")
	}

	occ, _ := r.Get("occ-1")
	if occ.ResolutionStatus != model.StatusResolving {
		t.Fatalf("expected RESOLVING, got %s", occ.ResolutionStatus)
	}

	if r.TryTransition("missing", model.StatusResolving, model.StatusAnalyzing) {
		t.Fatalf("unknown id must not transition")
	}
}

func TestCounts(t *testing.T) {
	r := New()
	add(r, "a", model.StatusResolving)
	add(r, "b", model.StatusResolving)
	add(r, "c", model.StatusMonitoring)

	counts := r.CountByStatus()
	if counts[model.StatusResolving] != 2 || counts[model.StatusMonitoring] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	if got := r.CountBySeverity()[model.SeverityHigh]; got != 3 {
		t.Fatalf("expected 3 high-severity occurrences, got %d", got)
	}

	ids := r.InStatus(model.StatusResolving)
	if len(ids) != 2 {
		t.Fatalf("expected 2 RESOLVING ids, got %v", ids)
	}

	if r.Len() != 3 {
		t.Fatalf("expected 3 occurrences, got %d", r.Len())
	}
}

func TestArchiveDropsOnlyStaleTerminal(t *testing.T) {
	r := New()

	old := time.Now().Add(-48 * time.Hour)
	r.Add(&model.ExceptionOccurrence{ID: "stale-resolved", ResolutionStatus: model.StatusResolved, UpdatedAt: old})
	r.Add(&model.ExceptionOccurrence{ID: "stale-escalated", ResolutionStatus: model.StatusEscalated, UpdatedAt: old})
	r.Add(&model.ExceptionOccurrence{ID: "stale-active", ResolutionStatus: model.StatusMonitoring, UpdatedAt: old})
	r.Add(&model.ExceptionOccurrence{ID: "fresh-resolved", ResolutionStatus: model.StatusResolved, UpdatedAt: time.Now()})

	removed := r.Archive(24*time.Hour, time.Now())
	if removed != 2 {
		t.Fatalf("expected 2 archived, got %d", removed)
	}

	if _, ok := r.Get("stale-active"); !ok {
		t.Fatalf("active occurrences must never be archived")
	}
	if _, ok := r.Get("fresh-resolved"); !ok {
		t.Fatalf("fresh terminal occurrences must be kept")
	}
}
