package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"resolutionengine/src/classifier"
	"resolutionengine/src/model"
	"resolutionengine/src/registry"
)

type stubScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (s *stubScheduler) Schedule(occurrenceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, occurrenceID)
}

func (s *stubScheduler) scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

type stubClassifier struct {
	classification classifier.Classification
	err            error
}

func (c stubClassifier) Classify(ctx context.Context, exceptionType model.ExceptionType, reportContext map[string]any) (classifier.Classification, error) {
	return c.classification, c.err
}

func testIntake(primary, secondary classifier.Classifier) (*Intake, *registry.Registry, *stubScheduler) {
	log, _ := logrustest.NewNullLogger()
	reg := registry.New()
	sched := &stubScheduler{}
	return New(logrus.NewEntry(log), reg, primary, secondary, sched, nil, nil), reg, sched
}

func TestReportValidation(t *testing.T) {
	i, _, sched := testIntake(nil, nil)

	cases := []struct {
		name  string
		input ReportInput
		field string
	}{
		{"missing type", ReportInput{Title: "x"}, "type"},
		{"missing title", ReportInput{Type: model.TypeAPIFailure}, "title"},
		{"unknown type", ReportInput{Type: "COSMIC_RAY", Title: "x"}, "type"},
	}

	for _, c := range cases {
		_, err := i.Report(context.Background(), c.input)
		if err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		}
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %T", c.name, err)
		}
		if verr.Field != c.field {
			t.Fatalf("%s: expected field %q, got %q", c.name, c.field, verr.Field)
		}
	}

	if len(sched.scheduled()) != 0 {
		t.Fatalf("invalid reports must not be scheduled")
	}
}

func TestReportCreatesAndSchedulesOccurrence(t *testing.T) {
	i, reg, sched := testIntake(stubClassifier{
		classification: classifier.Classification{
			Severity:   model.SeverityHigh,
			Confidence: 0.9,
			PatternID:  "pat-17",
			Tags:       []string{"transient"},
		},
	}, nil)

	id, err := i.Report(context.Background(), ReportInput{
		Type:      model.TypeAPIFailure,
		Title:     "vendor API returning 502",
		Component: "vendor-gateway",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	occ, ok := reg.Get(id)
	if !ok {
		t.Fatalf("occurrence not in registry")
	}
	if occ.ResolutionStatus != model.StatusAnalyzing {
		t.Fatalf("expected ANALYZING, got %s", occ.ResolutionStatus)
	}
	if occ.Severity != model.SeverityHigh {
		t.Fatalf("expected HIGH severity, got %s", occ.Severity)
	}
	if occ.Confidence != 0.9 || occ.PatternID != "pat-17" {
		t.Fatalf("classification not applied: confidence=%v pattern=%q", occ.Confidence, occ.PatternID)
	}
	if occ.EscalationTier != model.TierAutonomous {
		t.Fatalf("new occurrences start autonomous, got %s", occ.EscalationTier)
	}

	got := sched.scheduled()
	if len(got) != 1 || got[0] != id {
		t.Fatalf("expected occurrence scheduled once, got %v", got)
	}
}

func TestReportFallsBackToStaticSeverity(t *testing.T) {
	i, reg, _ := testIntake(stubClassifier{err: model.ErrClassifierUnavailable}, nil)

	id, err := i.Report(context.Background(), ReportInput{
		Type:  model.TypeDatabaseError,
		Title: "primary unreachable",
	})
	if err != nil {
		t.Fatalf("classifier failure must not reject the report: %v", err)
	}

	occ, _ := reg.Get(id)
	if occ.Severity != model.SeverityCritical {
		t.Fatalf("expected static CRITICAL for DATABASE_ERROR, got %s", occ.Severity)
	}
	if occ.Confidence != 0.5 {
		t.Fatalf("expected fallback confidence 0.5, got %v", occ.Confidence)
	}
}

func TestReportBusinessImpactForcesCritical(t *testing.T) {
	i, reg, _ := testIntake(stubClassifier{
		classification: classifier.Classification{Severity: model.SeverityMedium, Confidence: 0.8},
	}, nil)

	id, err := i.Report(context.Background(), ReportInput{
		Type:    model.TypeIntegrationTimeout,
		Title:   "doc service slow during closing",
		Context: map[string]any{"affects_closing": true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	occ, _ := reg.Get(id)
	if occ.Severity != model.SeverityCritical {
		t.Fatalf("expected forced CRITICAL, got %s", occ.Severity)
	}

	// an already higher severity is left alone
	i2, reg2, _ := testIntake(stubClassifier{
		classification: classifier.Classification{Severity: model.SeverityEmergency, Confidence: 0.8},
	}, nil)
	id2, err := i2.Report(context.Background(), ReportInput{
		Type:    model.TypeSystemError,
		Title:   "total outage",
		Context: map[string]any{"affects_critical_path": "true"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	occ2, _ := reg2.Get(id2)
	if occ2.Severity != model.SeverityEmergency {
		t.Fatalf("override must not lower severity, got %s", occ2.Severity)
	}
}

func TestReportRequestsSecondOpinionOnLowConfidence(t *testing.T) {
	secondary := stubClassifier{
		classification: classifier.Classification{
			Severity:   model.SeverityEmergency, // advisory: must not change severity
			Confidence: 0.85,
			Tags:       []string{"pattern-match"},
			PatternID:  "pat-9",
		},
	}
	i, reg, _ := testIntake(stubClassifier{
		classification: classifier.Classification{Severity: model.SeverityMedium, Confidence: 0.4},
	}, secondary)

	id, err := i.Report(context.Background(), ReportInput{
		Type:  model.TypeVendorUnavailable,
		Title: "vendor silent",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		occ, _ := reg.Get(id)
		if occ.Confidence == 0.85 {
			if occ.Severity != model.SeverityMedium {
				t.Fatalf("second opinion must not change severity, got %s", occ.Severity)
			}
			if occ.PatternID != "pat-9" || len(occ.Tags) == 0 {
				t.Fatalf("second opinion tags/pattern not applied: %+v", occ)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("second opinion never applied, confidence=%v", occ.Confidence)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReportSkipsSecondOpinionOnHighConfidence(t *testing.T) {
	secondary := stubClassifier{
		classification: classifier.Classification{Confidence: 0.99, Tags: []string{"never"}},
	}
	i, reg, _ := testIntake(stubClassifier{
		classification: classifier.Classification{Severity: model.SeverityHigh, Confidence: 0.95},
	}, secondary)

	id, err := i.Report(context.Background(), ReportInput{
		Type:  model.TypeNetworkError,
		Title: "flaky uplink",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	occ, _ := reg.Get(id)
	if occ.Confidence != 0.95 || len(occ.Tags) != 0 {
		t.Fatalf("secondary must not run above threshold: %+v", occ)
	}
}
