package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"resolutionengine/src/model"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(ctx context.Context, channels []string, request *model.EscalationRequest) error {
	s.calls++
	return s.err
}

func testRequest() *model.EscalationRequest {
	return &model.EscalationRequest{
		ID:               "req-1",
		OccurrenceID:     "occ-1",
		Tier:             model.TierHumanReview,
		Summary:          "needs eyes",
		RequiredResponse: 30 * time.Minute,
		Status:           model.RequestPending,
	}
}

func TestMultiRunsAllNotifiersAndReturnsFirstError(t *testing.T) {
	first := &stubNotifier{err: errors.New("first failure")}
	second := &stubNotifier{err: errors.New("second failure")}
	third := &stubNotifier{}

	err := Multi{first, second, third}.Notify(context.Background(), []string{"chat"}, testRequest())
	if err == nil || err.Error() != "first failure" {
		t.Fatalf("expected first error, got %v", err)
	}

	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Fatalf("every notifier must run: %d %d %d", first.calls, second.calls, third.calls)
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), []string{"chat"}, testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWebhookNotifierDelivers(t *testing.T) {
	var delivered atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(map[string]string{"email": server.URL}, time.Second)

	// unconfigured channels are skipped, not errors
	err := n.Notify(context.Background(), []string{"email", "sms"}, testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered.Load() != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered.Load())
	}
}

func TestWebhookNotifierReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewWebhookNotifier(map[string]string{"email": server.URL}, time.Second)

	err := n.Notify(context.Background(), []string{"email"}, testRequest())
	if err == nil {
		t.Fatalf("expected error for rejected webhook")
	}
	if !errors.Is(err, model.ErrNotifierUnavailable) {
		t.Fatalf("expected ErrNotifierUnavailable in chain, got %v", err)
	}
}
