package escalation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resolutionengine/src/model"
	"resolutionengine/src/notifier"
	"resolutionengine/src/registry"
)

// RequestStore persists escalation requests when durability is enabled.
type RequestStore interface {
	UpsertEscalationRequest(ctx context.Context, request *model.EscalationRequest) error
}

// Dispatcher builds and emits escalation requests. It owns the escalation
// fields of an occurrence and the live request map: one request per
// occurrence, re-escalation updates in place.
type Dispatcher struct {
	logger     *logrus.Entry
	registry   *registry.Registry
	ruleEngine *RuleEngine
	notifier   notifier.Notifier
	summarizer Summarizer
	store      RequestStore

	mu       sync.Mutex
	requests map[string]*model.EscalationRequest

	now   func() time.Time
	newID func() string
}

// NewDispatcher wires a dispatcher. summarizer and store may be nil; a nil
// notifier falls back to the log notifier so escalations are never silent.
func NewDispatcher(logger *logrus.Entry, reg *registry.Registry, ruleEngine *RuleEngine, n notifier.Notifier, summarizer Summarizer, store RequestStore) *Dispatcher {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if n == nil {
		n = notifier.LogNotifier{}
	}

	return &Dispatcher{
		logger:     logger,
		registry:   reg,
		ruleEngine: ruleEngine,
		notifier:   n,
		summarizer: summarizer,
		store:      store,
		requests:   make(map[string]*model.EscalationRequest),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// Escalate marks the occurrence escalated and emits (or updates) its
// escalation request. Notification failures are logged and never block the
// state transition.
func (d *Dispatcher) Escalate(ctx context.Context, occurrenceID string, tier model.EscalationTier, reason string) (*model.EscalationRequest, error) {
	occ, ok := d.registry.Get(occurrenceID)
	if !ok {
		return nil, fmt.Errorf("unknown occurrence %s", occurrenceID)
	}

	summary, actions := summarize(ctx, d.summarizer, &occ, tier, reason)
	responseTime := ResponseTimeFor(occ.Severity, tier)
	channels := ChannelsFor(d.ruleEngine.RuleFor(&occ), tier)
	now := d.now()

	d.mu.Lock()
	request, exists := d.requests[occurrenceID]
	if exists {
		request.Tier = tier
		request.Summary = summary
		request.RecommendedActions = actions
		request.RequiredResponse = responseTime
		request.UpdatedAt = now
	} else {
		request = &model.EscalationRequest{
			ID:                 d.newID(),
			OccurrenceID:       occurrenceID,
			Tier:               tier,
			Summary:            summary,
			RecommendedActions: actions,
			RequiredResponse:   responseTime,
			Status:             model.RequestPending,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		d.requests[occurrenceID] = request
	}
	notifyCopy := *request
	d.mu.Unlock()

	d.registry.Update(occurrenceID, func(o *model.ExceptionOccurrence) {
		o.ResolutionStatus = model.StatusEscalated
		o.EscalationTier = tier
		o.EscalatedAt = &now
		o.EscalatedTo = strings.Join(channels, ",")
		o.EscalationReason = reason
	})

	log := d.logger.WithFields(logrus.Fields{
		"occurrence_id": occurrenceID,
		"tier":          tier,
		"reason":        reason,
		"respond_in":    responseTime.String(),
	})
	if exists {
		log.Warn("escalation updated")
	} else {
		log.Warn("occurrence escalated")
	}

	if err := d.notifier.Notify(ctx, channels, &notifyCopy); err != nil {
		d.logger.WithError(err).WithField("occurrence_id", occurrenceID).
			Error("escalation notification failed, state transition unaffected")
	}

	if d.store != nil {
		if err := d.store.UpsertEscalationRequest(ctx, &notifyCopy); err != nil {
			d.logger.WithError(err).WithField("occurrence_id", occurrenceID).
				Error("failed to persist escalation request")
		}
	}

	return &notifyCopy, nil
}

// Request returns the live request for an occurrence, or nil.
func (d *Dispatcher) Request(occurrenceID string) *model.EscalationRequest {
	d.mu.Lock()
	defer d.mu.Unlock()

	request, ok := d.requests[occurrenceID]
	if !ok {
		return nil
	}
	copied := *request
	return &copied
}

// Requests returns a snapshot of all live requests ordered by creation time.
func (d *Dispatcher) Requests() []*model.EscalationRequest {
	d.mu.Lock()
	snapshot := make([]*model.EscalationRequest, 0, len(d.requests))
	for _, request := range d.requests {
		copied := *request
		snapshot = append(snapshot, &copied)
	}
	d.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt)
	})

	return snapshot
}
