package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"resolutionengine/src/catalog"
	"resolutionengine/src/model"
	"resolutionengine/src/registry"
	"resolutionengine/src/steps"
)

// Escalator hands an occurrence over to the escalation path. The engine
// implements it by combining the rule engine and the dispatcher.
type Escalator interface {
	EscalateOccurrence(ctx context.Context, occurrenceID, reason string)
}

// OccurrenceStore persists occurrence snapshots when durability is enabled.
type OccurrenceStore interface {
	UpsertOccurrence(ctx context.Context, occ *model.ExceptionOccurrence) error
}

// ResolutionObserver is notified of autonomous resolutions (metrics).
type ResolutionObserver interface {
	RecordResolved(resolutionTime time.Duration)
}

// Options configures the scheduler.
type Options struct {
	// Enabled gates autonomous resolution; when false every occurrence
	// escalates immediately.
	Enabled bool

	// MaxConcurrent caps how many occurrences hold RESOLVING at once.
	MaxConcurrent int

	// BackoffBase scales the inter-retry delay: attempt N waits N×base.
	BackoffBase time.Duration
}

// Scheduler drives bounded-concurrency strategy execution. Occurrences that
// cannot get a slot wait in MONITORING and are re-evaluated opportunistically
// as slots free; there is no FIFO ordering across occurrences.
type Scheduler struct {
	logger    *logrus.Entry
	registry  *registry.Registry
	catalog   *catalog.Catalog
	executor  *steps.Executor
	escalator Escalator
	store     OccurrenceStore
	observer  ResolutionObserver

	opts  Options
	slots chan struct{}

	mu  sync.Mutex
	ctx context.Context
	wg  sync.WaitGroup

	now func() time.Time
}

// New builds a scheduler. store and observer may be nil.
func New(logger *logrus.Entry, reg *registry.Registry, cat *catalog.Catalog, executor *steps.Executor, escalator Escalator, store OccurrenceStore, observer ResolutionObserver, opts Options) *Scheduler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 2 * time.Second
	}

	return &Scheduler{
		logger:    logger,
		registry:  reg,
		catalog:   cat,
		executor:  executor,
		escalator: escalator,
		store:     store,
		observer:  observer,
		opts:      opts,
		slots:     make(chan struct{}, opts.MaxConcurrent),
		ctx:       context.Background(),
		now:       time.Now,
	}
}

// Start installs the context under which resolution tasks run. Cancelling
// it parks in-flight occurrences in MONITORING.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Wait blocks until all in-flight resolution tasks have finished. Call
// after cancelling the Start context.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Schedule routes one occurrence: immediate escalation when automation is
// off or no strategy applies, MONITORING when every slot is busy, otherwise
// RESOLVING with a worker goroutine.
func (s *Scheduler) Schedule(occurrenceID string) {
	ctx := s.context()

	occ, ok := s.registry.Get(occurrenceID)
	if !ok || occ.ResolutionStatus.Terminal() || occ.ResolutionStatus == model.StatusResolving {
		return
	}

	if !s.opts.Enabled {
		s.escalator.EscalateOccurrence(ctx, occurrenceID, "automation disabled")
		return
	}

	strat := s.catalog.Select(occ.Type)
	if strat == nil {
		s.logger.WithFields(logrus.Fields{
			"occurrence_id": occurrenceID,
			"type":          occ.Type,
		}).Warn(model.ErrStrategyNotFound.Error())
		s.escalator.EscalateOccurrence(ctx, occurrenceID, model.ErrStrategyNotFound.Error())
		return
	}

	s.registry.Update(occurrenceID, func(o *model.ExceptionOccurrence) {
		o.AssignedStrategyID = strat.ID
	})

	select {
	case s.slots <- struct{}{}:
	default:
		// concurrency limit reached: defer, not an error
		if s.registry.TryTransition(occurrenceID, model.StatusMonitoring,
			model.StatusDetected, model.StatusAnalyzing, model.StatusMonitoring) {
			s.logger.WithFields(logrus.Fields{
				"occurrence_id": occurrenceID,
				"max":           s.opts.MaxConcurrent,
			}).Info("all resolution slots busy, occurrence parked in MONITORING")
			s.persist(ctx, occurrenceID)
		}
		return
	}

	if !s.registry.TryTransition(occurrenceID, model.StatusResolving,
		model.StatusDetected, model.StatusAnalyzing, model.StatusMonitoring) {
		// claimed by another path in the meantime
		<-s.slots
		return
	}

	s.wg.Add(1)
	go s.run(ctx, occurrenceID, strat)
}

// SweepMonitoring re-offers parked occurrences to the scheduler. Invoked on
// slot release and on every health-monitor tick so nothing is stranded.
func (s *Scheduler) SweepMonitoring() {
	if s.context().Err() != nil {
		return
	}
	for _, id := range s.registry.InStatus(model.StatusMonitoring) {
		s.Schedule(id)
	}
}

// run executes the strategy against one occurrence until it resolves,
// escalates, or is parked by cancellation. Errors never leave this
// goroutine; a broken remediation must not affect other occurrences.
func (s *Scheduler) run(ctx context.Context, occurrenceID string, strat *model.ResolutionStrategy) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"occurrence_id": occurrenceID,
				"panic":         fmt.Sprintf("%v", r),
			}).Error("resolution task panicked, parking occurrence")
			s.park(occurrenceID)
		}

		<-s.slots
		s.wg.Done()
		s.SweepMonitoring()
	}()

	log := s.logger.WithFields(logrus.Fields{
		"occurrence_id": occurrenceID,
		"strategy":      strat.ID,
	})

	for {
		if ctx.Err() != nil {
			s.park(occurrenceID)
			return
		}

		var attempt int
		s.registry.Update(occurrenceID, func(o *model.ExceptionOccurrence) {
			o.ResolutionAttempts++
			attempt = o.ResolutionAttempts
		})

		entry := model.ResolutionLogEntry{
			StrategyID: strat.ID,
			Attempt:    attempt,
			StartedAt:  s.now(),
		}

		completed, outcome := s.runAttempt(ctx, occurrenceID, strat, log.WithField("attempt", attempt))
		entry.StepsCompleted = completed
		entry.Outcome = outcome

		s.registry.Update(occurrenceID, func(o *model.ExceptionOccurrence) {
			o.ResolutionLog = append(o.ResolutionLog, entry)
		})

		switch outcome {
		case outcomeResolved:
			s.resolve(ctx, occurrenceID, strat)
			return

		case outcomeCancelled:
			s.park(occurrenceID)
			return
		}

		if attempt >= strat.MaxAttempts {
			reason := fmt.Sprintf("Max attempts reached (%d)", strat.MaxAttempts)
			log.Warn(reason)
			s.escalator.EscalateOccurrence(ctx, occurrenceID, reason)
			return
		}

		if !s.backoff(ctx, attempt) {
			s.park(occurrenceID)
			return
		}
	}
}

const (
	outcomeResolved  = "resolved"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
)

// runAttempt executes the strategy's steps strictly in order, each under
// the per-step timeout. Retries restart from step 1, so it never resumes a
// partial attempt.
func (s *Scheduler) runAttempt(ctx context.Context, occurrenceID string, strat *model.ResolutionStrategy, log *logrus.Entry) (int, string) {
	occ, ok := s.registry.Get(occurrenceID)
	if !ok {
		return 0, outcomeCancelled
	}

	completed := 0
	for _, step := range strat.Steps {
		if ctx.Err() != nil {
			return completed, outcomeCancelled
		}

		stepCtx, cancel := context.WithTimeout(ctx, strat.StepTimeout)
		result := s.executor.Run(stepCtx, step, &occ)
		cancel()

		if ctx.Err() != nil {
			// engine shutdown, not a step verdict
			return completed, outcomeCancelled
		}

		if !result.OK {
			log.WithError(result.Err).WithFields(logrus.Fields{
				"step":            step.Kind,
				"steps_completed": completed,
			}).Warn("attempt failed")
			return completed, outcomeFailed
		}

		completed++
	}

	return completed, outcomeResolved
}

func (s *Scheduler) resolve(ctx context.Context, occurrenceID string, strat *model.ResolutionStrategy) {
	now := s.now()
	var resolutionTime time.Duration

	s.registry.Update(occurrenceID, func(o *model.ExceptionOccurrence) {
		o.ResolutionStatus = model.StatusResolved
		o.ResolvedAt = &now
		o.ResolutionMethod = strat.Name
		o.ResolutionSummary = fmt.Sprintf("resolved autonomously by strategy %s after %d attempt(s)", strat.Name, o.ResolutionAttempts)
		resolutionTime = now.Sub(o.DetectedAt)
	})

	if s.observer != nil {
		s.observer.RecordResolved(resolutionTime)
	}

	s.logger.WithFields(logrus.Fields{
		"occurrence_id":   occurrenceID,
		"strategy":        strat.ID,
		"resolution_time": resolutionTime.String(),
	}).Info("occurrence resolved")

	s.persist(ctx, occurrenceID)
}

// park leaves the occurrence in MONITORING so a restarted engine can resume
// it. The cancellation path never marks RESOLVED or ESCALATED itself.
func (s *Scheduler) park(occurrenceID string) {
	if s.registry.TryTransition(occurrenceID, model.StatusMonitoring,
		model.StatusDetected, model.StatusAnalyzing, model.StatusResolving) {
		s.logger.WithField("occurrence_id", occurrenceID).
			Info("resolution interrupted, occurrence parked in MONITORING")
		s.persist(context.Background(), occurrenceID)
	}
}

func (s *Scheduler) backoff(ctx context.Context, attempt int) bool {
	delay := time.Duration(attempt) * s.opts.BackoffBase

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) persist(ctx context.Context, occurrenceID string) {
	if s.store == nil {
		return
	}
	occ, ok := s.registry.Get(occurrenceID)
	if !ok {
		return
	}
	if err := s.store.UpsertOccurrence(ctx, &occ); err != nil {
		s.logger.WithError(err).WithField("occurrence_id", occurrenceID).
			Error("failed to persist occurrence")
	}
}
