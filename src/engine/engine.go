package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"resolutionengine/src/catalog"
	"resolutionengine/src/classifier"
	"resolutionengine/src/escalation"
	"resolutionengine/src/intake"
	"resolutionengine/src/metrics"
	"resolutionengine/src/model"
	"resolutionengine/src/monitor"
	"resolutionengine/src/notifier"
	"resolutionengine/src/registry"
	"resolutionengine/src/scheduler"
	"resolutionengine/src/steps"
)

// Store is the optional durability boundary. One implementation serves both
// the occurrence and escalation-request sides.
type Store interface {
	UpsertOccurrence(ctx context.Context, occ *model.ExceptionOccurrence) error
	UpsertEscalationRequest(ctx context.Context, request *model.EscalationRequest) error
}

// Deps are the collaborators injected into an engine. Everything except
// Catalog may be nil; nil collaborators degrade to the built-in fallbacks.
type Deps struct {
	Logger        *logrus.Entry
	Catalog       *catalog.Catalog
	Rules         []*model.EscalationRule
	Classifier    classifier.Classifier
	Secondary     classifier.Classifier
	Notifier      notifier.Notifier
	Summarizer    escalation.Summarizer
	Store         Store
	StepOverrides map[model.StepKind]steps.Handler
	Probes        []monitor.Probe
}

// Engine is the exception resolution orchestrator. It is an explicit value
// owned by the caller; there is no package-level instance.
type Engine struct {
	cfg    Config
	logger *logrus.Entry

	registry   *registry.Registry
	metrics    *metrics.Aggregator
	catalog    *catalog.Catalog
	ruleEngine *escalation.RuleEngine
	dispatcher *escalation.Dispatcher
	scheduler  *scheduler.Scheduler
	intake     *intake.Intake
	monitor    *monitor.Monitor

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	monitorDone chan struct{}
}

// New wires an engine from config and collaborators.
func New(cfg Config, deps Deps) (*Engine, error) {
	log := deps.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	if deps.Catalog == nil {
		return nil, fmt.Errorf("engine requires a strategy catalog")
	}

	rules := deps.Rules
	if rules == nil {
		rules = escalation.DefaultRules()
	}
	ruleEngine, err := escalation.NewRuleEngine(rules)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		logger:     log,
		registry:   registry.New(),
		metrics:    metrics.NewAggregator(),
		catalog:    deps.Catalog,
		ruleEngine: ruleEngine,
	}

	var occurrenceStore scheduler.OccurrenceStore
	var requestStore escalation.RequestStore
	if deps.Store != nil {
		occurrenceStore = deps.Store
		requestStore = deps.Store
	}

	e.dispatcher = escalation.NewDispatcher(
		log.WithField("component", "EscalationDispatcher"),
		e.registry, ruleEngine, deps.Notifier, deps.Summarizer, requestStore)

	executor := steps.NewExecutor(log.WithField("component", "StepExecutor"), deps.StepOverrides)

	e.scheduler = scheduler.New(
		log.WithField("component", "ResolutionScheduler"),
		e.registry, deps.Catalog, executor, e, occurrenceStore, e.metrics,
		scheduler.Options{
			Enabled:       cfg.AutoResolutionEnabled,
			MaxConcurrent: cfg.MaxConcurrentResolutions,
			BackoffBase:   cfg.RetryBackoffBase,
		})

	var intakeStore intake.OccurrenceStore
	if deps.Store != nil {
		intakeStore = deps.Store
	}

	e.intake = intake.New(
		log.WithField("component", "ExceptionIntake"),
		e.registry, deps.Classifier, deps.Secondary, e.scheduler, intakeStore, e.metrics)

	e.monitor = monitor.New(cfg.HealthCheckInterval, cfg.ArchiveTTL, deps.Probes, e.intake, e.scheduler, e.registry)

	if cfg.LearningModeEnabled {
		log.Info("learning mode enabled: resolved outcomes will be retained for classifier tuning")
	}

	return e, nil
}

// Start launches the health monitor and arms the scheduler, then re-offers
// any occurrences left in MONITORING by a previous run.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.monitorDone = make(chan struct{})
	done := e.monitorDone
	e.mu.Unlock()

	e.scheduler.Start(runCtx)

	go func() {
		defer close(done)
		_ = e.monitor.Run(runCtx)
	}()

	e.scheduler.SweepMonitoring()

	e.logger.WithFields(logrus.Fields{
		"auto_resolution": e.cfg.AutoResolutionEnabled,
		"max_concurrent":  e.cfg.MaxConcurrentResolutions,
	}).Info("resolution engine started")
}

// Stop cancels the monitor loop and all in-flight resolution tasks, then
// waits for them to drain. Interrupted occurrences stay in MONITORING and
// resume on the next Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	done := e.monitorDone
	e.mu.Unlock()

	cancel()
	e.scheduler.Wait()
	<-done

	e.logger.Info("resolution engine stopped")
}

// Report feeds a failure into intake.
func (e *Engine) Report(ctx context.Context, input intake.ReportInput) (string, error) {
	return e.intake.Report(ctx, input)
}

// Occurrence returns a copy of an active occurrence.
func (e *Engine) Occurrence(id string) (model.ExceptionOccurrence, bool) {
	return e.registry.Get(id)
}

// Escalations returns the live escalation requests.
func (e *Engine) Escalations() []*model.EscalationRequest {
	return e.dispatcher.Requests()
}

// EscalateOccurrence implements scheduler.Escalator: it evaluates the tier
// and routes through the dispatcher. Metrics count each occurrence's first
// escalation only; re-escalations update the existing request.
func (e *Engine) EscalateOccurrence(ctx context.Context, occurrenceID, reason string) {
	occ, ok := e.registry.Get(occurrenceID)
	if !ok {
		return
	}

	tier := e.ruleEngine.Evaluate(&occ)
	firstEscalation := occ.EscalatedAt == nil

	if _, err := e.dispatcher.Escalate(ctx, occurrenceID, tier, reason); err != nil {
		e.logger.WithError(err).WithField("occurrence_id", occurrenceID).
			Error("escalation failed")
		return
	}

	if firstEscalation {
		e.metrics.RecordEscalated()
	}
}

// Status is the observability snapshot. Read-only, no side effects.
type Status struct {
	Running               bool             `json:"running"`
	ActiveOccurrences     int              `json:"active_occurrences"`
	TotalOccurrences      int64            `json:"total_occurrences"`
	CountsByState         map[string]int   `json:"counts_by_state"`
	CountsBySeverity      map[string]int   `json:"counts_by_severity"`
	AutoResolutionRate    float64          `json:"auto_resolution_rate"`
	EscalationRate        float64          `json:"escalation_rate"`
	AverageResolutionTime string           `json:"average_resolution_time"`
	EscalationRequests    int              `json:"escalation_requests"`
	SeverityTotals        map[string]int64 `json:"severity_totals"`
}

// GetStatus derives the engine status from the registry and metrics.
func (e *Engine) GetStatus() Status {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()

	snapshot := e.metrics.Snapshot()

	byState := make(map[string]int)
	for status, count := range e.registry.CountByStatus() {
		byState[string(status)] = count
	}

	bySeverity := make(map[string]int)
	for severity, count := range e.registry.CountBySeverity() {
		bySeverity[severity.String()] = count
	}

	return Status{
		Running:               running,
		ActiveOccurrences:     e.registry.Len(),
		TotalOccurrences:      snapshot.TotalOccurrences,
		CountsByState:         byState,
		CountsBySeverity:      bySeverity,
		AutoResolutionRate:    snapshot.AutoResolutionRate,
		EscalationRate:        snapshot.EscalationRate,
		AverageResolutionTime: snapshot.AverageResolutionTime,
		EscalationRequests:    len(e.dispatcher.Requests()),
		SeverityTotals:        snapshot.CountsBySeverity,
	}
}
