package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

// Handler performs one remediation action. Handlers must be idempotent:
// retries restart the whole strategy, so a handler can run several times for
// the same occurrence.
type Handler func(ctx context.Context, step model.Step, occ *model.ExceptionOccurrence) error

// Result is the outcome of a single step run. Err carries diagnostic detail;
// the scheduler only branches on OK.
type Result struct {
	Kind     model.StepKind
	OK       bool
	Duration time.Duration
	Err      error
}

// Executor runs remediation steps. It never lets a panic or error escape:
// anything a handler raises is caught and converted into a failed Result.
type Executor struct {
	logger   *logrus.Entry
	handlers map[model.StepKind]Handler
	now      func() time.Time
}

// NewExecutor builds an executor with the built-in handlers, then applies
// host-supplied overrides per step kind. Overrides with a nil handler are
// ignored.
func NewExecutor(logger *logrus.Entry, overrides map[model.StepKind]Handler) *Executor {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	e := &Executor{
		logger:   logger,
		handlers: defaultHandlers(),
		now:      time.Now,
	}

	for kind, handler := range overrides {
		if handler != nil {
			e.handlers[kind] = handler
		}
	}

	return e
}

// Run executes one step against the occurrence. The context carries the
// per-step timeout set by the scheduler.
func (e *Executor) Run(ctx context.Context, step model.Step, occ *model.ExceptionOccurrence) (result Result) {
	start := e.now()
	result = Result{Kind: step.Kind}

	defer func() {
		result.Duration = e.now().Sub(start)

		if r := recover(); r != nil {
			result.OK = false
			result.Err = &model.StepFailure{Kind: step.Kind, Cause: fmt.Errorf("panic: %v", r)}
			e.logger.WithFields(logrus.Fields{
				"step":          step.Kind,
				"occurrence_id": occ.ID,
				"panic":         fmt.Sprintf("%v", r),
			}).Error("step handler panicked")
		}
	}()

	handler, ok := e.handlers[step.Kind]
	if !ok {
		result.Err = &model.StepFailure{Kind: step.Kind, Cause: fmt.Errorf("unknown step kind")}
		e.logger.WithFields(logrus.Fields{
			"step":          step.Kind,
			"occurrence_id": occ.ID,
		}).Error("no handler registered for step kind")
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Err = &model.StepFailure{Kind: step.Kind, Cause: err}
		return result
	}

	if err := handler(ctx, step, occ); err != nil {
		result.Err = &model.StepFailure{Kind: step.Kind, Cause: err}
		e.logger.WithError(err).WithFields(logrus.Fields{
			"step":          step.Kind,
			"occurrence_id": occ.ID,
		}).Warn("step failed")
		return result
	}

	result.OK = true
	return result
}

// defaultHandlers covers every step kind with a conservative built-in
// action. Hosts replace these with real remediation via NewExecutor
// overrides; the defaults validate their parameters and honor cancellation
// so a bare engine still drives the full lifecycle.
func defaultHandlers() map[model.StepKind]Handler {
	return map[model.StepKind]Handler{
		model.StepRetryOperation: requireParam("operation"),
		model.StepResetComponent: requireParam("component"),
		model.StepClearCache:     requireParam("cache"),
		model.StepAlternatePath:  requireParam("path"),
		model.StepRestartService: requireParam("service"),
		model.StepFallbackMode:   requireParam("mode"),
		model.StepWaitAndRetry:   waitAndRetry,
	}
}

// requireParam builds a handler that succeeds when its target parameter is
// present. The parameter names the thing the host-side action would touch,
// so a missing one is a strategy authoring bug, not a transient failure.
func requireParam(key string) Handler {
	return func(ctx context.Context, step model.Step, occ *model.ExceptionOccurrence) error {
		if _, ok := StringParam(step, key); !ok {
			return fmt.Errorf("missing %q parameter", key)
		}
		return nil
	}
}

func waitAndRetry(ctx context.Context, step model.Step, occ *model.ExceptionOccurrence) error {
	delay := DurationParam(step, "wait", 5*time.Second)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StringParam reads a string parameter from a step.
func StringParam(step model.Step, key string) (string, bool) {
	v, ok := step.Params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DurationParam reads a duration parameter, accepting either a Go duration
// string ("30s") or a float number of seconds (the wire format used by
// strategy definitions loaded from JSON).
func DurationParam(step model.Step, key string, fallback time.Duration) time.Duration {
	v, ok := step.Params[key]
	if !ok {
		return fallback
	}

	switch value := v.(type) {
	case time.Duration:
		return value
	case string:
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	case float64:
		return time.Duration(value * float64(time.Second))
	case int:
		return time.Duration(value) * time.Second
	}

	return fallback
}
