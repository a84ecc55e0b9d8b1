package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStrategyNotFound means no registered strategy applies to the
	// occurrence's exception type; the occurrence escalates immediately.
	ErrStrategyNotFound = errors.New("no resolution strategy found")

	// ErrClassifierUnavailable signals the classifier collaborator could not
	// be reached; intake falls back to the static severity map.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrNotifierUnavailable signals outbound notification failed. It is
	// logged and never blocks an escalation state transition.
	ErrNotifierUnavailable = errors.New("notifier unavailable")
)

// ValidationError rejects bad intake input before an occurrence exists.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid report: %s %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StepFailure is the outcome of a failed remediation step. It drives the
// retry/escalate decision and is never fatal to the scheduler.
type StepFailure struct {
	Kind  StepKind
	Cause error
}

func (e *StepFailure) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("step %s failed", e.Kind)
	}
	return fmt.Sprintf("step %s failed: %v", e.Kind, e.Cause)
}

func (e *StepFailure) Unwrap() error {
	return e.Cause
}
