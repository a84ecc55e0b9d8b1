package model

import "time"

// StepKind is the closed set of remediation actions a strategy may use.
type StepKind string

const (
	StepRetryOperation StepKind = "retry_operation"
	StepResetComponent StepKind = "reset_component"
	StepClearCache     StepKind = "clear_cache"
	StepAlternatePath  StepKind = "alternate_path"
	StepRestartService StepKind = "restart_service"
	StepFallbackMode   StepKind = "fallback_mode"
	StepWaitAndRetry   StepKind = "wait_and_retry"
)

// Step is one discrete remediation action. Implementations are expected to
// be idempotent: the scheduler restarts a whole strategy on retry, so a step
// may run several times for the same occurrence.
type Step struct {
	Kind   StepKind       `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// ResolutionStrategy is an ordered, bounded-retry remediation recipe for one
// or more exception types. Immutable once registered with the catalog;
// occurrences reference it by ID only.
type ResolutionStrategy struct {
	ID              string
	Name            string
	ApplicableTypes []ExceptionType
	Steps           []Step
	SuccessCriteria string
	RollbackSteps   []Step
	MaxAttempts     int
	StepTimeout     time.Duration
	RequireApproval bool
}

// AppliesTo reports whether the strategy handles the given exception type.
func (s *ResolutionStrategy) AppliesTo(t ExceptionType) bool {
	for _, candidate := range s.ApplicableTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
