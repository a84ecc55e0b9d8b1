package catalog

import (
	"time"

	"resolutionengine/src/model"
)

// DefaultStrategies is the stock remediation catalog. Registration order
// matters: selection is first match, so the narrowly scoped strategies come
// first.
func DefaultStrategies() []*model.ResolutionStrategy {
	return []*model.ResolutionStrategy{
		{
			ID:              "retry_with_backoff",
			Name:            "Retry with backoff",
			ApplicableTypes: []model.ExceptionType{model.TypeAPIFailure, model.TypeIntegrationTimeout, model.TypeNetworkError},
			Steps: []model.Step{
				{Kind: model.StepWaitAndRetry, Params: map[string]any{"wait": "2s"}},
				{Kind: model.StepRetryOperation, Params: map[string]any{"operation": "last_failed_call"}},
				{Kind: model.StepAlternatePath, Params: map[string]any{"path": "secondary_endpoint"}},
			},
			SuccessCriteria: "operation completes without error",
			MaxAttempts:     3,
			StepTimeout:     30 * time.Second,
		},
		{
			ID:              "database_recovery",
			Name:            "Database recovery",
			ApplicableTypes: []model.ExceptionType{model.TypeDatabaseError},
			Steps: []model.Step{
				{Kind: model.StepResetComponent, Params: map[string]any{"component": "connection_pool"}},
				{Kind: model.StepRetryOperation, Params: map[string]any{"operation": "last_failed_query"}},
			},
			SuccessCriteria: "query succeeds against primary",
			RollbackSteps: []model.Step{
				{Kind: model.StepFallbackMode, Params: map[string]any{"mode": "read_only"}},
			},
			MaxAttempts: 2,
			StepTimeout: 20 * time.Second,
		},
		{
			ID:              "cache_refresh",
			Name:            "Cache refresh",
			ApplicableTypes: []model.ExceptionType{model.TypeReconciliationMismatch, model.TypeDataValidationError},
			Steps: []model.Step{
				{Kind: model.StepClearCache, Params: map[string]any{"cache": "reference_data"}},
				{Kind: model.StepRetryOperation, Params: map[string]any{"operation": "revalidate"}},
			},
			SuccessCriteria: "validation passes on fresh data",
			MaxAttempts:     2,
			StepTimeout:     15 * time.Second,
		},
		{
			ID:              "workflow_restart",
			Name:            "Workflow restart",
			ApplicableTypes: []model.ExceptionType{model.TypeWorkflowStalled, model.TypeTaskAbandoned},
			Steps: []model.Step{
				{Kind: model.StepResetComponent, Params: map[string]any{"component": "workflow_state"}},
				{Kind: model.StepRestartService, Params: map[string]any{"service": "workflow_worker"}},
			},
			SuccessCriteria: "workflow advances past the stalled task",
			MaxAttempts:     2,
			StepTimeout:     45 * time.Second,
		},
		{
			ID:              "vendor_fallback",
			Name:            "Vendor fallback",
			ApplicableTypes: []model.ExceptionType{model.TypeVendorUnavailable, model.TypeCommunicationBounce},
			Steps: []model.Step{
				{Kind: model.StepWaitAndRetry, Params: map[string]any{"wait": "5s"}},
				{Kind: model.StepAlternatePath, Params: map[string]any{"path": "backup_vendor"}},
			},
			SuccessCriteria: "request accepted by a vendor",
			MaxAttempts:     3,
			StepTimeout:     30 * time.Second,
		},
	}
}
