package model

// ExceptionType is the closed taxonomy of failures the engine manages.
type ExceptionType string

const (
	// system
	TypeSystemError        ExceptionType = "SYSTEM_ERROR"
	TypeDatabaseError      ExceptionType = "DATABASE_ERROR"
	TypeNetworkError       ExceptionType = "NETWORK_ERROR"
	TypeIntegrationTimeout ExceptionType = "INTEGRATION_TIMEOUT"

	// business
	TypeAPIFailure             ExceptionType = "API_FAILURE"
	TypeDataValidationError    ExceptionType = "DATA_VALIDATION_ERROR"
	TypeReconciliationMismatch ExceptionType = "RECONCILIATION_MISMATCH"
	TypeDeadlineAtRisk         ExceptionType = "DEADLINE_AT_RISK"

	// process
	TypeWorkflowStalled ExceptionType = "WORKFLOW_STALLED"
	TypeTaskAbandoned   ExceptionType = "TASK_ABANDONED"
	TypeApprovalTimeout ExceptionType = "APPROVAL_TIMEOUT"

	// external
	TypeVendorUnavailable   ExceptionType = "VENDOR_UNAVAILABLE"
	TypeDocumentRejected    ExceptionType = "DOCUMENT_REJECTED"
	TypeCommunicationBounce ExceptionType = "COMMUNICATION_BOUNCE"
)

type ExceptionCategory string

const (
	CategorySystem   ExceptionCategory = "system"
	CategoryBusiness ExceptionCategory = "business"
	CategoryProcess  ExceptionCategory = "process"
	CategoryExternal ExceptionCategory = "external"
	CategoryUnknown  ExceptionCategory = "unknown"
)

var exceptionCategories = map[ExceptionType]ExceptionCategory{
	TypeSystemError:        CategorySystem,
	TypeDatabaseError:      CategorySystem,
	TypeNetworkError:       CategorySystem,
	TypeIntegrationTimeout: CategorySystem,

	TypeAPIFailure:             CategoryBusiness,
	TypeDataValidationError:    CategoryBusiness,
	TypeReconciliationMismatch: CategoryBusiness,
	TypeDeadlineAtRisk:         CategoryBusiness,

	TypeWorkflowStalled: CategoryProcess,
	TypeTaskAbandoned:   CategoryProcess,
	TypeApprovalTimeout: CategoryProcess,

	TypeVendorUnavailable:   CategoryExternal,
	TypeDocumentRejected:    CategoryExternal,
	TypeCommunicationBounce: CategoryExternal,
}

// Known reports whether t belongs to the supported taxonomy.
func (t ExceptionType) Known() bool {
	_, ok := exceptionCategories[t]
	return ok
}

func (t ExceptionType) Category() ExceptionCategory {
	if category, ok := exceptionCategories[t]; ok {
		return category
	}
	return CategoryUnknown
}

// Severity is ordinal: higher value means more urgent.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
	SeverityEmergency
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) Valid() bool {
	return s >= SeverityLow && s <= SeverityEmergency
}

// ResolutionStatus is the occurrence lifecycle state.
type ResolutionStatus string

const (
	StatusDetected   ResolutionStatus = "DETECTED"
	StatusAnalyzing  ResolutionStatus = "ANALYZING"
	StatusResolving  ResolutionStatus = "RESOLVING"
	StatusMonitoring ResolutionStatus = "MONITORING"
	StatusResolved   ResolutionStatus = "RESOLVED"
	StatusEscalated  ResolutionStatus = "ESCALATED"
)

// Terminal reports whether the occurrence needs no further work.
func (s ResolutionStatus) Terminal() bool {
	return s == StatusResolved || s == StatusEscalated
}

// EscalationTier buckets how urgently humans must get involved.
// TierAutonomous means no human involvement yet.
type EscalationTier string

const (
	TierAutonomous          EscalationTier = "AUTONOMOUS"
	TierAgentNotification   EscalationTier = "AGENT_NOTIFICATION"
	TierHumanReview         EscalationTier = "HUMAN_REVIEW"
	TierManagerIntervention EscalationTier = "MANAGER_INTERVENTION"
	TierEmergencyResponse   EscalationTier = "EMERGENCY_RESPONSE"
)

// EscalationRequestStatus tracks the human side of an escalation.
type EscalationRequestStatus string

const (
	RequestPending    EscalationRequestStatus = "pending"
	RequestAssigned   EscalationRequestStatus = "assigned"
	RequestInProgress EscalationRequestStatus = "in_progress"
	RequestResolved   EscalationRequestStatus = "resolved"
	RequestCancelled  EscalationRequestStatus = "cancelled"
)
