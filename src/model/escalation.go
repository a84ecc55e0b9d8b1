package model

import "time"

// EscalationRule maps an occurrence to an escalation tier. Rules are
// evaluated in registration order and the first match wins, so the most
// specific rules must be registered first.
type EscalationRule struct {
	ID                  string
	Name                string
	MinSeverity         Severity
	MinAttempts         int
	ExceptionTypes      []ExceptionType // empty means any type
	BusinessImpactFlags []string        // context flags, any match qualifies
	MinAffectedTxns     int
	TargetTier          EscalationTier
	Channels            []string
	PreEscalationDelay  time.Duration
	AutoRetryFirst      bool
}

// EscalationRequest is the unit handed to human responders. One live request
// exists per occurrence; re-escalation updates it in place.
type EscalationRequest struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	OccurrenceID string         `gorm:"size:36;not null;uniqueIndex" json:"occurrence_id"`
	Tier         EscalationTier `gorm:"size:30;not null" json:"tier"`

	Summary            string        `gorm:"size:2048" json:"summary"`
	RecommendedActions []string      `gorm:"type:jsonb;serializer:json" json:"recommended_actions,omitempty"`
	RequiredResponse   time.Duration `gorm:"not null" json:"required_response_time"`

	Status    EscalationRequestStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}
