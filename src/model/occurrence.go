package model

import "time"

// ExceptionOccurrence is a single detected failure under active management.
// Field ownership is split: intake creates the record, the scheduler mutates
// the resolution fields and the dispatcher mutates the escalation fields.
type ExceptionOccurrence struct {
	ID            string  `gorm:"primaryKey;size:36" json:"id"`
	TransactionID *string `gorm:"size:64;index" json:"transaction_id,omitempty"`

	Type     ExceptionType `gorm:"size:50;not null;index" json:"type"`
	Severity Severity      `gorm:"not null;index" json:"severity"`

	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"size:2048" json:"description"`
	RawError    string         `gorm:"type:text" json:"raw_error,omitempty"`
	Component   string         `gorm:"size:100;index" json:"component"`
	Context     map[string]any `gorm:"type:jsonb;serializer:json" json:"context,omitempty"`

	DetectedAt time.Time `gorm:"not null" json:"detected_at"`

	ResolutionStatus   ResolutionStatus     `gorm:"size:20;not null;index" json:"resolution_status"`
	AssignedStrategyID string               `gorm:"size:100" json:"assigned_strategy_id,omitempty"`
	ResolutionAttempts int                  `gorm:"not null;default:0" json:"resolution_attempts"`
	ResolutionLog      []ResolutionLogEntry `gorm:"type:jsonb;serializer:json" json:"resolution_log,omitempty"`

	EscalationTier   EscalationTier `gorm:"size:30;not null;default:AUTONOMOUS" json:"escalation_tier"`
	EscalatedAt      *time.Time     `json:"escalated_at,omitempty"`
	EscalatedTo      string         `gorm:"size:100" json:"escalated_to,omitempty"`
	EscalationReason string         `gorm:"size:512" json:"escalation_reason,omitempty"`

	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	ResolutionMethod  string     `gorm:"size:100" json:"resolution_method,omitempty"`
	ResolutionSummary string     `gorm:"size:1024" json:"resolution_summary,omitempty"`

	Confidence     float64  `gorm:"not null;default:0" json:"confidence"`
	PatternID      string   `gorm:"size:100" json:"pattern_id,omitempty"`
	Tags           []string `gorm:"type:jsonb;serializer:json" json:"tags,omitempty"`
	BusinessImpact string   `gorm:"size:100" json:"business_impact,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolutionLogEntry records one resolution attempt.
type ResolutionLogEntry struct {
	StrategyID     string    `json:"strategy_id"`
	Attempt        int       `json:"attempt"`
	StartedAt      time.Time `json:"started_at"`
	StepsCompleted int       `json:"steps_completed"`
	Outcome        string    `json:"outcome"`
}

// ContextFlag reads a boolean flag from the occurrence context map.
// Accepts bool true and the strings "true"/"1" so callers reporting over
// HTTP do not have to care about JSON number/string coercion.
func (o *ExceptionOccurrence) ContextFlag(key string) bool {
	if o.Context == nil {
		return false
	}
	switch v := o.Context[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}
