package escalation

import (
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

// RuleEngine maps an occurrence to an escalation tier. Rules are evaluated
// in registration order and the first match wins; register the most
// specific rules first. When nothing matches the tier defaults to
// AGENT_NOTIFICATION.
type RuleEngine struct {
	rules []*model.EscalationRule
}

// NewRuleEngine freezes the given rules. A rule without a target tier is a
// bootstrap error.
func NewRuleEngine(rules []*model.EscalationRule) (*RuleEngine, error) {
	for _, rule := range rules {
		if rule == nil {
			return nil, fmt.Errorf("rule set contains nil rule")
		}
		if rule.ID == "" {
			return nil, fmt.Errorf("rule %q has empty id", rule.Name)
		}
		if rule.TargetTier == "" || rule.TargetTier == model.TierAutonomous {
			return nil, fmt.Errorf("rule %q must target a non-autonomous tier", rule.ID)
		}
	}

	logger.WithFields(map[string]interface{}{
		"component": "EscalationRuleEngine",
		"count":     len(rules),
	}).Info("Escalation rules loaded")

	return &RuleEngine{rules: rules}, nil
}

// Evaluate returns the escalation tier for the occurrence.
func (e *RuleEngine) Evaluate(occ *model.ExceptionOccurrence) model.EscalationTier {
	if rule := e.RuleFor(occ); rule != nil {
		return rule.TargetTier
	}
	return model.TierAgentNotification
}

// RuleFor returns the first matching rule, or nil when none matches.
func (e *RuleEngine) RuleFor(occ *model.ExceptionOccurrence) *model.EscalationRule {
	for _, rule := range e.rules {
		if ruleMatches(rule, occ) {
			return rule
		}
	}
	return nil
}

func ruleMatches(rule *model.EscalationRule, occ *model.ExceptionOccurrence) bool {
	if rule.MinSeverity > 0 && occ.Severity < rule.MinSeverity {
		return false
	}

	if occ.ResolutionAttempts < rule.MinAttempts {
		return false
	}

	if len(rule.ExceptionTypes) > 0 {
		found := false
		for _, t := range rule.ExceptionTypes {
			if t == occ.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(rule.BusinessImpactFlags) > 0 {
		found := false
		for _, flag := range rule.BusinessImpactFlags {
			if occ.ContextFlag(flag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if rule.MinAffectedTxns > 0 && affectedTransactions(occ) < rule.MinAffectedTxns {
		return false
	}

	return true
}

func affectedTransactions(occ *model.ExceptionOccurrence) int {
	if occ.Context == nil {
		return 0
	}
	switch v := occ.Context["affected_transactions"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// severitySLA is the base response-time table keyed by severity.
var severitySLA = map[model.Severity]time.Duration{
	model.SeverityLow:       4 * time.Hour,
	model.SeverityMedium:    2 * time.Hour,
	model.SeverityHigh:      30 * time.Minute,
	model.SeverityCritical:  15 * time.Minute,
	model.SeverityEmergency: 5 * time.Minute,
}

const emergencyResponseCap = 5 * time.Minute

// ResponseTimeFor computes the required human response time. The
// EMERGENCY_RESPONSE tier caps it at five minutes regardless of severity.
func ResponseTimeFor(severity model.Severity, tier model.EscalationTier) time.Duration {
	sla, ok := severitySLA[severity]
	if !ok {
		sla = severitySLA[model.SeverityMedium]
	}

	if tier == model.TierEmergencyResponse && sla > emergencyResponseCap {
		sla = emergencyResponseCap
	}

	return sla
}

// defaultChannels is the notification channel list used when the matching
// rule does not name any.
var defaultChannels = map[model.EscalationTier][]string{
	model.TierAgentNotification:   {"chat"},
	model.TierHumanReview:         {"chat", "email"},
	model.TierManagerIntervention: {"email", "sms"},
	model.TierEmergencyResponse:   {"sms", "voice", "email"},
}

// ChannelsFor returns the channels for a rule/tier pair. rule may be nil.
func ChannelsFor(rule *model.EscalationRule, tier model.EscalationTier) []string {
	if rule != nil && len(rule.Channels) > 0 {
		return rule.Channels
	}
	if channels, ok := defaultChannels[tier]; ok {
		return channels
	}
	return []string{"chat"}
}

// DefaultRules is the stock rule set: most specific first, mirroring how
// operations teams triage — closing-critical outages page immediately,
// repeated failures get a human, everything severe gets a manager.
func DefaultRules() []*model.EscalationRule {
	return []*model.EscalationRule{
		{
			ID:                  "emergency-critical-path",
			Name:                "Critical-path failure",
			MinSeverity:         model.SeverityCritical,
			BusinessImpactFlags: []string{"affects_critical_path", "affects_closing"},
			TargetTier:          model.TierEmergencyResponse,
			Channels:            []string{"sms", "voice", "email"},
		},
		{
			ID:              "emergency-widespread",
			Name:            "Widespread transaction impact",
			MinSeverity:     model.SeverityHigh,
			MinAffectedTxns: 25,
			TargetTier:      model.TierEmergencyResponse,
			Channels:        []string{"sms", "voice", "email"},
		},
		{
			ID:          "manager-critical",
			Name:        "Critical severity",
			MinSeverity: model.SeverityCritical,
			TargetTier:  model.TierManagerIntervention,
		},
		{
			ID:          "review-exhausted",
			Name:        "Automation exhausted",
			MinAttempts: 3,
			TargetTier:  model.TierHumanReview,
		},
		{
			ID:          "review-high",
			Name:        "High severity",
			MinSeverity: model.SeverityHigh,
			TargetTier:  model.TierHumanReview,
		},
	}
}
