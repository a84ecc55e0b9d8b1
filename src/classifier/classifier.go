package classifier

import (
	"context"

	"resolutionengine/src/model"
)

// Classification is the classifier collaborator's verdict for a reported
// failure. Severity 0 means no override; intake keeps the static mapping.
type Classification struct {
	PatternID  string         `json:"pattern_id,omitempty"`
	Severity   model.Severity `json:"severity,omitempty"`
	Confidence float64        `json:"confidence"`
	Tags       []string       `json:"tags,omitempty"`
}

// Classifier scores a reported failure. Implementations return
// model.ErrClassifierUnavailable (possibly wrapped) when the backing
// service cannot be reached, which triggers the static fallback.
type Classifier interface {
	Classify(ctx context.Context, exceptionType model.ExceptionType, reportContext map[string]any) (Classification, error)
}

// staticSeverities is the fallback type→severity map used when the
// classifier is unavailable.
var staticSeverities = map[model.ExceptionType]model.Severity{
	model.TypeSystemError:        model.SeverityHigh,
	model.TypeDatabaseError:      model.SeverityCritical,
	model.TypeNetworkError:       model.SeverityHigh,
	model.TypeIntegrationTimeout: model.SeverityMedium,

	model.TypeAPIFailure:             model.SeverityHigh,
	model.TypeDataValidationError:    model.SeverityMedium,
	model.TypeReconciliationMismatch: model.SeverityHigh,
	model.TypeDeadlineAtRisk:         model.SeverityCritical,

	model.TypeWorkflowStalled: model.SeverityMedium,
	model.TypeTaskAbandoned:   model.SeverityLow,
	model.TypeApprovalTimeout: model.SeverityMedium,

	model.TypeVendorUnavailable:   model.SeverityMedium,
	model.TypeDocumentRejected:    model.SeverityMedium,
	model.TypeCommunicationBounce: model.SeverityLow,
}

// StaticSeverity returns the fallback severity for a type. Unknown types
// default to MEDIUM.
func StaticSeverity(t model.ExceptionType) model.Severity {
	if sev, ok := staticSeverities[t]; ok {
		return sev
	}
	return model.SeverityMedium
}

// Static is a Classifier backed only by the fallback map. It reports the
// reduced confidence intake applies to unclassified occurrences.
type Static struct{}

func (Static) Classify(ctx context.Context, exceptionType model.ExceptionType, _ map[string]any) (Classification, error) {
	return Classification{
		Severity:   StaticSeverity(exceptionType),
		Confidence: 0.5,
	}, nil
}
