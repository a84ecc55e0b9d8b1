package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resolutionengine/src/classifier"
	"resolutionengine/src/model"
	"resolutionengine/src/registry"
)

// Scheduler receives validated occurrences for resolution.
type Scheduler interface {
	Schedule(occurrenceID string)
}

// OccurrenceStore persists occurrence snapshots when durability is enabled.
type OccurrenceStore interface {
	UpsertOccurrence(ctx context.Context, occ *model.ExceptionOccurrence) error
}

// IntakeObserver counts reported occurrences (metrics).
type IntakeObserver interface {
	RecordReported(severity model.Severity)
}

// ReportInput is a raw failure report from probes or external callers.
type ReportInput struct {
	Type           model.ExceptionType `json:"type"`
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	RawError       string              `json:"raw_error,omitempty"`
	Component      string              `json:"component,omitempty"`
	Context        map[string]any      `json:"context,omitempty"`
	TransactionID  *string             `json:"transaction_id,omitempty"`
	BusinessImpact string              `json:"business_impact,omitempty"`
}

// Intake validates reports, classifies them and creates occurrences.
type Intake struct {
	logger     *logrus.Entry
	registry   *registry.Registry
	classifier classifier.Classifier
	secondary  classifier.Classifier
	scheduler  Scheduler
	store      OccurrenceStore
	observer   IntakeObserver

	now   func() time.Time
	newID func() string
}

// New wires an intake. secondary, store and observer may be nil; a nil
// classifier means the static fallback is used for everything.
func New(logger *logrus.Entry, reg *registry.Registry, primary, secondary classifier.Classifier, sched Scheduler, store OccurrenceStore, observer IntakeObserver) *Intake {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if primary == nil {
		primary = classifier.Static{}
	}

	return &Intake{
		logger:     logger,
		registry:   reg,
		classifier: primary,
		secondary:  secondary,
		scheduler:  sched,
		store:      store,
		observer:   observer,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// secondaryConfidenceThreshold: below this the advisory second opinion is
// requested without blocking scheduling.
const secondaryConfidenceThreshold = 0.7

// Report validates the input, classifies it and creates the occurrence,
// handing it to the scheduler in ANALYZING state. Returns the occurrence id.
func (i *Intake) Report(ctx context.Context, input ReportInput) (string, error) {
	if input.Type == "" {
		return "", &model.ValidationError{Field: "type", Reason: "is required"}
	}
	if input.Title == "" {
		return "", &model.ValidationError{Field: "title", Reason: "is required"}
	}
	if !input.Type.Known() {
		return "", &model.ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not a recognized exception type", input.Type)}
	}

	severity, confidence, patternID, tags := i.classify(ctx, input)

	now := i.now()
	occ := &model.ExceptionOccurrence{
		ID:               i.newID(),
		TransactionID:    input.TransactionID,
		Type:             input.Type,
		Severity:         severity,
		Title:            input.Title,
		Description:      input.Description,
		RawError:         input.RawError,
		Component:        input.Component,
		Context:          input.Context,
		DetectedAt:       now,
		ResolutionStatus: model.StatusDetected,
		EscalationTier:   model.TierAutonomous,
		Confidence:       confidence,
		PatternID:        patternID,
		Tags:             tags,
		BusinessImpact:   input.BusinessImpact,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	i.registry.Add(occ)

	if i.observer != nil {
		i.observer.RecordReported(severity)
	}

	i.logger.WithFields(logrus.Fields{
		"occurrence_id": occ.ID,
		"type":          occ.Type,
		"severity":      occ.Severity.String(),
		"component":     occ.Component,
	}).Info("exception reported")

	i.registry.TryTransition(occ.ID, model.StatusAnalyzing, model.StatusDetected)

	if i.store != nil {
		if err := i.store.UpsertOccurrence(ctx, occ); err != nil {
			i.logger.WithError(err).WithField("occurrence_id", occ.ID).
				Error("failed to persist occurrence")
		}
	}

	if confidence < secondaryConfidenceThreshold && i.secondary != nil {
		go i.secondOpinion(occ.ID, input)
	}

	i.scheduler.Schedule(occ.ID)

	return occ.ID, nil
}

// classify runs the primary classifier, falling back to the static severity
// map when it is unavailable. Context flags for closing-critical work force
// at least CRITICAL regardless of the base severity.
func (i *Intake) classify(ctx context.Context, input ReportInput) (model.Severity, float64, string, []string) {
	severity := classifier.StaticSeverity(input.Type)
	confidence := 0.5
	patternID := ""
	var tags []string

	classification, err := i.classifier.Classify(ctx, input.Type, input.Context)
	if err != nil {
		i.logger.WithError(err).WithField("type", input.Type).
			Warn("classifier unavailable, using static severity map")
	} else {
		if classification.Severity.Valid() {
			severity = classification.Severity
		}
		confidence = classification.Confidence
		patternID = classification.PatternID
		tags = classification.Tags
	}

	if flaggedCritical(input.Context) && severity < model.SeverityCritical {
		severity = model.SeverityCritical
	}

	return severity, confidence, patternID, tags
}

func flaggedCritical(reportContext map[string]any) bool {
	probe := model.ExceptionOccurrence{Context: reportContext}
	return probe.ContextFlag("affects_critical_path") || probe.ContextFlag("affects_closing")
}

// secondOpinion asks the advisory classifier for a second verdict. It may
// only adjust tags and confidence; severity is untouched so a resolution
// already underway keeps its urgency.
func (i *Intake) secondOpinion(occurrenceID string, input ReportInput) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	classification, err := i.secondary.Classify(ctx, input.Type, input.Context)
	if err != nil {
		i.logger.WithError(err).WithField("occurrence_id", occurrenceID).
			Debug("secondary classification unavailable")
		return
	}

	i.registry.Update(occurrenceID, func(o *model.ExceptionOccurrence) {
		if classification.Confidence > o.Confidence {
			o.Confidence = classification.Confidence
		}
		o.Tags = append(o.Tags, classification.Tags...)
		if o.PatternID == "" {
			o.PatternID = classification.PatternID
		}
	})
}
