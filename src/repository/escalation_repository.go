package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resolutionengine/src/database"
	"resolutionengine/src/model"
)

// GormEscalationRepository persists escalation requests using GORM.
type GormEscalationRepository struct {
	db *gorm.DB
}

// NewEscalationRepository creates an escalation-request repository on the
// main DB.
func NewEscalationRepository() *GormEscalationRepository {
	return &GormEscalationRepository{db: database.MainDB}
}

// UpsertEscalationRequest inserts or updates the live request for an
// occurrence. The occurrence id carries a unique index, so re-escalations
// update in place.
func (r *GormEscalationRepository) UpsertEscalationRequest(ctx context.Context, request *model.EscalationRequest) error {
	logger.WithFields(map[string]interface{}{
		"repo":          "EscalationRepository",
		"op":            "UpsertEscalationRequest",
		"occurrence_id": request.OccurrenceID,
		"tier":          request.Tier,
	}).Debug("Upserting escalation request")

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "occurrence_id"}},
			UpdateAll: true,
		}).
		Create(request).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":          "EscalationRepository",
			"op":            "UpsertEscalationRequest",
			"occurrence_id": request.OccurrenceID,
		}).WithError(err).Error("Failed to upsert escalation request")

		return err
	}

	return nil
}

// FindByOccurrenceID fetches the live request for an occurrence.
// Returns (nil, nil) if not found.
func (r *GormEscalationRepository) FindByOccurrenceID(ctx context.Context, occurrenceID string) (*model.EscalationRequest, error) {
	var request model.EscalationRequest

	err := r.db.WithContext(ctx).
		First(&request, "occurrence_id = ?", occurrenceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":          "EscalationRepository",
			"op":            "FindByOccurrenceID",
			"occurrence_id": occurrenceID,
		}).WithError(err).Error("Failed to fetch escalation request")

		return nil, err
	}

	return &request, nil
}
