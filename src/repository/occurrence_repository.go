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

// GormOccurrenceRepository persists exception occurrences using GORM.
type GormOccurrenceRepository struct {
	db *gorm.DB
}

// NewOccurrenceRepository creates an occurrence repository on the main DB.
func NewOccurrenceRepository() *GormOccurrenceRepository {
	return &GormOccurrenceRepository{db: database.MainDB}
}

// UpsertOccurrence inserts or fully updates an occurrence snapshot.
func (r *GormOccurrenceRepository) UpsertOccurrence(ctx context.Context, occ *model.ExceptionOccurrence) error {
	logger.WithFields(map[string]interface{}{
		"repo":          "OccurrenceRepository",
		"op":            "UpsertOccurrence",
		"occurrence_id": occ.ID,
		"status":        occ.ResolutionStatus,
	}).Debug("Upserting occurrence")

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(occ).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":          "OccurrenceRepository",
			"op":            "UpsertOccurrence",
			"occurrence_id": occ.ID,
		}).WithError(err).Error("Failed to upsert occurrence")

		return err
	}

	return nil
}

// FindByID fetches an occurrence by id. Returns (nil, nil) if not found.
func (r *GormOccurrenceRepository) FindByID(ctx context.Context, id string) (*model.ExceptionOccurrence, error) {
	var occ model.ExceptionOccurrence

	err := r.db.WithContext(ctx).
		First(&occ, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":          "OccurrenceRepository",
			"op":            "FindByID",
			"occurrence_id": id,
		}).WithError(err).Error("Failed to fetch occurrence")

		return nil, err
	}

	return &occ, nil
}

// ListByStatus returns occurrences in the given lifecycle state, oldest
// first. Used on startup to resume MONITORING occurrences.
func (r *GormOccurrenceRepository) ListByStatus(ctx context.Context, status model.ResolutionStatus) ([]model.ExceptionOccurrence, error) {
	var occurrences []model.ExceptionOccurrence

	err := r.db.WithContext(ctx).
		Where("resolution_status = ?", status).
		Order("detected_at ASC").
		Find(&occurrences).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "OccurrenceRepository",
			"op":     "ListByStatus",
			"status": status,
		}).WithError(err).Error("Failed to list occurrences")

		return nil, err
	}

	return occurrences, nil
}
