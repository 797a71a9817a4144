package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Alertify/internal/models"
)

type gormLocationStore struct {
	db *gorm.DB
}

func (s *gormLocationStore) Append(ctx context.Context, update *models.LocationUpdate) error {
	return s.db.WithContext(ctx).Create(update).Error
}

func (s *gormLocationStore) ListForAlert(ctx context.Context, alertID string, limit int) ([]models.LocationUpdate, error) {
	if limit <= 0 {
		limit = 20
	}
	var updates []models.LocationUpdate
	err := s.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&updates).Error
	return updates, err
}

// TrimOlderThan deletes samples past the retention window and reports how
// many rows went away.
func (s *gormLocationStore) TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.LocationUpdate{})
	return res.RowsAffected, res.Error
}

var _ LocationStore = (*gormLocationStore)(nil)
