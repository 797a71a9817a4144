package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Alertify/internal/models"
)

type gormAlertStore struct {
	db *gorm.DB
}

func (s *gormAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *gormAlertStore) Get(ctx context.Context, id string) (*models.Alert, error) {
	var a models.Alert
	err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Update applies the patch in a single guarded UPDATE. Any write that
// touches the status or the dispatch counters carries a
// `WHERE status = 'active'` guard, which is what makes a terminal alert
// immutable and turns lost status races into ErrConflict.
func (s *gormAlertStore) Update(ctx context.Context, id string, patch AlertPatch) (*models.Alert, error) {
	updates := map[string]any{}
	guarded := false

	if patch.Status != nil {
		updates["status"] = *patch.Status
		guarded = true
	}
	if patch.ResolvedAt != nil {
		updates["resolved_at"] = *patch.ResolvedAt
	}
	if patch.IncrementCount {
		updates["alert_count"] = gorm.Expr("alert_count + ?", 1)
		guarded = true
	}
	if patch.LastAlertSent != nil {
		updates["last_alert_sent"] = *patch.LastAlertSent
		guarded = true
	}
	if patch.Location != nil {
		updates["latitude"] = patch.Location.Latitude
		updates["longitude"] = patch.Location.Longitude
		updates["accuracy"] = patch.Location.Accuracy
		updates["speed"] = patch.Location.Speed
		updates["heading"] = patch.Location.Heading
		updates["timestamp"] = patch.Location.Timestamp
	}
	if patch.GoogleMapsURL != nil {
		updates["google_maps_url"] = *patch.GoogleMapsURL
	}
	if patch.TrackingURL != nil {
		updates["tracking_url"] = *patch.TrackingURL
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	q := s.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", id)
	if guarded {
		q = q.Where("status = ?", models.AlertStatusActive)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Either the alert is gone or the guard rejected the write.
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.Get(ctx, id)
}

func (s *gormAlertStore) ListActiveForOwner(ctx context.Context, owner string) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("created_by = ? AND status = ?", owner, models.AlertStatusActive).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (s *gormAlertStore) ListActive(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("status = ?", models.AlertStatusActive).
		Order("created_at ASC").
		Find(&alerts).Error
	return alerts, err
}
