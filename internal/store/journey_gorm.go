package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"Alertify/internal/models"
)

type gormJourneyStore struct {
	db *gorm.DB
}

func (s *gormJourneyStore) Create(ctx context.Context, journey *models.Journey) error {
	return s.db.WithContext(ctx).Create(journey).Error
}

func (s *gormJourneyStore) Get(ctx context.Context, id string) (*models.Journey, error) {
	var j models.Journey
	err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// UpdateStatus performs a guarded transition; a journey that already left
// `from` yields ErrConflict so double escalations cannot happen.
func (s *gormJourneyStore) UpdateStatus(ctx context.Context, id string, from, to models.JourneyStatus, endedAt *time.Time) error {
	updates := map[string]any{"status": to}
	if endedAt != nil {
		updates["ended_at"] = *endedAt
	}
	res := s.db.WithContext(ctx).Model(&models.Journey{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func (s *gormJourneyStore) UpdatePosition(ctx context.Context, id string, lat, lng float64) error {
	return s.db.WithContext(ctx).Model(&models.Journey{}).
		Where("id = ?", id).
		Updates(map[string]any{"current_lat": lat, "current_lng": lng}).Error
}

func (s *gormJourneyStore) ListActiveForOwner(ctx context.Context, owner string) ([]models.Journey, error) {
	var journeys []models.Journey
	err := s.db.WithContext(ctx).
		Where("created_by = ? AND status = ?", owner, models.JourneyStatusActive).
		Order("created_at DESC").
		Find(&journeys).Error
	return journeys, err
}

func (s *gormJourneyStore) ListActive(ctx context.Context) ([]models.Journey, error) {
	var journeys []models.Journey
	err := s.db.WithContext(ctx).
		Where("status = ?", models.JourneyStatusActive).
		Find(&journeys).Error
	return journeys, err
}
