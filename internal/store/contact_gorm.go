package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Alertify/internal/models"
)

type gormContactStore struct {
	db *gorm.DB
}

func (s *gormContactStore) Create(ctx context.Context, contact *models.TrustedContact) error {
	return s.db.WithContext(ctx).Create(contact).Error
}

func (s *gormContactStore) Get(ctx context.Context, owner string, id uint) (*models.TrustedContact, error) {
	var c models.TrustedContact
	err := s.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, owner).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormContactStore) Update(ctx context.Context, contact *models.TrustedContact) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", contact.ID, contact.CreatedBy).
		Select("Name", "Phone", "Email", "Relationship", "IsPrimary", "NotifyOnJourney", "AvatarColor").
		Updates(contact)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormContactStore) Delete(ctx context.Context, owner string, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, owner).
		Delete(&models.TrustedContact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForOwner orders primary contacts first, then by name. Only the
// owner's contacts are ever visible.
func (s *gormContactStore) ListForOwner(ctx context.Context, owner string) ([]models.TrustedContact, error) {
	var contacts []models.TrustedContact
	err := s.db.WithContext(ctx).
		Where("created_by = ?", owner).
		Order("is_primary DESC, name ASC").
		Find(&contacts).Error
	return contacts, err
}

func (s *gormContactStore) ListByIDs(ctx context.Context, owner string, ids []uint) ([]models.TrustedContact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var contacts []models.TrustedContact
	err := s.db.WithContext(ctx).
		Where("created_by = ? AND id IN ?", owner, ids).
		Order("is_primary DESC, name ASC").
		Find(&contacts).Error
	return contacts, err
}

func (s *gormContactStore) ListForJourney(ctx context.Context, owner string) ([]models.TrustedContact, error) {
	var contacts []models.TrustedContact
	err := s.db.WithContext(ctx).
		Where("created_by = ? AND notify_on_journey = ?", owner, true).
		Order("is_primary DESC, name ASC").
		Find(&contacts).Error
	return contacts, err
}
