package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"Alertify/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an update lost a status race or would
	// mutate a terminal alert. Callers re-read and treat the stored state
	// as authoritative.
	ErrConflict = errors.New("conflicting update")
)

// AlertPatch is a partial update. Nil fields are left untouched.
// IncrementCount bumps alert_count atomically in the database rather than
// writing a caller-computed value.
type AlertPatch struct {
	Status         *models.AlertStatus
	ResolvedAt     *time.Time
	IncrementCount bool
	LastAlertSent  *time.Time
	Location       *models.Location
	GoogleMapsURL  *string
	TrackingURL    *string
}

// AlertStore is the state store contract the dispatch core runs against.
// Update is atomic per alert id; counter and status writes are guarded so
// a terminal alert can never change again.
type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	Get(ctx context.Context, id string) (*models.Alert, error)
	Update(ctx context.Context, id string, patch AlertPatch) (*models.Alert, error)
	ListActiveForOwner(ctx context.Context, owner string) ([]models.Alert, error)
	ListActive(ctx context.Context) ([]models.Alert, error)
}

type ContactStore interface {
	Create(ctx context.Context, contact *models.TrustedContact) error
	Get(ctx context.Context, owner string, id uint) (*models.TrustedContact, error)
	Update(ctx context.Context, contact *models.TrustedContact) error
	Delete(ctx context.Context, owner string, id uint) error
	ListForOwner(ctx context.Context, owner string) ([]models.TrustedContact, error)
	ListByIDs(ctx context.Context, owner string, ids []uint) ([]models.TrustedContact, error)
	ListForJourney(ctx context.Context, owner string) ([]models.TrustedContact, error)
}

type LocationStore interface {
	Append(ctx context.Context, update *models.LocationUpdate) error
	ListForAlert(ctx context.Context, alertID string, limit int) ([]models.LocationUpdate, error)
	TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type JourneyStore interface {
	Create(ctx context.Context, journey *models.Journey) error
	Get(ctx context.Context, id string) (*models.Journey, error)
	UpdateStatus(ctx context.Context, id string, from, to models.JourneyStatus, endedAt *time.Time) error
	UpdatePosition(ctx context.Context, id string, lat, lng float64) error
	ListActiveForOwner(ctx context.Context, owner string) ([]models.Journey, error)
	ListActive(ctx context.Context) ([]models.Journey, error)
}

// Stores bundles every store over one gorm handle.
type Stores struct {
	Alerts    AlertStore
	Contacts  ContactStore
	Locations LocationStore
	Journeys  JourneyStore
}

func NewStores(db *gorm.DB) *Stores {
	return &Stores{
		Alerts:    &gormAlertStore{db: db},
		Contacts:  &gormContactStore{db: db},
		Locations: &gormLocationStore{db: db},
		Journeys:  &gormJourneyStore{db: db},
	}
}
