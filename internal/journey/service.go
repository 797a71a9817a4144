package journey

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Alertify/internal/dispatch"
	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/pkg/util"
)

// StartCommand describes a new tracked trip.
type StartCommand struct {
	Owner             string
	DestinationName   string
	DestinationLat    float64
	DestinationLng    float64
	StartLat          *float64
	StartLng          *float64
	EstimatedDuration int
}

// Service runs the journey lifecycle and escalates journeys into alerts.
type Service struct {
	stores     *store.Stores
	dispatcher *dispatch.Dispatcher
	log        *zap.Logger
}

func NewService(stores *store.Stores, dispatcher *dispatch.Dispatcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{stores: stores, dispatcher: dispatcher, log: log}
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) (*models.Journey, error) {
	now := time.Now()
	j := &models.Journey{
		ID:                uuid.NewString(),
		DestinationName:   cmd.DestinationName,
		DestinationLat:    cmd.DestinationLat,
		DestinationLng:    cmd.DestinationLng,
		StartLat:          cmd.StartLat,
		StartLng:          cmd.StartLng,
		CurrentLat:        cmd.StartLat,
		CurrentLng:        cmd.StartLng,
		Status:            models.JourneyStatusActive,
		StartedAt:         &now,
		EstimatedDuration: cmd.EstimatedDuration,
		CreatedBy:         cmd.Owner,
	}
	if err := s.stores.Journeys.Create(ctx, j); err != nil {
		return nil, err
	}
	util.Sig().Emit(models.SigJourneyStarted, j)
	return j, nil
}

func (s *Service) Complete(ctx context.Context, id, owner string) (*models.Journey, error) {
	return s.finish(ctx, id, owner, models.JourneyStatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id, owner string) (*models.Journey, error) {
	return s.finish(ctx, id, owner, models.JourneyStatusCancelled)
}

func (s *Service) finish(ctx context.Context, id, owner string, to models.JourneyStatus) (*models.Journey, error) {
	j, err := s.get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.stores.Journeys.UpdateStatus(ctx, j.ID, models.JourneyStatusActive, to, &now); err != nil {
		return nil, err
	}
	return s.stores.Journeys.Get(ctx, j.ID)
}

// Escalate turns an active journey into an SOS alert. The status
// transition is guarded, so a racing completion or a second escalation
// yields ErrConflict and no duplicate alert.
func (s *Service) Escalate(ctx context.Context, id, owner string, trigger models.TriggerType) (*models.Alert, error) {
	j, err := s.get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.stores.Journeys.UpdateStatus(ctx, j.ID, models.JourneyStatusActive, models.JourneyStatusSOSTriggered, &now); err != nil {
		return nil, err
	}

	alert, err := s.dispatcher.StartAlert(ctx, dispatch.StartCommand{
		Owner:        j.CreatedBy,
		TriggerType:  trigger,
		Location:     lastKnownLocation(j, now),
		LocationName: "En route to " + j.DestinationName,
	})
	if err != nil {
		return nil, err
	}
	s.log.Warn("journey escalated to alert",
		zap.String("journey_id", j.ID),
		zap.String("alert_id", alert.ID),
		zap.String("trigger", string(trigger)))
	return alert, nil
}

func (s *Service) ListActive(ctx context.Context, owner string) ([]models.Journey, error) {
	return s.stores.Journeys.ListActiveForOwner(ctx, owner)
}

func (s *Service) UpdatePosition(ctx context.Context, id, owner string, lat, lng float64) error {
	if _, err := s.get(ctx, id, owner); err != nil {
		return err
	}
	return s.stores.Journeys.UpdatePosition(ctx, id, lat, lng)
}

func (s *Service) get(ctx context.Context, id, owner string) (*models.Journey, error) {
	j, err := s.stores.Journeys.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != "" && j.CreatedBy != owner {
		return nil, store.ErrNotFound
	}
	return j, nil
}

// lastKnownLocation prefers the latest reported position, falling back to
// the start point and finally the destination so the alert never carries a
// zero coordinate.
func lastKnownLocation(j *models.Journey, now time.Time) models.Location {
	loc := models.Location{
		Latitude:  j.DestinationLat,
		Longitude: j.DestinationLng,
		Timestamp: now,
	}
	if j.StartLat != nil && j.StartLng != nil {
		loc.Latitude, loc.Longitude = *j.StartLat, *j.StartLng
	}
	if j.CurrentLat != nil && j.CurrentLng != nil {
		loc.Latitude, loc.Longitude = *j.CurrentLat, *j.CurrentLng
	}
	return loc
}
