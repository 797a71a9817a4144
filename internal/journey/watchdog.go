package journey

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"Alertify/internal/models"
	"Alertify/internal/store"
)

// Watchdog escalates journeys that outran their estimated duration plus a
// grace window. It is scheduled periodically and each sweep is idempotent:
// the guarded status transition inside Escalate makes sure a journey is
// escalated at most once even across overlapping sweeps.
type Watchdog struct {
	service *Service
	stores  *store.Stores
	grace   time.Duration
	log     *zap.Logger

	now func() time.Time
}

func NewWatchdog(service *Service, stores *store.Stores, grace time.Duration, log *zap.Logger) *Watchdog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watchdog{
		service: service,
		stores:  stores,
		grace:   grace,
		log:     log,
		now:     time.Now,
	}
}

func (w *Watchdog) Run(ctx context.Context) {
	journeys, err := w.stores.Journeys.ListActive(ctx)
	if err != nil {
		w.log.Error("watchdog: list active journeys", zap.Error(err))
		return
	}
	now := w.now()
	for i := range journeys {
		j := &journeys[i]
		if !j.Overdue(now, w.grace) {
			continue
		}
		_, err := w.service.Escalate(ctx, j.ID, "", models.TriggerAutoStop)
		if errors.Is(err, store.ErrConflict) {
			// Lost the race to a completion or manual SOS.
			continue
		}
		if err != nil {
			w.log.Error("watchdog: escalate overdue journey",
				zap.String("journey_id", j.ID), zap.Error(err))
			continue
		}
		w.log.Warn("journey overdue, SOS triggered",
			zap.String("journey_id", j.ID),
			zap.Time("started_at", *j.StartedAt),
			zap.Int("estimated_minutes", j.EstimatedDuration))
	}
}
