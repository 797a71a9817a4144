package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/internal/tracking"
	"Alertify/pkg/sse"
	"Alertify/pkg/util"
)

// StartCommand is the UI-facing request to open an alert.
type StartCommand struct {
	Owner        string
	TriggerType  models.TriggerType
	Location     models.Location
	LocationName string
}

type DispatcherConfig struct {
	Stores       *store.Stores
	Senders      []Sender
	Formatter    *Formatter
	Hub          *sse.Hub
	Interval     time.Duration
	SendTimeout  time.Duration
	TrackCadence time.Duration
	Logger       *zap.Logger
}

// Dispatcher owns one repeater and one tracker per active alert. Repeaters
// share nothing but the state store, which serializes concurrent updates
// per alert id.
type Dispatcher struct {
	stores       *store.Stores
	senders      []Sender
	fmtr         *Formatter
	hub          *sse.Hub
	interval     time.Duration
	sendTimeout  time.Duration
	trackCadence time.Duration
	log          *zap.Logger

	// Runtimes live on the dispatcher's own context, not the caller's: a
	// repeater must outlive the HTTP request that started it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	runtimes map[string]*runtime
}

type runtime struct {
	rep     *Repeater
	tracker *tracking.Tracker
	source  *tracking.ChannelSource
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		stores:       cfg.Stores,
		senders:      cfg.Senders,
		fmtr:         cfg.Formatter,
		hub:          cfg.Hub,
		interval:     cfg.Interval,
		sendTimeout:  cfg.SendTimeout,
		trackCadence: cfg.TrackCadence,
		log:          cfg.Logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// StartAlert creates the alert record and brings up its dispatch runtime.
// The alert is persisted even with zero contacts so the tracking link
// works; dispatch only starts when there is somebody to notify.
func (d *Dispatcher) StartAlert(ctx context.Context, cmd StartCommand) (*models.Alert, error) {
	contacts, err := d.stores.Contacts.ListForOwner(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}

	loc := cmd.Location
	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}

	ids := make(models.IDList, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}

	id := uuid.NewString()
	alert := &models.Alert{
		ID:               id,
		TriggerType:      cmd.TriggerType,
		Status:           models.AlertStatusActive,
		Location:         loc,
		LocationName:     cmd.LocationName,
		CreatedBy:        cmd.Owner,
		ContactsNotified: ids,
		GoogleMapsURL:    d.fmtr.MapURL(loc),
		TrackingURL:      d.fmtr.TrackingURL(id),
	}
	if err := d.stores.Alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	util.Sig().Emit(models.SigAlertCreated, alert)

	if len(contacts) == 0 {
		d.log.Warn("alert started with no contacts, dispatch idle",
			zap.String("alert_id", alert.ID), zap.String("owner", cmd.Owner))
		return alert, nil
	}

	if err := d.startRuntime(alert); err != nil {
		d.log.Error("start dispatch runtime failed",
			zap.String("alert_id", alert.ID), zap.Error(err))
	}
	return alert, nil
}

// startRuntime brings up the tracker and repeater on the dispatcher's
// lifecycle context. The caller's context governs only the synchronous
// store writes leading here; dispatch must keep running after the
// originating request (or client) is gone.
func (d *Dispatcher) startRuntime(alert *models.Alert) error {
	source := tracking.NewChannelSource()
	tracker := tracking.New(tracking.Config{
		AlertID: alert.ID,
		Source:  source,
		Store:   d.stores.Locations,
		Hub:     d.hub,
		Cadence: d.trackCadence,
		Logger:  d.log,
	})

	owner := alert.CreatedBy
	contactIDs := []uint(alert.ContactsNotified)
	rep := NewRepeater(RepeaterConfig{
		AlertID: alert.ID,
		Store:   d.stores.Alerts,
		Senders: d.senders,
		Contacts: func(ctx context.Context) ([]models.TrustedContact, error) {
			return d.stores.Contacts.ListByIDs(ctx, owner, contactIDs)
		},
		Location:    tracker,
		Formatter:   d.fmtr,
		Interval:    d.interval,
		SendTimeout: d.sendTimeout,
		Logger:      d.log,
	})

	tracker.Start(d.ctx)
	if err := rep.Start(d.ctx); err != nil {
		tracker.Stop()
		return err
	}

	d.mu.Lock()
	if d.runtimes == nil {
		d.runtimes = make(map[string]*runtime)
	}
	d.runtimes[alert.ID] = &runtime{rep: rep, tracker: tracker, source: source}
	d.mu.Unlock()

	// Tear the runtime down once the repeater reaches Stopped.
	go func() {
		<-rep.Done()
		tracker.Stop()
		d.mu.Lock()
		delete(d.runtimes, alert.ID)
		d.mu.Unlock()
	}()
	return nil
}

// MarkSafe resolves the alert. The status write is authoritative; the
// repeater is only nudged afterwards and never blocks this call.
func (d *Dispatcher) MarkSafe(ctx context.Context, alertID, owner string) (*models.Alert, error) {
	return d.resolve(ctx, alertID, owner, models.AlertStatusResolved)
}

// MarkFalseAlarm closes the alert as a false alarm.
func (d *Dispatcher) MarkFalseAlarm(ctx context.Context, alertID, owner string) (*models.Alert, error) {
	return d.resolve(ctx, alertID, owner, models.AlertStatusFalseAlarm)
}

func (d *Dispatcher) resolve(ctx context.Context, alertID, owner string, status models.AlertStatus) (*models.Alert, error) {
	alert, err := d.stores.Alerts.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if owner != "" && alert.CreatedBy != owner {
		return nil, store.ErrNotFound
	}

	now := time.Now()
	updated, err := d.stores.Alerts.Update(ctx, alertID, store.AlertPatch{
		Status:     &status,
		ResolvedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	util.Sig().Emit(models.SigAlertResolved, updated)

	d.mu.Lock()
	rt := d.runtimes[alertID]
	d.mu.Unlock()
	if rt != nil {
		rt.rep.NotifyStatusChange()
	}
	return updated, nil
}

// Ingest feeds a device location sample into the alert's tracker. For an
// alert without a running tracker the sample is persisted directly so the
// tracking view still advances.
func (d *Dispatcher) Ingest(ctx context.Context, alertID, owner string, loc models.Location) error {
	alert, err := d.stores.Alerts.Get(ctx, alertID)
	if err != nil {
		return err
	}
	if owner != "" && alert.CreatedBy != owner {
		return store.ErrNotFound
	}
	if alert.Status.Terminal() {
		return store.ErrConflict
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}

	d.mu.Lock()
	rt := d.runtimes[alertID]
	d.mu.Unlock()
	if rt != nil {
		rt.source.Push(loc)
		return nil
	}
	if err := d.stores.Locations.Append(ctx, models.FromLocation(alertID, loc)); err != nil {
		return err
	}
	if d.hub != nil {
		d.hub.SendToGroupJSON("alert:"+alertID, loc)
	}
	return nil
}

// Status reports the repeater snapshot for an alert, if one is running.
func (d *Dispatcher) Status(alertID string) (Status, bool) {
	d.mu.Lock()
	rt := d.runtimes[alertID]
	d.mu.Unlock()
	if rt == nil {
		return Status{}, false
	}
	return rt.rep.Status(), true
}

// RestoreActive restarts dispatch for alerts that were active when the
// process last stopped. Dispatch is server-owned: it must not depend on
// any client staying connected.
func (d *Dispatcher) RestoreActive(ctx context.Context) error {
	alerts, err := d.stores.Alerts.ListActive(ctx)
	if err != nil {
		return err
	}
	for i := range alerts {
		alert := alerts[i]
		if len(alert.ContactsNotified) == 0 {
			continue
		}
		if err := d.startRuntime(&alert); err != nil {
			d.log.Warn("restore dispatch failed",
				zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
	d.log.Info("restored active alerts", zap.Int("count", len(alerts)))
	return nil
}

// StopAll shuts every runtime down, letting in-flight cycles finish, then
// cancels the dispatcher's lifecycle context.
func (d *Dispatcher) StopAll(timeout time.Duration) {
	defer d.cancel()

	d.mu.Lock()
	reps := make([]*Repeater, 0, len(d.runtimes))
	for _, rt := range d.runtimes {
		reps = append(reps, rt.rep)
	}
	d.mu.Unlock()

	for _, rep := range reps {
		rep.Stop()
	}
	deadline := time.After(timeout)
	for _, rep := range reps {
		select {
		case <-rep.Done():
		case <-deadline:
			return
		}
	}
}
