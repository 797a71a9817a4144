package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/pkg/metrics"
)

// State is the repeater lifecycle. Stopped is terminal: a new alert gets a
// new repeater instance.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

var (
	ErrAlreadyStarted = errors.New("repeater already started")
	ErrNotActive      = errors.New("alert is not active")
	ErrNoContacts     = errors.New("alert has no contacts")
)

// AlertStore is the slice of the state store the repeater needs.
type AlertStore interface {
	Get(ctx context.Context, id string) (*models.Alert, error)
	Update(ctx context.Context, id string, patch store.AlertPatch) (*models.Alert, error)
}

// LocationSource yields the freshest tracked position. The second return
// is false when no fresh sample exists and the repeater must fall back to
// the alert's stored location.
type LocationSource interface {
	Latest() (models.Location, bool)
}

// ContactProvider resolves the current notification targets for a cycle.
type ContactProvider func(ctx context.Context) ([]models.TrustedContact, error)

// Status is the read-only observer surface for the UI.
type Status struct {
	AlertID     string     `json:"alert_id"`
	State       string     `json:"state"`
	CyclesSent  int        `json:"cycles_sent"`
	LastSentAt  *time.Time `json:"last_sent_at,omitempty"`
	LastSuccess int        `json:"last_cycle_success"`
	LastFailure int        `json:"last_cycle_failure"`
	LastError   string     `json:"last_error,omitempty"`
	NextIn      int        `json:"next_in_seconds"`
}

type RepeaterConfig struct {
	AlertID     string
	Store       AlertStore
	Senders     []Sender
	Contacts    ContactProvider
	Location    LocationSource // optional
	Formatter   *Formatter
	Interval    time.Duration // dispatch period, default 30s
	SendTimeout time.Duration // per-send bound, default 10s
	Logger      *zap.Logger
}

// Repeater owns one alert's recurring dispatch cycle. It runs the first
// cycle immediately on start, then one cycle per interval tick, with a
// single-flight guard ensuring at most one cycle is ever in flight for
// the alert.
type Repeater struct {
	alertID     string
	store       AlertStore
	senders     []Sender
	contacts    ContactProvider
	location    LocationSource
	fmtr        *Formatter
	interval    time.Duration
	sendTimeout time.Duration
	log         *zap.Logger

	state     atomic.Int32
	inFlight  atomic.Bool
	cycles    atomic.Int64
	countdown atomic.Int32

	nudge     chan struct{}
	cycleDone chan struct{}
	stopc     chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	cycleWG   sync.WaitGroup

	mu         sync.Mutex
	lastSentAt time.Time
	lastOK     int
	lastFail   int
	lastErr    string
	safeSent   bool
}

func NewRepeater(cfg RepeaterConfig) *Repeater {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &Repeater{
		alertID:     cfg.AlertID,
		store:       cfg.Store,
		senders:     cfg.Senders,
		contacts:    cfg.Contacts,
		location:    cfg.Location,
		fmtr:        cfg.Formatter,
		interval:    cfg.Interval,
		sendTimeout: cfg.SendTimeout,
		log:         cfg.Logger.With(zap.String("alert_id", cfg.AlertID)),
		nudge:       make(chan struct{}, 1),
		cycleDone:   make(chan struct{}, 1),
		stopc:       make(chan struct{}),
		done:        make(chan struct{}),
	}
	r.countdown.Store(int32(cfg.Interval / time.Second))
	return r
}

// Start validates the alert and begins dispatching. The first cycle runs
// immediately; contacts are notified now, not after the first interval.
func (r *Repeater) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}

	alert, err := r.store.Get(ctx, r.alertID)
	if err != nil {
		r.finish()
		return err
	}
	if alert.Status != models.AlertStatusActive {
		r.finish()
		return ErrNotActive
	}
	contacts, err := r.contacts(ctx)
	if err != nil {
		r.finish()
		return err
	}
	if len(contacts) == 0 {
		r.finish()
		return ErrNoContacts
	}

	metrics.ActiveRepeaters.Inc()
	go r.run(ctx)
	go r.countdownLoop(ctx)
	return nil
}

// finish marks the repeater Stopped without having run.
func (r *Repeater) finish() {
	r.state.Store(int32(StateStopped))
	close(r.done)
}

func (r *Repeater) run(ctx context.Context) {
	defer func() {
		r.cycleWG.Wait() // let an in-flight cycle finish naturally
		r.state.Store(int32(StateStopped))
		metrics.ActiveRepeaters.Dec()
		close(r.done)
		r.log.Info("repeater stopped", zap.Int64("cycles", r.cycles.Load()))
	}()

	// Immediate first dispatch.
	r.launchCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopc:
			return
		case <-r.nudge:
			// Status changed underneath us; the cycle re-reads state,
			// sends the courtesy message if warranted, and stops.
			r.launchCycle(ctx)
		case <-ticker.C:
			r.launchCycle(ctx)
		}
	}
}

// launchCycle starts one dispatch cycle unless one is already in flight.
// A tick that lands mid-cycle is dropped, not queued: correctness requires
// at most one concurrent cycle per alert.
func (r *Repeater) launchCycle(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		metrics.SkippedTicks.Inc()
		r.log.Debug("tick dropped, cycle still in flight")
		return
	}
	r.cycleWG.Add(1)
	go func() {
		defer r.cycleWG.Done()
		stop := r.cycle(ctx)
		r.inFlight.Store(false)
		if stop {
			r.Stop()
		}
	}()
}

// cycle performs one complete dispatch attempt. The returned bool asks the
// run loop to stop scheduling further cycles.
func (r *Repeater) cycle(ctx context.Context) bool {
	alert, err := r.getAlert(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.log.Warn("alert vanished, stopping")
			return true
		}
		r.setLastError(fmt.Sprintf("state store unavailable: %v", err))
		metrics.DispatchCycles.WithLabelValues("abandoned").Inc()
		return false // next tick proceeds independently
	}

	if alert.Status.Terminal() {
		r.sendSafe(ctx, alert)
		return true
	}

	contacts, err := r.contacts(ctx)
	if err != nil {
		r.setLastError(fmt.Sprintf("resolve contacts: %v", err))
		metrics.DispatchCycles.WithLabelValues("abandoned").Inc()
		return false
	}
	if len(contacts) == 0 {
		r.log.Info("contact list empty, stopping")
		return true
	}

	loc := r.resolveLocation(alert)
	cycleNo := int(r.cycles.Load()) + 1
	msg := r.fmtr.Format(alert, loc, cycleNo, time.Now())

	ok, fail, sendErr := r.fanOut(ctx, contacts, msg)

	now := time.Now()
	updated, err := r.persistCycle(ctx, loc, now)
	switch {
	case errors.Is(err, store.ErrConflict):
		// A concurrent mark-safe beat this cycle; stored state wins.
		if fresh, gerr := r.store.Get(ctx, r.alertID); gerr == nil && fresh.Status.Terminal() {
			r.sendSafe(ctx, fresh)
		}
		metrics.DispatchCycles.WithLabelValues("stopped").Inc()
		return true
	case errors.Is(err, store.ErrNotFound):
		return true
	case err != nil:
		r.setLastError(fmt.Sprintf("persist cycle: %v", err))
		metrics.DispatchCycles.WithLabelValues("abandoned").Inc()
		return false
	}

	r.cycles.Add(1)
	r.recordCycle(now, ok, fail, sendErr)
	metrics.DispatchCycles.WithLabelValues("ok").Inc()
	r.log.Info("dispatch cycle complete",
		zap.Int("cycle", cycleNo),
		zap.Int("sends_ok", ok),
		zap.Int("sends_failed", fail))

	if updated.Status.Terminal() {
		r.sendSafe(ctx, updated)
		return true
	}
	return false
}

// getAlert reads the alert with one immediate retry on store failure.
func (r *Repeater) getAlert(ctx context.Context) (*models.Alert, error) {
	alert, err := r.store.Get(ctx, r.alertID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		alert, err = r.store.Get(ctx, r.alertID)
	}
	return alert, err
}

// persistCycle atomically bumps the counter and stores the dispatched
// location; a plain store failure gets one immediate retry, then the
// cycle is abandoned.
func (r *Repeater) persistCycle(ctx context.Context, loc models.Location, now time.Time) (*models.Alert, error) {
	patch := store.AlertPatch{
		IncrementCount: true,
		LastAlertSent:  &now,
		Location:       &loc,
	}
	updated, err := r.store.Update(ctx, r.alertID, patch)
	if err != nil && !errors.Is(err, store.ErrConflict) && !errors.Is(err, store.ErrNotFound) {
		updated, err = r.store.Update(ctx, r.alertID, patch)
	}
	return updated, err
}

// resolveLocation prefers a fresh tracker sample and falls back to the
// alert's last stored location, never to zero coordinates.
func (r *Repeater) resolveLocation(alert *models.Alert) models.Location {
	if r.location != nil {
		if loc, ok := r.location.Latest(); ok {
			return loc
		}
	}
	return alert.Location
}

// fanOut dispatches to every contact over every channel with a usable
// address, concurrently, and waits for all sends to settle. Individual
// failures are independent: they never abort the cycle or other sends.
func (r *Repeater) fanOut(ctx context.Context, contacts []models.TrustedContact, msg Message) (ok, fail int, lastErr string) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, contact := range contacts {
		usable := false
		for _, sender := range r.senders {
			addr := addressFor(contact, sender.Channel())
			if addr == "" {
				continue
			}
			usable = true
			wg.Add(1)
			go func(s Sender, addr, name string) {
				defer wg.Done()
				sctx, cancel := context.WithTimeout(ctx, r.sendTimeout)
				defer cancel()

				err := s.Send(sctx, addr, msg)
				code := Classify(err)
				metrics.Sends.WithLabelValues(string(s.Channel()), string(code)).Inc()

				mu.Lock()
				if code == CodeOK {
					ok++
				} else {
					fail++
					lastErr = fmt.Sprintf("%s to %s: %s", s.Channel(), name, code)
				}
				mu.Unlock()

				if err != nil {
					r.log.Warn("send failed",
						zap.String("channel", string(s.Channel())),
						zap.String("contact", name),
						zap.String("code", string(code)),
						zap.Error(err))
				}
			}(sender, addr, contact.Name)
		}
		if !usable {
			r.log.Debug("contact skipped, no usable address", zap.String("contact", contact.Name))
		}
	}
	wg.Wait()
	return ok, fail, lastErr
}

// sendSafe issues the one-time "I am safe now" courtesy dispatch. Only
// fires when at least one alert cycle went out; failures are swallowed.
func (r *Repeater) sendSafe(ctx context.Context, alert *models.Alert) {
	if r.cycles.Load() == 0 {
		return
	}
	r.mu.Lock()
	if r.safeSent {
		r.mu.Unlock()
		return
	}
	r.safeSent = true
	r.mu.Unlock()

	contacts, err := r.contacts(ctx)
	if err != nil || len(contacts) == 0 {
		return
	}
	msg := r.fmtr.FormatSafe(alert, alert.Location, time.Now())
	okN, failN, _ := r.fanOut(ctx, contacts, msg)
	r.log.Info("safe notice sent", zap.Int("ok", okN), zap.Int("failed", failN))
}

func (r *Repeater) countdownLoop(ctx context.Context) {
	secs := int32(r.interval / time.Second)
	if secs < 1 {
		secs = 1
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopc:
			return
		case <-r.cycleDone:
			r.countdown.Store(secs)
		case <-ticker.C:
			if v := r.countdown.Add(-1); v <= 0 {
				r.countdown.Store(secs)
			}
		}
	}
}

func (r *Repeater) recordCycle(sentAt time.Time, ok, fail int, sendErr string) {
	r.mu.Lock()
	r.lastSentAt = sentAt
	r.lastOK = ok
	r.lastFail = fail
	r.lastErr = sendErr
	r.mu.Unlock()

	// Reset the countdown display; never block on it.
	select {
	case r.cycleDone <- struct{}{}:
	default:
	}
}

func (r *Repeater) setLastError(msg string) {
	r.mu.Lock()
	r.lastErr = msg
	r.mu.Unlock()
	r.log.Warn(msg)
}

// NotifyStatusChange nudges the repeater to re-observe the alert now
// instead of waiting for the next tick. Marking safe therefore costs at
// most one more cycle.
func (r *Repeater) NotifyStatusChange() {
	select {
	case r.nudge <- struct{}{}:
	default:
	}
}

// Stop requests shutdown. The pending timer is cancelled; an in-flight
// cycle finishes naturally. Wait on Done for full termination.
func (r *Repeater) Stop() {
	r.stopOnce.Do(func() { close(r.stopc) })
}

// Done closes once the run loop and any in-flight cycle have finished.
func (r *Repeater) Done() <-chan struct{} { return r.done }

func (r *Repeater) State() State { return State(r.state.Load()) }

// Cycles reports completed dispatch cycles.
func (r *Repeater) Cycles() int { return int(r.cycles.Load()) }

// Status snapshots the repeater for observers.
func (r *Repeater) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		AlertID:     r.alertID,
		State:       r.State().String(),
		CyclesSent:  int(r.cycles.Load()),
		LastSuccess: r.lastOK,
		LastFailure: r.lastFail,
		LastError:   r.lastErr,
		NextIn:      int(r.countdown.Load()),
	}
	if !r.lastSentAt.IsZero() {
		t := r.lastSentAt
		st.LastSentAt = &t
	}
	return st
}
