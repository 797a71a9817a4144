package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"Alertify/internal/models"
)

// ErrNoSample is returned by a Source that currently has nothing to report
// (no signal, permission denied, nothing pushed). It is an explicit
// "unavailable" signal, not a stall: the repeater falls back to the last
// stored alert location and the tracker keeps sampling.
var ErrNoSample = errors.New("no location sample available")

// Source produces device position samples. The device feed is
// implementation specific; the HTTP ingest endpoint bridges into
// ChannelSource below.
type Source interface {
	Sample(ctx context.Context) (models.Location, error)
}

// Appender persists accepted samples.
type Appender interface {
	Append(ctx context.Context, update *models.LocationUpdate) error
}

// Broadcaster pushes accepted samples to live viewers.
type Broadcaster interface {
	SendToGroupJSON(group string, v interface{})
}

// Tracker continuously samples a Source on its own cadence, decoupled from
// dispatch cycles. Accepted samples are persisted, broadcast, and exposed
// through Latest. After Stop returns, no further samples are published.
type Tracker struct {
	alertID string
	source  Source
	locs    Appender
	hub     Broadcaster
	cadence time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	latest models.Location
	fresh  bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopc     chan struct{}
	done      chan struct{}
}

type Config struct {
	AlertID string
	Source  Source
	Store   Appender    // optional
	Hub     Broadcaster // optional
	Cadence time.Duration
	Logger  *zap.Logger
}

func New(cfg Config) *Tracker {
	if cfg.Cadence <= 0 {
		cfg.Cadence = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Tracker{
		alertID: cfg.AlertID,
		source:  cfg.Source,
		locs:    cfg.Store,
		hub:     cfg.Hub,
		cadence: cfg.Cadence,
		log:     cfg.Logger.With(zap.String("alert_id", cfg.AlertID)),
		stopc:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the sampling loop. Subsequent calls are no-ops.
func (t *Tracker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		go t.run(ctx)
	})
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopc:
			return
		case <-ticker.C:
			t.sampleOnce(ctx)
		}
	}
}

func (t *Tracker) sampleOnce(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, t.cadence)
	defer cancel()

	loc, err := t.source.Sample(sctx)
	if err != nil {
		t.mu.Lock()
		t.fresh = false
		t.mu.Unlock()
		if !errors.Is(err, ErrNoSample) {
			t.log.Debug("location sample failed", zap.Error(err))
		}
		return
	}

	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}

	t.mu.Lock()
	// Timestamps must be non-decreasing; a stale sample is dropped.
	if t.fresh && loc.Timestamp.Before(t.latest.Timestamp) {
		t.mu.Unlock()
		return
	}
	t.latest = loc
	t.fresh = true
	t.mu.Unlock()

	if t.locs != nil {
		if err := t.locs.Append(ctx, models.FromLocation(t.alertID, loc)); err != nil {
			t.log.Warn("persist location update failed", zap.Error(err))
		}
	}
	if t.hub != nil {
		t.hub.SendToGroupJSON("alert:"+t.alertID, loc)
	}
}

// Latest returns the most recent accepted sample. The second return is
// false while the source is unavailable, telling the repeater to fall back
// to the alert's stored location.
func (t *Tracker) Latest() (models.Location, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest, t.fresh
}

// Stop halts sampling and blocks until the loop has exited, guaranteeing
// no publish happens afterwards.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopc) })
	<-t.done
}

// ChannelSource adapts pushed device samples (the HTTP ingest endpoint)
// into a Source. Each pushed sample is consumed at most once; with nothing
// pending, Sample reports ErrNoSample.
type ChannelSource struct {
	mu  sync.Mutex
	loc *models.Location
}

func NewChannelSource() *ChannelSource { return &ChannelSource{} }

// Push records the newest sample, replacing any unconsumed one.
func (s *ChannelSource) Push(loc models.Location) {
	s.mu.Lock()
	s.loc = &loc
	s.mu.Unlock()
}

func (s *ChannelSource) Sample(_ context.Context) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc == nil {
		return models.Location{}, ErrNoSample
	}
	loc := *s.loc
	s.loc = nil
	return loc, nil
}
