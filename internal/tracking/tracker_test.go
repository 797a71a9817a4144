package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Alertify/internal/models"
)

type memAppender struct {
	mu      sync.Mutex
	updates []models.LocationUpdate
}

func (a *memAppender) Append(_ context.Context, u *models.LocationUpdate) error {
	a.mu.Lock()
	a.updates = append(a.updates, *u)
	a.mu.Unlock()
	return nil
}

func (a *memAppender) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.updates)
}

type memBroadcaster struct {
	mu     sync.Mutex
	groups []string
}

func (b *memBroadcaster) SendToGroupJSON(group string, _ interface{}) {
	b.mu.Lock()
	b.groups = append(b.groups, group)
	b.mu.Unlock()
}

func (b *memBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.groups)
}

func sample(lat, lng float64, ts time.Time) models.Location {
	return models.Location{Latitude: lat, Longitude: lng, Timestamp: ts}
}

func TestChannelSourceConsumeOnce(t *testing.T) {
	src := NewChannelSource()

	_, err := src.Sample(context.Background())
	require.ErrorIs(t, err, ErrNoSample)

	src.Push(sample(1, 2, time.Now()))
	src.Push(sample(3, 4, time.Now())) // replaces the unconsumed one

	got, err := src.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.Latitude, 1e-9)

	_, err = src.Sample(context.Background())
	assert.ErrorIs(t, err, ErrNoSample, "each push is consumed at most once")
}

func TestTrackerPublishesAcceptedSamples(t *testing.T) {
	src := NewChannelSource()
	app := &memAppender{}
	hub := &memBroadcaster{}
	tr := New(Config{
		AlertID: "al-1",
		Source:  src,
		Store:   app,
		Hub:     hub,
		Cadence: 10 * time.Millisecond,
	})
	tr.Start(context.Background())
	defer tr.Stop()

	_, ok := tr.Latest()
	assert.False(t, ok, "no sample yet means not fresh")

	src.Push(sample(40.7128, -74.006, time.Now()))
	require.Eventually(t, func() bool {
		_, ok := tr.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)

	loc, ok := tr.Latest()
	require.True(t, ok)
	assert.InDelta(t, 40.7128, loc.Latitude, 1e-9)
	assert.GreaterOrEqual(t, app.count(), 1)
	require.GreaterOrEqual(t, hub.count(), 1)
	hub.mu.Lock()
	assert.Equal(t, "alert:al-1", hub.groups[0])
	hub.mu.Unlock()
}

func TestTrackerGoesStaleWhenSourceDriesUp(t *testing.T) {
	src := NewChannelSource()
	tr := New(Config{AlertID: "al-2", Source: src, Cadence: 10 * time.Millisecond})
	tr.Start(context.Background())
	defer tr.Stop()

	src.Push(sample(40.7, -74.0, time.Now()))
	require.Eventually(t, func() bool {
		_, ok := tr.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)

	// The next empty Sample flips freshness off; the repeater then falls
	// back to the alert's stored location.
	require.Eventually(t, func() bool {
		_, ok := tr.Latest()
		return !ok
	}, time.Second, 5*time.Millisecond)

	loc, _ := tr.Latest()
	assert.InDelta(t, 40.7, loc.Latitude, 1e-9, "the last accepted sample stays readable")
}

func TestTrackerDropsBackdatedSamples(t *testing.T) {
	src := NewChannelSource()
	app := &memAppender{}
	tr := New(Config{AlertID: "al-3", Source: src, Store: app, Cadence: 10 * time.Millisecond})
	tr.Start(context.Background())
	defer tr.Stop()

	now := time.Now()
	src.Push(sample(10, 10, now))
	require.Eventually(t, func() bool {
		loc, ok := tr.Latest()
		return ok && loc.Latitude == 10
	}, time.Second, 5*time.Millisecond)

	src.Push(sample(20, 20, now.Add(-time.Minute)))
	// Give the loop a few ticks to (not) accept the stale sample. Freshness
	// drops because the push was consumed, but the position must not move
	// backwards.
	require.Eventually(t, func() bool {
		_, ok := tr.Latest()
		return !ok
	}, time.Second, 5*time.Millisecond)

	loc, _ := tr.Latest()
	assert.InDelta(t, 10.0, loc.Latitude, 1e-9, "timestamps are non-decreasing")
}

func TestTrackerStopIsFinal(t *testing.T) {
	src := NewChannelSource()
	app := &memAppender{}
	tr := New(Config{AlertID: "al-4", Source: src, Store: app, Cadence: 5 * time.Millisecond})
	tr.Start(context.Background())

	src.Push(sample(1, 1, time.Now()))
	require.Eventually(t, func() bool { return app.count() == 1 }, time.Second, 5*time.Millisecond)

	tr.Stop()
	n := app.count()
	src.Push(sample(2, 2, time.Now()))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, app.count(), "nothing is published after Stop returns")

	tr.Stop() // idempotent
}
