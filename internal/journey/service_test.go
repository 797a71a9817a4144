package journey

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"Alertify/internal/dispatch"
	"Alertify/internal/models"
	"Alertify/internal/store"
)

type countingSender struct {
	mu     sync.Mutex
	bodies []string
}

func (s *countingSender) Channel() dispatch.Channel { return dispatch.ChannelSMS }

func (s *countingSender) Send(_ context.Context, _ string, msg dispatch.Message) error {
	s.mu.Lock()
	s.bodies = append(s.bodies, msg.Body)
	s.mu.Unlock()
	return nil
}

func testService(t *testing.T) (*Service, *store.Stores, *dispatch.Dispatcher) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	stores := store.NewStores(db)
	d := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Stores:       stores,
		Senders:      []dispatch.Sender{&countingSender{}},
		Formatter:    &dispatch.Formatter{BaseURL: "https://alertify.example.com"},
		Interval:     time.Hour,
		SendTimeout:  time.Second,
		TrackCadence: 10 * time.Millisecond,
	})
	t.Cleanup(func() { d.StopAll(2 * time.Second) })
	return NewService(stores, d, nil), stores, d
}

func seedContact(t *testing.T, stores *store.Stores, owner string) {
	t.Helper()
	require.NoError(t, stores.Contacts.Create(context.Background(), &models.TrustedContact{
		Name: "Maya", Phone: "+15550000001", CreatedBy: owner,
	}))
}

func startJourney(t *testing.T, svc *Service, owner string, estimate int) *models.Journey {
	t.Helper()
	startLat, startLng := 51.50, -0.13
	j, err := svc.Start(context.Background(), StartCommand{
		Owner:             owner,
		DestinationName:   "Home",
		DestinationLat:    51.5074,
		DestinationLng:    -0.1278,
		StartLat:          &startLat,
		StartLng:          &startLng,
		EstimatedDuration: estimate,
	})
	require.NoError(t, err)
	return j
}

func TestJourneyLifecycle(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	j := startJourney(t, svc, "amira", 20)
	assert.Equal(t, models.JourneyStatusActive, j.Status)
	require.NotNil(t, j.StartedAt)

	active, err := svc.ListActive(ctx, "amira")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	done, err := svc.Complete(ctx, j.ID, "amira")
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusCompleted, done.Status)
	require.NotNil(t, done.EndedAt)

	_, err = svc.Complete(ctx, j.ID, "amira")
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = svc.Cancel(ctx, "missing", "amira")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJourneyOwnershipScoping(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	j := startJourney(t, svc, "amira", 20)

	_, err := svc.Complete(ctx, j.ID, "ben")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.UpdatePosition(ctx, j.ID, "ben", 1, 2)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJourneyEscalation(t *testing.T) {
	svc, stores, d := testService(t)
	seedContact(t, stores, "amira")
	ctx := context.Background()

	j := startJourney(t, svc, "amira", 20)
	require.NoError(t, svc.UpdatePosition(ctx, j.ID, "amira", 51.502, -0.125))

	alert, err := svc.Escalate(ctx, j.ID, "amira", models.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerManual, alert.TriggerType)
	assert.Equal(t, "En route to Home", alert.LocationName)
	assert.InDelta(t, 51.502, alert.Location.Latitude, 1e-9, "the alert carries the last reported position")

	got, err := stores.Journeys.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusSOSTriggered, got.Status)

	require.Eventually(t, func() bool {
		st, ok := d.Status(alert.ID)
		return ok && st.CyclesSent >= 1
	}, 2*time.Second, 10*time.Millisecond, "escalation starts dispatch")

	// A second escalation loses the guarded transition.
	_, err = svc.Escalate(ctx, j.ID, "amira", models.TriggerManual)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestJourneyEscalationFallsBackToStart(t *testing.T) {
	svc, stores, _ := testService(t)
	seedContact(t, stores, "amira")

	j := startJourney(t, svc, "amira", 20)
	alert, err := svc.Escalate(context.Background(), j.ID, "amira", models.TriggerManual)
	require.NoError(t, err)
	assert.InDelta(t, 51.50, alert.Location.Latitude, 1e-9,
		"without position reports the start point is used, never zero")
}

func TestWatchdogEscalatesOverdueJourneys(t *testing.T) {
	svc, stores, d := testService(t)
	seedContact(t, stores, "amira")
	ctx := context.Background()

	overdue := startJourney(t, svc, "amira", 10)    // deadline 15m < clock 16m
	onTime := startJourney(t, svc, "amira", 60)     // deadline 65m
	noEstimate := startJourney(t, svc, "amira", 0)  // exempt from the watchdog

	w := NewWatchdog(svc, stores, 5*time.Minute, nil)
	w.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	w.Run(ctx)

	got, err := stores.Journeys.Get(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusSOSTriggered, got.Status)

	for _, j := range []*models.Journey{onTime, noEstimate} {
		got, err := stores.Journeys.Get(ctx, j.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JourneyStatusActive, got.Status)
	}

	alerts, err := stores.Alerts.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.TriggerAutoStop, alerts[0].TriggerType)
	_, ok := d.Status(alerts[0].ID)
	assert.True(t, ok, "the escalated alert is dispatching")

	// A second sweep must not escalate anything twice.
	w.Run(ctx)
	alerts, err = stores.Alerts.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}
