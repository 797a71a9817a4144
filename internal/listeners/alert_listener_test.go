package listeners

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/pkg/notification"
	"Alertify/pkg/util"
)

type capturingMailClient struct {
	mu sync.Mutex
	to []string
}

func (c *capturingMailClient) SendMail(_ string, _ smtp.Auth, _ string, to []string, _ []byte) error {
	c.mu.Lock()
	c.to = append(c.to, to...)
	c.mu.Unlock()
	return nil
}

func (c *capturingMailClient) recipients() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.to...)
}

func TestJourneyStartedNotifiesOptedInContacts(t *testing.T) {
	util.Sig().Reset()
	t.Cleanup(util.Sig().Reset)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	stores := store.NewStores(db)

	ctx := context.Background()
	seed := []*models.TrustedContact{
		{Name: "Maya", Phone: "+15550000001", Email: "maya@example.com", NotifyOnJourney: true, CreatedBy: "amira"},
		{Name: "Leo", Phone: "+15550000002", Email: "leo@example.com", NotifyOnJourney: true, CreatedBy: "amira"},
		{Name: "NoMail", Phone: "+15550000003", NotifyOnJourney: true, CreatedBy: "amira"},
	}
	for _, c := range seed {
		require.NoError(t, stores.Contacts.Create(ctx, c))
	}
	optOut := seed[1]
	optOut.NotifyOnJourney = false
	require.NoError(t, stores.Contacts.Update(ctx, optOut))

	cli := &capturingMailClient{}
	mail := notification.NewMailNotificationWithClient(notification.MailConfig{
		Host: "smtp.example.com", Port: 587, From: "alerts@example.com",
	}, cli)
	Init(stores, mail, nil)

	started := time.Now()
	util.Sig().Emit(models.SigJourneyStarted, &models.Journey{
		ID:              "j-1",
		DestinationName: "Home",
		Status:          models.JourneyStatusActive,
		StartedAt:       &started,
		CreatedBy:       "amira",
	})

	require.Eventually(t, func() bool {
		return len(cli.recipients()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"maya@example.com"}, cli.recipients(),
		"only opted-in contacts with an email address are mailed")
}

func TestListenersIgnoreWrongPayloads(t *testing.T) {
	util.Sig().Reset()
	t.Cleanup(util.Sig().Reset)

	Init(nil, nil, nil)
	// Wrong sender types must be ignored, not panic.
	util.Sig().Emit(models.SigAlertCreated, "not-an-alert")
	util.Sig().Emit(models.SigAlertResolved, 42)
	util.Sig().Emit(models.SigJourneyStarted, nil)
}
