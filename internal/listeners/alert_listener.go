package listeners

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/pkg/notification"
	"Alertify/pkg/util"
)

// Init connects domain signal handlers. Handlers run in the emitter's
// goroutine, so anything slow (mail) is pushed to a background goroutine.
func Init(stores *store.Stores, mail *notification.MailNotification, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	util.Sig().Connect(models.SigAlertCreated, func(sender any, _ ...any) {
		alert, ok := sender.(*models.Alert)
		if !ok {
			return
		}
		log.Info("alert created",
			zap.String("alert_id", alert.ID),
			zap.String("trigger", string(alert.TriggerType)),
			zap.Int("contacts", len(alert.ContactsNotified)))
	})

	util.Sig().Connect(models.SigAlertResolved, func(sender any, _ ...any) {
		alert, ok := sender.(*models.Alert)
		if !ok {
			return
		}
		log.Info("alert resolved",
			zap.String("alert_id", alert.ID),
			zap.String("status", string(alert.Status)),
			zap.Int("cycles", alert.AlertCount))
	})

	util.Sig().Connect(models.SigJourneyStarted, func(sender any, _ ...any) {
		journey, ok := sender.(*models.Journey)
		if !ok {
			return
		}
		log.Info("journey started",
			zap.String("journey_id", journey.ID),
			zap.String("destination", journey.DestinationName))
		if mail == nil {
			return
		}
		go notifyJourneyContacts(stores, mail, log, journey)
	})
}

// notifyJourneyContacts mails a heads-up to contacts who opted into
// journey notifications. Best effort; failures are logged and dropped.
func notifyJourneyContacts(stores *store.Stores, mail *notification.MailNotification, log *zap.Logger, j *models.Journey) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	contacts, err := stores.Contacts.ListForJourney(ctx, j.CreatedBy)
	if err != nil {
		log.Error("journey notify: list contacts", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s started a tracked journey", j.CreatedBy)
	body := fmt.Sprintf(
		"%s is on the way to %s and asked us to keep you posted.\n\n"+
			"You will be notified immediately if anything goes wrong.",
		j.CreatedBy, j.DestinationName)

	for _, contact := range contacts {
		if contact.Email == "" {
			continue
		}
		if err := mail.Send(ctx, contact.Email, subject, body); err != nil {
			log.Warn("journey notify: send mail",
				zap.String("journey_id", j.ID),
				zap.Uint("contact_id", contact.ID),
				zap.Error(err))
		}
	}
}
