package dispatch

import (
	"context"

	"Alertify/internal/models"
	"Alertify/pkg/notification"
)

// Channel is a delivery mechanism for an alert message.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Sender delivers one formatted message to one destination address.
// Implementations are stateless from the repeater's perspective and are
// invoked concurrently within a cycle.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, address string, msg Message) error
}

// addressFor picks the contact's destination for a channel; empty means
// the contact is skipped on that channel.
func addressFor(contact models.TrustedContact, ch Channel) string {
	switch ch {
	case ChannelSMS:
		return contact.Phone
	case ChannelEmail:
		return contact.Email
	}
	return ""
}

// SMSProvider is what the SMS senders in pkg/notification expose.
type SMSProvider interface {
	Send(ctx context.Context, phone, body string) error
}

// SMSSender adapts an SMS provider to the Sender contract.
type SMSSender struct {
	Provider SMSProvider
}

func (s *SMSSender) Channel() Channel { return ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, address string, msg Message) error {
	return s.Provider.Send(ctx, address, msg.Body)
}

// EmailSender adapts the mail notifier to the Sender contract.
type EmailSender struct {
	Mail *notification.MailNotification
}

func (s *EmailSender) Channel() Channel { return ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, address string, msg Message) error {
	return s.Mail.Send(ctx, address, msg.Subject, msg.Body)
}
