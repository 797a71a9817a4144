package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type MailConfig struct {
	Host     string
	Port     int64
	Username string
	Password string
	From     string
}

// MailClient abstracts the SMTP call so tests can swap in a fake.
type MailClient interface {
	SendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type smtpClient struct{}

func (smtpClient) SendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	return smtp.SendMail(addr, a, from, to, msg)
}

type MailNotification struct {
	cfg MailConfig
	cli MailClient
}

func NewMailNotification(cfg MailConfig) *MailNotification {
	return &MailNotification{cfg: cfg, cli: smtpClient{}}
}

// NewMailNotificationWithClient injects a custom client. Tests only.
func NewMailNotificationWithClient(cfg MailConfig, cli MailClient) *MailNotification {
	return &MailNotification{cfg: cfg, cli: cli}
}

// Send delivers a plain-text mail. The context is honored best-effort:
// net/smtp has no context support, so cancellation is checked up front.
func (m *MailNotification) Send(ctx context.Context, to, subject, body string) error {
	if !ValidEmail(to) {
		return ErrInvalidAddress
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return m.cli.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(b.String()))
}
