package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	Endpoint   string // defaults to the public Twilio API
}

// TwilioClient is the injectable transport, mirroring how the mail sender
// swaps SMTP for a fake in tests.
type TwilioClient interface {
	Send(ctx context.Context, from, to, body string) error
}

type TwilioSMS struct {
	cfg TwilioConfig
	cli TwilioClient
}

func NewTwilioSMS(cfg TwilioConfig, cli TwilioClient) *TwilioSMS {
	if cli == nil {
		cli = &twilioHTTPClient{cfg: cfg, http: http.DefaultClient}
	}
	return &TwilioSMS{cfg: cfg, cli: cli}
}

// Send delivers one SMS to the given phone number.
func (t *TwilioSMS) Send(ctx context.Context, phone, body string) error {
	if !ValidPhone(phone) {
		return ErrInvalidAddress
	}
	if t.cli == nil {
		return fmt.Errorf("twilio client not configured")
	}
	return t.cli.Send(ctx, t.cfg.From, phone, body)
}

type twilioHTTPClient struct {
	cfg  TwilioConfig
	http *http.Client
}

func (c *twilioHTTPClient) Send(ctx context.Context, from, to, body string) error {
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.twilio.com"
	}
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", endpoint, c.cfg.AccountSID)

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return ErrInvalidAddress
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio: unexpected status %d", resp.StatusCode)
	}
	return nil
}
