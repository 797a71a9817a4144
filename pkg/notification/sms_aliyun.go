package notification

import (
	"context"
	"fmt"
)

type AliyunSMSConfig struct {
	AccessKeyId     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
	Endpoint        string // defaults to cn-hangzhou
}

// AliyunSMSClient adapts the real SDK; injected so tests can fake it.
type AliyunSMSClient interface {
	Send(ctx context.Context, phone, sign, template string, params map[string]string) error
}

type AliyunSMS struct {
	cfg AliyunSMSConfig
	cli AliyunSMSClient
}

func NewAliyunSMS(cfg AliyunSMSConfig, cli AliyunSMSClient) *AliyunSMS {
	return &AliyunSMS{cfg: cfg, cli: cli}
}

// Send delivers the alert text through the configured SMS template. The
// template is expected to expose a single {message} parameter.
func (a *AliyunSMS) Send(ctx context.Context, phone, body string) error {
	if !ValidPhone(phone) {
		return ErrInvalidAddress
	}
	if a.cli == nil {
		return fmt.Errorf("AliyunSMSClient not configured")
	}
	params := map[string]string{"message": body}
	return a.cli.Send(ctx, phone, a.cfg.SignName, a.cfg.TemplateCode, params)
}
