package dispatch

import (
	"context"
	"errors"

	"Alertify/pkg/notification"
)

// Code is the delivery outcome for one contact/channel send.
type Code string

const (
	CodeOK             Code = "ok"
	CodeInvalidAddress Code = "invalid_address"
	CodeProviderError  Code = "provider_error"
	CodeTimeout        Code = "timeout"
)

// Classify maps a send error onto the delivery taxonomy. Invalid addresses
// are permanent (skip, never retry); timeouts and provider errors are
// cycle-local; the next scheduled cycle retries naturally with fresh
// content.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, notification.ErrInvalidAddress):
		return CodeInvalidAddress
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	default:
		return CodeProviderError
	}
}
