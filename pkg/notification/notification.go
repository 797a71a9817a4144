package notification

import (
	"errors"
	"strings"
)

// ErrInvalidAddress marks a destination that can never succeed; callers
// skip it instead of retrying.
var ErrInvalidAddress = errors.New("invalid destination address")

// ValidEmail is a deliberately loose check: providers are the authority,
// this only catches obviously broken addresses before spending a send.
func ValidEmail(addr string) bool {
	addr = strings.TrimSpace(addr)
	at := strings.Index(addr, "@")
	return at > 0 && at < len(addr)-1 && !strings.ContainsAny(addr, " \t")
}

// ValidPhone accepts E.164-ish numbers: optional +, 7 to 15 digits.
func ValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+")
	if len(phone) < 7 || len(phone) > 15 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
