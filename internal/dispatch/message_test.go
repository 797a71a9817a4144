package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Alertify/internal/models"
	"Alertify/pkg/notification"
)

func sampleAlert() *models.Alert {
	return &models.Alert{
		ID:        "3f1c2e10-9f5a-4d25-9f0e-6f2f4a7b8c9d",
		CreatedBy: "amira",
		Status:    models.AlertStatusActive,
	}
}

func sampleLocation() models.Location {
	return models.Location{Latitude: 40.7128, Longitude: -74.006, Timestamp: time.Now()}
}

func TestFormatCoordSixDecimals(t *testing.T) {
	assert.Equal(t, "40.712800", formatCoord(40.7128))
	assert.Equal(t, "-74.006000", formatCoord(-74.006))
	assert.Equal(t, "0.000001", formatCoord(0.0000005000001))
	assert.Equal(t, "-0.000000", formatCoord(-0.0000000001))
}

func TestFormatterURLs(t *testing.T) {
	f := &Formatter{BaseURL: "https://alertify.example.com/"}

	assert.Equal(t,
		"https://www.google.com/maps?q=40.712800,-74.006000",
		f.MapURL(sampleLocation()))
	assert.Equal(t,
		"https://alertify.example.com/track/abc",
		f.TrackingURL("abc"), "trailing slash on the base URL is trimmed")
}

func TestFormatMessage(t *testing.T) {
	f := &Formatter{BaseURL: "https://alertify.example.com"}
	now := time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	alert := sampleAlert()

	msg := f.Format(alert, sampleLocation(), 3, now)

	assert.Equal(t, "🚨 ALERTIFY EMERGENCY ALERT 🚨", msg.Headline)
	assert.Equal(t, Coordinates{Lat: "40.712800", Lng: "-74.006000"}, msg.Coordinates)
	assert.Equal(t, 3, msg.CycleNumber)
	assert.Equal(t, "2026-08-30T12:30:00Z", msg.SentAt)
	assert.Equal(t, "🚨 EMERGENCY: amira NEEDS IMMEDIATE HELP", msg.Subject)

	assert.Contains(t, msg.Body, "I AM IN DANGER. PLEASE HELP IMMEDIATELY.")
	assert.Contains(t, msg.Body, "40.712800, -74.006000")
	assert.Contains(t, msg.Body, "https://www.google.com/maps?q=40.712800,-74.006000")
	assert.Contains(t, msg.Body, "https://alertify.example.com/track/"+alert.ID)
	assert.Contains(t, msg.Body, "This is alert #3")
	assert.Contains(t, msg.Body, "repeat every 30 seconds until marked safe")
}

func TestFormatSafeMessage(t *testing.T) {
	f := &Formatter{BaseURL: "https://alertify.example.com"}
	msg := f.FormatSafe(sampleAlert(), sampleLocation(), time.Now())

	assert.Equal(t, "✅ ALERTIFY: I AM SAFE NOW", msg.Headline)
	assert.Zero(t, msg.CycleNumber, "the safe notice is not a dispatch cycle")
	assert.Contains(t, msg.Body, "I AM SAFE NOW")
	assert.Contains(t, msg.Body, "has been resolved")
	assert.Contains(t, msg.Subject, "amira is safe now")
}

func TestMessageWireShape(t *testing.T) {
	f := &Formatter{BaseURL: "https://alertify.example.com"}
	msg := f.Format(sampleAlert(), sampleLocation(), 1, time.Now())

	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	for _, key := range []string{"headline", "coordinates", "mapUrl", "trackingUrl", "cycleNumber", "sentAt"} {
		assert.Contains(t, decoded, key)
	}
	assert.NotContains(t, decoded, "Subject", "channel-internal fields stay off the wire")
	assert.NotContains(t, decoded, "Body")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CodeOK, Classify(nil))
	assert.Equal(t, CodeInvalidAddress, Classify(notification.ErrInvalidAddress))
	assert.Equal(t, CodeInvalidAddress, Classify(errors.Join(errors.New("wrapped"), notification.ErrInvalidAddress)))
	assert.Equal(t, CodeTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, CodeProviderError, Classify(errors.New("upstream 500")))
}
