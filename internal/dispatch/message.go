package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"Alertify/internal/models"
)

// Coordinates carries latitude/longitude already rendered to 6 decimal
// places, the precision embedded in every outgoing message and map link.
type Coordinates struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Message is the wire shape of one dispatch. It is what channel senders
// receive and what test fixtures assert against.
type Message struct {
	Headline    string      `json:"headline"`
	Coordinates Coordinates `json:"coordinates"`
	MapURL      string      `json:"mapUrl"`
	TrackingURL string      `json:"trackingUrl"`
	CycleNumber int         `json:"cycleNumber"`
	SentAt      string      `json:"sentAt"`
	Subject     string      `json:"-"`
	Body        string      `json:"-"`
}

// Formatter builds outgoing emergency messages. Pure: same inputs, same
// output, except for the embedded sent-at timestamp supplied by the caller.
// It never fails: malformed coordinates are rendered as-is and validated
// upstream.
type Formatter struct {
	// BaseURL is the public origin tracking links point at.
	BaseURL string
}

const headline = "🚨 ALERTIFY EMERGENCY ALERT 🚨"

// MapURL renders the fixed Google Maps link for a position.
func (f *Formatter) MapURL(loc models.Location) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		formatCoord(loc.Latitude), formatCoord(loc.Longitude))
}

// TrackingURL renders the public live-tracking link for an alert.
func (f *Formatter) TrackingURL(alertID string) string {
	return fmt.Sprintf("%s/track/%s", strings.TrimRight(f.BaseURL, "/"), alertID)
}

// Format builds the repeating emergency message for one dispatch cycle.
func (f *Formatter) Format(alert *models.Alert, loc models.Location, cycle int, now time.Time) Message {
	lat := formatCoord(loc.Latitude)
	lng := formatCoord(loc.Longitude)
	mapURL := f.MapURL(loc)
	trackURL := f.TrackingURL(alert.ID)
	sentAt := now.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(headline + "\n\n")
	b.WriteString("I AM IN DANGER. PLEASE HELP IMMEDIATELY.\n\n")
	fmt.Fprintf(&b, "📍 Live Location:\n%s, %s\n\n", lat, lng)
	fmt.Fprintf(&b, "🗺️ View on Google Maps:\n%s\n\n", mapURL)
	fmt.Fprintf(&b, "📡 Live Tracking Link:\n%s\n\n", trackURL)
	fmt.Fprintf(&b, "⏰ Alert sent: %s\n", sentAt)
	fmt.Fprintf(&b, "🔄 This is alert #%d\n\n", cycle)
	b.WriteString("This alert will repeat every 30 seconds until marked safe.")

	return Message{
		Headline:    headline,
		Coordinates: Coordinates{Lat: lat, Lng: lng},
		MapURL:      mapURL,
		TrackingURL: trackURL,
		CycleNumber: cycle,
		SentAt:      sentAt,
		Subject:     fmt.Sprintf("🚨 EMERGENCY: %s NEEDS IMMEDIATE HELP", alert.CreatedBy),
		Body:        b.String(),
	}
}

// FormatSafe builds the final courtesy message sent once after an alert is
// resolved. It is not counted as a dispatch cycle.
func (f *Formatter) FormatSafe(alert *models.Alert, loc models.Location, now time.Time) Message {
	lat := formatCoord(loc.Latitude)
	lng := formatCoord(loc.Longitude)
	mapURL := f.MapURL(loc)
	sentAt := now.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString("✅ ALERTIFY: I AM SAFE NOW\n\n")
	b.WriteString("The emergency alert has been resolved. Thank you for being there.\n\n")
	fmt.Fprintf(&b, "📍 Last known location:\n%s, %s\n%s\n\n", lat, lng, mapURL)
	fmt.Fprintf(&b, "⏰ Resolved at: %s", sentAt)

	return Message{
		Headline:    "✅ ALERTIFY: I AM SAFE NOW",
		Coordinates: Coordinates{Lat: lat, Lng: lng},
		MapURL:      mapURL,
		TrackingURL: f.TrackingURL(alert.ID),
		SentAt:      sentAt,
		Subject:     fmt.Sprintf("✅ %s is safe now", alert.CreatedBy),
		Body:        b.String(),
	}
}

// formatCoord renders a coordinate with exactly 6 decimal places,
// matching the precision used across messages, links and fixtures.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
