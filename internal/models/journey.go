package models

import "time"

type JourneyStatus string

const (
	JourneyStatusActive       JourneyStatus = "active"
	JourneyStatusCompleted    JourneyStatus = "completed"
	JourneyStatusCancelled    JourneyStatus = "cancelled"
	JourneyStatusSOSTriggered JourneyStatus = "sos_triggered"
)

// Journey is a tracked trip. An active journey is one path that produces
// an alert, either by explicit escalation or via the overdue watchdog.
type Journey struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	DestinationName string        `gorm:"size:255;not null" json:"destination_name"`
	DestinationLat  float64       `json:"destination_lat"`
	DestinationLng  float64       `json:"destination_lng"`
	StartLat        *float64      `json:"start_lat,omitempty"`
	StartLng        *float64      `json:"start_lng,omitempty"`
	CurrentLat      *float64      `json:"current_lat,omitempty"`
	CurrentLng      *float64      `json:"current_lng,omitempty"`
	Status          JourneyStatus `gorm:"size:16;not null;default:'active';index" json:"status"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`

	// EstimatedDuration is minutes to destination; 0 means unknown and
	// exempts the journey from the overdue watchdog.
	EstimatedDuration int `json:"estimated_duration"`

	CreatedBy string    `gorm:"size:128;not null;index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overdue reports whether the journey has run past its estimate plus grace.
func (j *Journey) Overdue(now time.Time, grace time.Duration) bool {
	if j.Status != JourneyStatusActive || j.StartedAt == nil || j.EstimatedDuration <= 0 {
		return false
	}
	deadline := j.StartedAt.Add(time.Duration(j.EstimatedDuration)*time.Minute + grace)
	return now.After(deadline)
}
