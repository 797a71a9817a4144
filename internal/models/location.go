package models

import "time"

// LocationUpdate is an immutable sample appended while an alert is being
// tracked. Listed timestamp-descending for display, never mutated.
type LocationUpdate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlertID   string    `gorm:"size:36;not null;index" json:"alert_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// Location converts the row back to a sample.
func (u *LocationUpdate) Location() Location {
	return Location{
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
		Accuracy:  u.Accuracy,
		Speed:     u.Speed,
		Heading:   u.Heading,
		Timestamp: u.Timestamp,
	}
}

// FromLocation builds an update row from a tracker sample.
func FromLocation(alertID string, loc Location) *LocationUpdate {
	return &LocationUpdate{
		AlertID:   alertID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Accuracy:  loc.Accuracy,
		Speed:     loc.Speed,
		Heading:   loc.Heading,
		Timestamp: loc.Timestamp,
	}
}
