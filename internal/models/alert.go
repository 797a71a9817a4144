package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type AlertStatus string

const (
	AlertStatusActive     AlertStatus = "active"
	AlertStatusResolved   AlertStatus = "resolved"
	AlertStatusFalseAlarm AlertStatus = "false_alarm"
)

// Terminal reports whether the status is final. A terminal alert never
// dispatches again and its counters are frozen.
func (s AlertStatus) Terminal() bool {
	return s == AlertStatusResolved || s == AlertStatusFalseAlarm
}

type TriggerType string

const (
	TriggerManual        TriggerType = "manual"
	TriggerAutoMotion    TriggerType = "auto_motion"
	TriggerAutoDeviation TriggerType = "auto_deviation"
	TriggerAutoStop      TriggerType = "auto_stop"
)

// Location is one position sample. Accuracy is meters, speed m/s, heading
// degrees 0-360; all optional because not every device reports them.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IDList stores a denormalized list of contact ids as a JSON text column.
type IDList []uint

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		l = IDList{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *IDList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported IDList source %T", src)
}

// Alert is one emergency episode with its own dispatch cadence.
type Alert struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	TriggerType TriggerType `gorm:"size:16;not null" json:"trigger_type"`
	Status      AlertStatus `gorm:"size:16;not null;default:'active';index" json:"status"`

	Location     Location `gorm:"embedded" json:"location"`
	LocationName string   `gorm:"size:255" json:"location_name,omitempty"`

	CreatedBy        string `gorm:"size:128;not null;index" json:"created_by"`
	ContactsNotified IDList `gorm:"type:text" json:"contacts_notified"`

	// AlertCount increments exactly once per completed dispatch cycle and
	// never changes after the status leaves active.
	AlertCount    int        `json:"alert_count"`
	LastAlertSent *time.Time `json:"last_alert_sent,omitempty"`

	GoogleMapsURL string `gorm:"size:512" json:"google_maps_url,omitempty"`
	TrackingURL   string `gorm:"size:512" json:"tracking_url,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Signal names emitted through util.Sig().
const (
	SigAlertCreated   = "alert.created"
	SigAlertResolved  = "alert.resolved"
	SigJourneyStarted = "journey.started"
)
