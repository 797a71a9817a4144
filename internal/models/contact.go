package models

import "time"

type Relationship string

const (
	RelationshipFamily    Relationship = "family"
	RelationshipFriend    Relationship = "friend"
	RelationshipPartner   Relationship = "partner"
	RelationshipColleague Relationship = "colleague"
	RelationshipOther     Relationship = "other"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipFamily, RelationshipFriend, RelationshipPartner,
		RelationshipColleague, RelationshipOther:
		return true
	}
	return false
}

// TrustedContact is a notification target. IsPrimary only affects listing
// order; every contact is notified during an alert.
type TrustedContact struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"size:128;not null" json:"name"`
	Phone           string       `gorm:"size:32;not null" json:"phone"`
	Email           string       `gorm:"size:255" json:"email,omitempty"`
	Relationship    Relationship `gorm:"size:16;not null;default:'friend'" json:"relationship"`
	IsPrimary       bool         `json:"is_primary"`
	NotifyOnJourney bool         `gorm:"default:true" json:"notify_on_journey"`
	AvatarColor     string       `gorm:"size:16" json:"avatar_color,omitempty"`
	CreatedBy       string       `gorm:"size:128;not null;index" json:"created_by"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
