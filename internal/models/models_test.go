package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertStatusTerminal(t *testing.T) {
	assert.False(t, AlertStatusActive.Terminal())
	assert.True(t, AlertStatusResolved.Terminal())
	assert.True(t, AlertStatusFalseAlarm.Terminal())
}

func TestIDListRoundTrip(t *testing.T) {
	v, err := IDList{3, 1, 2}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[3,1,2]", v)

	var decoded IDList
	require.NoError(t, decoded.Scan("[3,1,2]"))
	assert.Equal(t, IDList{3, 1, 2}, decoded)

	require.NoError(t, decoded.Scan([]byte("[7]")))
	assert.Equal(t, IDList{7}, decoded)

	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)

	assert.Error(t, decoded.Scan(42))

	v, err = IDList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v, "nil serializes as an empty list, not null")
}

func TestJourneyOverdue(t *testing.T) {
	now := time.Now()
	started := now.Add(-30 * time.Minute)
	grace := 10 * time.Minute

	j := &Journey{Status: JourneyStatusActive, StartedAt: &started, EstimatedDuration: 15}
	assert.True(t, j.Overdue(now, grace), "15m estimate + 10m grace < 30m elapsed")

	j.EstimatedDuration = 25
	assert.False(t, j.Overdue(now, grace), "inside the grace window")

	j.EstimatedDuration = 0
	assert.False(t, j.Overdue(now, grace), "no estimate, no watchdog")

	j.EstimatedDuration = 15
	j.Status = JourneyStatusCompleted
	assert.False(t, j.Overdue(now, grace), "only active journeys can be overdue")

	j.Status = JourneyStatusActive
	j.StartedAt = nil
	assert.False(t, j.Overdue(now, grace))
}

func TestRelationshipValid(t *testing.T) {
	for _, r := range []Relationship{RelationshipFamily, RelationshipFriend, RelationshipPartner, RelationshipColleague, RelationshipOther} {
		assert.True(t, r.Valid())
	}
	assert.False(t, Relationship("bff").Valid())
	assert.False(t, Relationship("").Valid())
}

func TestLocationUpdateRoundTrip(t *testing.T) {
	acc := 12.5
	loc := Location{Latitude: 40.7, Longitude: -74.0, Accuracy: &acc, Timestamp: time.Now()}
	row := FromLocation("al-1", loc)
	assert.Equal(t, "al-1", row.AlertID)
	assert.Equal(t, loc, row.Location())
}
