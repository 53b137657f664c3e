package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pacePtr(v int) *int {
	return &v
}

func TestNewProfile_MinimalFields(t *testing.T) {
	p, err := NewProfile(NewProfileParams{
		ID:        "runner-1",
		FirstName: "Asel",
	})

	assert.NoError(t, err)
	assert.Equal(t, "runner-1", p.ID)
	assert.False(t, p.HasPace())
	assert.False(t, p.HasDistance())
	assert.False(t, p.HasLocation())
	assert.False(t, p.HasRunningTimes())
	assert.False(t, p.IsOnline)
}

func TestNewProfile_Validation(t *testing.T) {
	_, err := NewProfile(NewProfileParams{FirstName: "Asel"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = NewProfile(NewProfileParams{ID: "runner-1"})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewProfile(NewProfileParams{
		ID:                   "runner-1",
		FirstName:            "Asel",
		PreferredPaceSeconds: pacePtr(-10),
	})
	assert.ErrorIs(t, err, ErrInvalidPaceValue)

	_, err = NewProfile(NewProfileParams{
		ID:                "runner-1",
		FirstName:         "Asel",
		PreferredDistance: Distance("100m"),
	})
	assert.ErrorIs(t, err, ErrUnknownDistance)

	_, err = NewProfile(NewProfileParams{
		ID:                    "runner-1",
		FirstName:             "Asel",
		PreferredRunningTimes: []RunningTime{RunningTime("dawn")},
	})
	assert.ErrorIs(t, err, ErrUnknownRunningTime)
}

func TestDistance_IsShort(t *testing.T) {
	assert.True(t, Distance5K.IsShort())
	assert.True(t, Distance10K.IsShort())
	assert.False(t, DistanceHalfMarathon.IsShort())
	assert.False(t, DistanceMarathon.IsShort())
	assert.False(t, DistanceUltra.IsShort())
}

func TestProfile_SharedRunningTimes(t *testing.T) {
	a := &Profile{PreferredRunningTimes: []RunningTime{TimeMorning, TimeEvening, TimeWeekend}}
	b := &Profile{PreferredRunningTimes: []RunningTime{TimeWeekend, TimeMorning}}

	// Order follows a's preferences.
	assert.Equal(t, []RunningTime{TimeMorning, TimeWeekend}, a.SharedRunningTimes(b))
	assert.Equal(t, []RunningTime{TimeWeekend, TimeMorning}, b.SharedRunningTimes(a))

	c := &Profile{PreferredRunningTimes: []RunningTime{TimeNight}}
	assert.Empty(t, a.SharedRunningTimes(c))
}

func TestProfile_FullName(t *testing.T) {
	p := &Profile{FirstName: "Asel", LastName: "Nur"}
	assert.Equal(t, "Asel Nur", p.FullName())

	p.LastName = ""
	assert.Equal(t, "Asel", p.FullName())
}

func TestProfile_MarkOnlineOffline(t *testing.T) {
	p := &Profile{ID: "runner-1"}

	p.MarkOnline()
	assert.True(t, p.IsOnline)
	assert.False(t, p.LastSeenAt.IsZero())

	p.MarkOffline()
	assert.False(t, p.IsOnline)
}

