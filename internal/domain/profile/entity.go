// Package profile contains the runner profile domain model.
// This is core business logic - no external dependencies here.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Distance represents a runner's preferred race distance.
type Distance string

const (
	// Distance5K - short distance, 5 kilometers.
	Distance5K Distance = "5k"
	// Distance10K - medium distance, 10 kilometers.
	Distance10K Distance = "10k"
	// DistanceHalfMarathon - 21.1 kilometers.
	DistanceHalfMarathon Distance = "half-marathon"
	// DistanceMarathon - 42.2 kilometers.
	DistanceMarathon Distance = "marathon"
	// DistanceUltra - anything beyond a marathon.
	DistanceUltra Distance = "ultra"
)

// IsValid checks that the distance is one of the known values.
func (d Distance) IsValid() bool {
	switch d {
	case Distance5K, Distance10K, DistanceHalfMarathon, DistanceMarathon, DistanceUltra:
		return true
	default:
		return false
	}
}

// IsShort reports whether the distance is in the 5k/10k range. Runners in
// this range train together comfortably even when their target race differs.
func (d Distance) IsShort() bool {
	return d == Distance5K || d == Distance10K
}

// String returns the string representation.
func (d Distance) String() string {
	return string(d)
}

// RunningTime represents a preferred time of day (or week) for runs.
type RunningTime string

const (
	// TimeMorning - early runs, before work.
	TimeMorning RunningTime = "morning"
	// TimeAfternoon - midday runs.
	TimeAfternoon RunningTime = "afternoon"
	// TimeEvening - after-work runs.
	TimeEvening RunningTime = "evening"
	// TimeNight - late runs.
	TimeNight RunningTime = "night"
	// TimeWeekend - long weekend runs, any hour.
	TimeWeekend RunningTime = "weekend"
)

// IsValid checks that the running time is one of the known values.
func (t RunningTime) IsValid() bool {
	switch t {
	case TimeMorning, TimeAfternoon, TimeEvening, TimeNight, TimeWeekend:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t RunningTime) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile is the central entity of the system, representing a runner
// looking for training partners.
type Profile struct {
	// ID - unique identifier (UUID string, mirrors the auth user id).
	ID string

	// FirstName - runner's first name.
	FirstName string

	// LastName - runner's last name.
	LastName string

	// Bio - free-form self description.
	Bio string

	// PreferredPaceSeconds - typical pace in seconds per kilometer.
	// Nil when the runner has not filled this in yet.
	PreferredPaceSeconds *int

	// PreferredDistance - target race distance. Empty when unset.
	PreferredDistance Distance

	// Location - free-form location string, e.g. "Mission District, San Francisco".
	Location string

	// PreferredRunningTimes - when the runner likes to train.
	PreferredRunningTimes []RunningTime

	// IsOnline - whether the runner currently has an active session.
	IsOnline bool

	// LastSeenAt - time of last activity.
	LastSeenAt time.Time

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last update time.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - profile id is required.
	ErrMissingID = errors.New("profile id is required")

	// ErrInvalidName - invalid first or last name.
	ErrInvalidName = errors.New("invalid name: must be 1-100 chars")

	// ErrInvalidPaceValue - pace must be positive.
	ErrInvalidPaceValue = errors.New("invalid pace: must be positive seconds per km")

	// ErrUnknownDistance - unknown preferred distance.
	ErrUnknownDistance = errors.New("unknown preferred distance")

	// ErrUnknownRunningTime - unknown preferred running time.
	ErrUnknownRunningTime = errors.New("unknown preferred running time")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewProfileParams contains the parameters for creating a new profile.
type NewProfileParams struct {
	ID                    string
	FirstName             string
	LastName              string
	Bio                   string
	PreferredPaceSeconds  *int
	PreferredDistance     Distance
	Location              string
	PreferredRunningTimes []RunningTime
}

// NewProfile creates a new runner profile with validation of all fields.
// Matching fields are optional: a profile with none of them set is valid,
// it just scores zero against everyone.
func NewProfile(params NewProfileParams) (*Profile, error) {
	if params.ID == "" {
		return nil, ErrMissingID
	}

	firstName := strings.TrimSpace(params.FirstName)
	if len(firstName) == 0 || len(firstName) > 100 {
		return nil, ErrInvalidName
	}

	lastName := strings.TrimSpace(params.LastName)
	if len(lastName) > 100 {
		return nil, ErrInvalidName
	}

	if params.PreferredPaceSeconds != nil && *params.PreferredPaceSeconds <= 0 {
		return nil, ErrInvalidPaceValue
	}

	if params.PreferredDistance != "" && !params.PreferredDistance.IsValid() {
		return nil, ErrUnknownDistance
	}

	for _, rt := range params.PreferredRunningTimes {
		if !rt.IsValid() {
			return nil, ErrUnknownRunningTime
		}
	}

	now := time.Now().UTC()

	return &Profile{
		ID:                    params.ID,
		FirstName:             firstName,
		LastName:              lastName,
		Bio:                   strings.TrimSpace(params.Bio),
		PreferredPaceSeconds:  params.PreferredPaceSeconds,
		PreferredDistance:     params.PreferredDistance,
		Location:              strings.TrimSpace(params.Location),
		PreferredRunningTimes: params.PreferredRunningTimes,
		IsOnline:              false,
		LastSeenAt:            now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// FullName returns the runner's display name.
func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// HasPace reports whether the runner has filled in a pace.
func (p *Profile) HasPace() bool {
	return p.PreferredPaceSeconds != nil && *p.PreferredPaceSeconds > 0
}

// HasDistance reports whether the runner has chosen a preferred distance.
func (p *Profile) HasDistance() bool {
	return p.PreferredDistance != ""
}

// HasLocation reports whether the runner has filled in a location.
func (p *Profile) HasLocation() bool {
	return p.Location != ""
}

// HasRunningTimes reports whether the runner has chosen preferred times.
func (p *Profile) HasRunningTimes() bool {
	return len(p.PreferredRunningTimes) > 0
}

// PrefersTime reports whether the runner prefers the given time slot.
func (p *Profile) PrefersTime(t RunningTime) bool {
	for _, rt := range p.PreferredRunningTimes {
		if rt == t {
			return true
		}
	}
	return false
}

// SharedRunningTimes returns the running times this runner shares with
// another, in this runner's preference order.
func (p *Profile) SharedRunningTimes(other *Profile) []RunningTime {
	shared := make([]RunningTime, 0)
	for _, rt := range p.PreferredRunningTimes {
		if other.PrefersTime(rt) {
			shared = append(shared, rt)
		}
	}
	return shared
}

// MarkOnline flips the runner to online and refreshes the activity time.
func (p *Profile) MarkOnline() {
	p.IsOnline = true
	p.LastSeenAt = time.Now().UTC()
	p.UpdatedAt = p.LastSeenAt
}

// MarkOffline flips the runner to offline.
func (p *Profile) MarkOffline() {
	p.IsOnline = false
	p.UpdatedAt = time.Now().UTC()
}

// String returns a string representation of the profile for logging.
func (p *Profile) String() string {
	pace := "unset"
	if p.HasPace() {
		pace = fmt.Sprintf("%ds/km", *p.PreferredPaceSeconds)
	}
	return fmt.Sprintf(
		"Profile{ID: %s, Name: %s, Pace: %s, Distance: %s, Online: %t}",
		p.ID, p.FullName(), pace, p.PreferredDistance, p.IsOnline,
	)
}
