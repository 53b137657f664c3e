// Package match contains the match domain model and the compatibility
// scoring engine. This is core business logic - no external dependencies here.
package match

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status defines the lifecycle state of a match.
type Status string

const (
	// StatusActive - the match is live, chat is open.
	StatusActive Status = "active"
	// StatusUnmatched - one side ended the match.
	StatusUnmatched Status = "unmatched"
	// StatusBlocked - one side blocked the other.
	StatusBlocked Status = "blocked"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusUnmatched, StatusBlocked:
		return true
	default:
		return false
	}
}

// IsActive reports whether the match is live.
func (s Status) IsActive() bool {
	return s == StatusActive
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MATCH
// ══════════════════════════════════════════════════════════════════════════════

// Match represents a confirmed pairing of two runners.
//
// The pair is stored normalized: UserLow is the lexicographically smaller
// runner ID. Together with a partial unique index on (user_low, user_high)
// WHERE status = 'active', this guarantees at most one active match per pair
// no matter in which order the two creation requests arrive.
type Match struct {
	// ID - unique identifier (UUID).
	ID string

	// UserLow - the smaller of the two runner IDs.
	UserLow string

	// UserHigh - the larger of the two runner IDs.
	UserHigh string

	// Status - lifecycle state.
	Status Status

	// MatchedAt - when the match was created.
	MatchedAt time.Time

	// UpdatedAt - last status change.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - match id is required.
	ErrMissingID = errors.New("match id is required")

	// ErrMissingUser - both runner IDs are required.
	ErrMissingUser = errors.New("both runner ids are required")

	// ErrSamePair - a runner cannot match with themselves.
	ErrSamePair = errors.New("cannot match a runner with themselves")

	// ErrAlreadyFinal - the match status can no longer change.
	ErrAlreadyFinal = errors.New("match already finalized")
)

// DuplicateError is returned when an active match for the pair already
// exists. It carries the existing match so the API can return it in the
// conflict response.
type DuplicateError struct {
	Existing *Match
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	if e.Existing == nil {
		return "match already exists"
	}
	return fmt.Sprintf("match already exists: %s", e.Existing.ID)
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NormalizePair orders two runner IDs so the smaller one comes first.
func NormalizePair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// NewMatch creates a new active match between two runners. The pair is
// normalized regardless of argument order.
func NewMatch(id, user1ID, user2ID string) (*Match, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	if user1ID == "" || user2ID == "" {
		return nil, ErrMissingUser
	}

	if user1ID == user2ID {
		return nil, ErrSamePair
	}

	low, high := NormalizePair(user1ID, user2ID)
	now := time.Now().UTC()

	return &Match{
		ID:        id,
		UserLow:   low,
		UserHigh:  high,
		Status:    StatusActive,
		MatchedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// Involves reports whether the given runner is part of this match.
func (m *Match) Involves(runnerID string) bool {
	return m.UserLow == runnerID || m.UserHigh == runnerID
}

// OtherUser returns the ID of the other participant.
func (m *Match) OtherUser(runnerID string) string {
	if m.UserLow == runnerID {
		return m.UserHigh
	}
	return m.UserLow
}

// Unmatch ends the match. Only active matches can be unmatched.
func (m *Match) Unmatch() error {
	if !m.Status.IsActive() {
		return ErrAlreadyFinal
	}

	m.Status = StatusUnmatched
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// Block blocks the match. Only active matches can be blocked.
func (m *Match) Block() error {
	if !m.Status.IsActive() {
		return ErrAlreadyFinal
	}

	m.Status = StatusBlocked
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a string representation of the match for logging.
func (m *Match) String() string {
	return fmt.Sprintf(
		"Match{ID: %s, Pair: %s/%s, Status: %s}",
		m.ID, m.UserLow, m.UserHigh, m.Status,
	)
}
