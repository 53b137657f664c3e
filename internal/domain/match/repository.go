package match

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Storage contract for matches. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines persistence operations for matches.
type Repository interface {
	// Insert persists a new match. Returns *DuplicateError when an active
	// match for the same normalized pair already exists; on a lost insert
	// race the existing row is re-read and returned inside the error.
	Insert(ctx context.Context, m *Match) error

	// GetByID returns a match by ID.
	// Returns shared.ErrMatchNotFound when the match does not exist.
	GetByID(ctx context.Context, id string) (*Match, error)

	// FindActiveByPair returns the active match for a normalized pair.
	// Returns shared.ErrMatchNotFound when there is none.
	FindActiveByPair(ctx context.Context, userLow, userHigh string) (*Match, error)

	// ListForUser returns every match involving the runner, regardless of
	// status. Matched, unmatched and blocked runners are all excluded from
	// future candidate lists, so this feeds the ranker's exclusion set.
	ListForUser(ctx context.Context, runnerID string) ([]*Match, error)

	// ListRecentForUser returns the runner's active matches created after
	// the cutoff, newest first.
	ListRecentForUser(ctx context.Context, runnerID string, since time.Time, limit int) ([]*Match, error)

	// UpdateStatus transitions a match's status.
	// Returns shared.ErrMatchNotFound when the match does not exist.
	UpdateStatus(ctx context.Context, id string, status Status) error
}
