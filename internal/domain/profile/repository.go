package profile

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract for runner profiles.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines persistence operations for runner profiles.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetByID returns a profile by runner ID.
	// Returns shared.ErrProfileNotFound when the profile does not exist.
	GetByID(ctx context.Context, id string) (*Profile, error)

	// GetByIDs returns profiles for a list of runner IDs. Unknown IDs are
	// silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*Profile, error)

	// Upsert creates the profile or updates it when the ID already exists.
	// Returns true when a new row was created.
	Upsert(ctx context.Context, p *Profile) (created bool, err error)

	// Delete removes a profile.
	// Returns shared.ErrProfileNotFound when the profile does not exist.
	Delete(ctx context.Context, id string) error

	// ─────────────────────────────────────────────────────────────────────────
	// Candidate Listing
	// ─────────────────────────────────────────────────────────────────────────

	// ListOnlineExcept returns all online profiles except the given runner,
	// id-ascending. Feeds the candidate ranker.
	ListOnlineExcept(ctx context.Context, excludeID string) ([]*Profile, error)

	// Count returns the total number of profiles.
	Count(ctx context.Context) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Presence
	// ─────────────────────────────────────────────────────────────────────────

	// SetOnline updates a runner's online flag and last-seen timestamp.
	SetOnline(ctx context.Context, id string, online bool, at time.Time) error

	// SetOfflineBefore marks every runner offline whose last activity is
	// older than the cutoff. Returns the affected runner IDs. Used by the
	// presence sweep job.
	SetOfflineBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE TRACKER
// Tracks live presence with short TTLs (implemented with Redis).
// ══════════════════════════════════════════════════════════════════════════════

// PresenceTracker defines operations for tracking runner presence.
type PresenceTracker interface {
	// Heartbeat marks a runner online, refreshing the TTL.
	Heartbeat(ctx context.Context, runnerID string) error

	// MarkOffline removes a runner's presence immediately.
	MarkOffline(ctx context.Context, runnerID string) error

	// IsOnline checks whether a runner has a live presence key.
	IsOnline(ctx context.Context, runnerID string) (bool, error)

	// GetOnlineRunners returns the IDs of all currently online runners.
	GetOnlineRunners(ctx context.Context) ([]string, error)

	// GetOnlineCount returns the number of online runners.
	GetOnlineCount(ctx context.Context) (int, error)

	// GetLastSeen returns a runner's last heartbeat time.
	GetLastSeen(ctx context.Context, runnerID string) (time.Time, error)

	// GetOnlineStates returns the online flag for a list of runners in one
	// round trip.
	GetOnlineStates(ctx context.Context, runnerIDs []string) (map[string]bool, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Write-through cache in front of the profiles table.
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines caching operations for runner profiles.
type Cache interface {
	// Get fetches a profile from the cache.
	Get(ctx context.Context, runnerID string) (*Profile, error)

	// Set stores a profile in the cache.
	Set(ctx context.Context, p *Profile, ttl time.Duration) error

	// Invalidate removes a runner's cache entries.
	Invalidate(ctx context.Context, runnerID string) error
}
