// Package redis implements Redis caching, pub/sub, and presence tracking
// for Stridemate.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE TRACKER
// Each online runner holds a TTL key (presence:runner:<id>) refreshed on
// every heartbeat, plus a membership in the online:all sorted set scored
// by the heartbeat time. The TTL key answers point lookups and expires
// on its own; the sorted set answers "who is online" in one read, with
// lapsed entries trimmed on the way out.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrRunnerIDEmpty is returned when the runner ID is empty.
	ErrRunnerIDEmpty = errors.New("presence: runner ID cannot be empty")
)

// keyOnlineAll is the sorted set containing all online runners,
// scored by last heartbeat (unix seconds).
const keyOnlineAll = "online:all"

// PresenceTracker implements profile.PresenceTracker on Redis.
type PresenceTracker struct {
	cache *Cache
	ttl   time.Duration
}

// NewPresenceTracker creates a tracker with the given online TTL.
// Zero ttl falls back to TTLPresence.
func NewPresenceTracker(cache *Cache, ttl time.Duration) *PresenceTracker {
	if ttl <= 0 {
		ttl = TTLPresence
	}
	return &PresenceTracker{cache: cache, ttl: ttl}
}

// Heartbeat marks a runner online, refreshing the TTL.
func (t *PresenceTracker) Heartbeat(ctx context.Context, runnerID string) error {
	if runnerID == "" {
		return ErrRunnerIDEmpty
	}

	now := time.Now().UTC()

	pipe := t.cache.Client().Pipeline()
	pipe.Set(ctx, PresenceKey(runnerID), strconv.FormatInt(now.Unix(), 10), t.ttl)
	pipe.ZAdd(ctx, keyOnlineAll, redis.Z{
		Score:  float64(now.Unix()),
		Member: runnerID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence: heartbeat failed: %w", err)
	}
	return nil
}

// MarkOffline removes a runner's presence immediately.
func (t *PresenceTracker) MarkOffline(ctx context.Context, runnerID string) error {
	if runnerID == "" {
		return ErrRunnerIDEmpty
	}

	pipe := t.cache.Client().Pipeline()
	pipe.Del(ctx, PresenceKey(runnerID))
	pipe.ZRem(ctx, keyOnlineAll, runnerID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence: mark offline failed: %w", err)
	}
	return nil
}

// IsOnline reports whether the runner's presence key is still alive.
func (t *PresenceTracker) IsOnline(ctx context.Context, runnerID string) (bool, error) {
	if runnerID == "" {
		return false, ErrRunnerIDEmpty
	}

	return t.cache.Exists(ctx, PresenceKey(runnerID))
}

// GetOnlineRunners returns the IDs of all currently online runners.
// Entries whose heartbeat lapsed are trimmed first; their TTL keys have
// already expired on their own.
func (t *PresenceTracker) GetOnlineRunners(ctx context.Context) ([]string, error) {
	cutoff := time.Now().UTC().Add(-t.ttl).Unix()
	client := t.cache.Client()

	if err := client.ZRemRangeByScore(ctx, keyOnlineAll, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return nil, fmt.Errorf("presence: failed to trim online set: %w", err)
	}

	ids, err := client.ZRangeByScore(ctx, keyOnlineAll, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("presence: failed to read online set: %w", err)
	}

	return ids, nil
}

// GetOnlineCount returns the number of currently online runners.
func (t *PresenceTracker) GetOnlineCount(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-t.ttl).Unix()

	n, err := t.cache.Client().ZCount(ctx, keyOnlineAll,
		strconv.FormatInt(cutoff, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("presence: failed to count online runners: %w", err)
	}

	return int(n), nil
}

// GetLastSeen returns a runner's last heartbeat time.
func (t *PresenceTracker) GetLastSeen(ctx context.Context, runnerID string) (time.Time, error) {
	if runnerID == "" {
		return time.Time{}, ErrRunnerIDEmpty
	}

	val, err := t.cache.GetString(ctx, PresenceKey(runnerID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			// The TTL key is gone but the sorted set may still remember.
			score, zErr := t.cache.Client().ZScore(ctx, keyOnlineAll, runnerID).Result()
			if zErr != nil {
				return time.Time{}, shared.ErrNotFound
			}
			return time.Unix(int64(score), 0).UTC(), nil
		}
		return time.Time{}, err
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("presence: corrupt last-seen value: %w", err)
	}

	return time.Unix(unix, 0).UTC(), nil
}

// GetOnlineStates returns the online flag for each given runner in one
// round trip.
func (t *PresenceTracker) GetOnlineStates(ctx context.Context, runnerIDs []string) (map[string]bool, error) {
	states := make(map[string]bool, len(runnerIDs))
	if len(runnerIDs) == 0 {
		return states, nil
	}

	pipe := t.cache.Client().Pipeline()
	cmds := make([]*redis.IntCmd, len(runnerIDs))
	for i, id := range runnerIDs {
		cmds[i] = pipe.Exists(ctx, PresenceKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("presence: failed to read states: %w", err)
	}

	for i, id := range runnerIDs {
		states[id] = cmds[i].Val() > 0
	}

	return states, nil
}
