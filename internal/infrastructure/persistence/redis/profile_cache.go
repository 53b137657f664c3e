package redis

import (
	"context"
	"errors"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ProfileCache implements profile.Cache using the generic Redis Cache.
type ProfileCache struct {
	cache *Cache
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{cache: cache}
}

// Get returns a cached profile. Misses come back as shared.ErrNotFound
// so callers fall through to Postgres without special-casing.
func (c *ProfileCache) Get(ctx context.Context, runnerID string) (*profile.Profile, error) {
	var p profile.Profile
	err := c.cache.Get(ctx, RunnerKey(runnerID), &p)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Set stores a profile with the given TTL. Zero ttl falls back to
// TTLProfileCache.
func (c *ProfileCache) Set(ctx context.Context, p *profile.Profile, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLProfileCache
	}
	return c.cache.Set(ctx, RunnerKey(p.ID), p, ttl)
}

// Invalidate drops the cached copy of a profile.
func (c *ProfileCache) Invalidate(ctx context.Context, runnerID string) error {
	return c.cache.Delete(ctx, RunnerKey(runnerID))
}
