// Package redis implements Redis caching, pub/sub, and presence tracking
// for Stridemate.
//
// Key components:
//   - Cache: JSON values with TTLs, plus pub/sub publishing
//   - PresenceTracker: real-time runner presence with TTL keys
//   - ProfileCache: hot runner profiles in front of Postgres
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when the requested key is not in Redis.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when the Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when a value cannot be
	// marshalled or unmarshalled.
	ErrCacheSerialization = errors.New("cache: serialization failed")
)

// Key namespaces. Everything this service writes to Redis lives under
// one of these.
const (
	PrefixRunner   = "runner:"
	PrefixPresence = "presence:runner:"
	PrefixChannel  = "events:"
)

const (
	// TTLPresence is the time a runner stays online after their last
	// heartbeat.
	TTLPresence = 5 * time.Minute

	// TTLProfileCache is the TTL for cached runner profiles.
	TTLProfileCache = 10 * time.Minute
)

// Config holds Redis connection settings.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a configuration suitable for a local Redis.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Cache wraps a Redis client with JSON serialization and the error
// taxonomy the rest of the service expects.
type Cache struct {
	client *redis.Client
}

// NewCache connects using explicit settings and verifies with a ping.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return verify(client, cfg.DialTimeout)
}

// NewCacheFromURL connects using a redis:// URL, the format managed
// Redis providers hand out.
func NewCacheFromURL(rawURL string) (*Cache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return verify(redis.NewClient(opts), 5*time.Second)
}

func verify(client *redis.Client, timeout time.Duration) (*Cache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return &Cache{client: client}, nil
}

// Client exposes the underlying Redis client for pipelines and sorted
// set operations. Prefer the Cache methods where they fit.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores a value as JSON under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get reads a JSON value into dest. Returns ErrCacheMiss when the key
// does not exist.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// GetString reads a raw string value. Returns ErrCacheMiss when the
// key does not exist.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// Delete removes keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists reports whether a key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// Publish sends a message, serialized as JSON, to a pub/sub channel.
func (c *Cache) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Publish(ctx, channel, data).Err()
}

// RunnerKey is the cache key for a runner's profile.
func RunnerKey(runnerID string) string {
	return PrefixRunner + runnerID
}

// PresenceKey is the TTL key for a runner's presence.
func PresenceKey(runnerID string) string {
	return PrefixPresence + runnerID
}

// MatchChannel is the pub/sub channel for a runner's match events.
func MatchChannel(runnerID string) string {
	return PrefixChannel + "matches:" + runnerID
}

// MessageChannel is the pub/sub channel for a conversation's messages.
func MessageChannel(matchID string) string {
	return PrefixChannel + "messages:" + matchID
}

// PresenceChannel is the pub/sub channel for a runner's presence events.
func PresenceChannel(runnerID string) string {
	return PrefixChannel + "presence:" + runnerID
}
