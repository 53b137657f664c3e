// Package config loads all runtime settings from environment variables,
// with defaults tuned for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	HTTP          HTTPConfig
	Matching      MatchingConfig
	Presence      PresenceConfig
	Scheduler     SchedulerConfig
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name            string
	Environment     Environment
	Debug           bool
	Version         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. URL is the
// Supabase-style connection string; when empty it is assembled from the
// individual DB_* variables.
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis connection settings. URL wins when set;
// otherwise the individual fields are used.
type RedisConfig struct {
	URL string

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

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RateLimit is the per-client request budget per minute.
	RateLimit int

	// ServiceKeyHash is the bcrypt hash of the key that protects the
	// profile sync webhook. Generated once and set via env.
	ServiceKeyHash string

	// CORSOrigin is the allowed origin for the web client.
	CORSOrigin string
}

// MatchingConfig holds compatibility scoring settings.
type MatchingConfig struct {
	// DefaultLimit is how many candidates the ranker returns when the
	// caller does not say.
	DefaultLimit int

	// MaxLimit caps what a caller may request.
	MaxLimit int

	// CityReference is the city used for the coarse same-city check.
	CityReference string

	// RecentWindow bounds the recent-matches feed.
	RecentWindow time.Duration
}

// PresenceConfig holds online-status tracking settings.
type PresenceConfig struct {
	// TTL is how long a heartbeat keeps a runner online.
	TTL time.Duration

	// SweepInterval is how often stale runners are demoted in Postgres.
	SweepInterval time.Duration
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	Enabled    bool
	JobTimeout time.Duration
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string // debug, info, warn, error
	LogFormat      string // json, text
	MetricsEnabled bool
}

// Load reads every setting from the environment and validates the
// result.
func Load() (*Config, error) {
	env := Environment(envStr("APP_ENV", "development"))

	cfg := &Config{
		App: AppConfig{
			Name:            envStr("APP_NAME", "stridemate-hub"),
			Environment:     env,
			Debug:           env == EnvDevelopment || envBool("APP_DEBUG", false),
			Version:         envStr("APP_VERSION", "0.1.0"),
			ShutdownTimeout: envDur("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             databaseURL(),
			MaxConns:        envInt("DB_MAX_CONNS", 10),
			MinConns:        envInt("DB_MIN_CONNS", 2),
			ConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: envDur("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          envStr("REDIS_URL", ""),
			Host:         envStr("REDIS_HOST", "localhost"),
			Port:         envInt("REDIS_PORT", 6379),
			Password:     envStr("REDIS_PASSWORD", ""),
			DB:           envInt("REDIS_DB", 0),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		HTTP: HTTPConfig{
			Addr:           envStr("HTTP_ADDR", ":8080"),
			ReadTimeout:    envDur("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   envDur("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    envDur("HTTP_IDLE_TIMEOUT", 60*time.Second),
			RateLimit:      envInt("HTTP_RATE_LIMIT", 120),
			ServiceKeyHash: envStr("SERVICE_KEY_HASH", ""),
			CORSOrigin:     envStr("CORS_ORIGIN", "*"),
		},
		Matching: MatchingConfig{
			DefaultLimit:  envInt("MATCHING_DEFAULT_LIMIT", 10),
			MaxLimit:      envInt("MATCHING_MAX_LIMIT", 50),
			CityReference: envStr("MATCHING_CITY_REFERENCE", "San Francisco"),
			RecentWindow:  envDur("MATCHING_RECENT_WINDOW", 24*time.Hour),
		},
		Presence: PresenceConfig{
			TTL:           envDur("PRESENCE_TTL", 5*time.Minute),
			SweepInterval: envDur("PRESENCE_SWEEP_INTERVAL", time.Minute),
		},
		Scheduler: SchedulerConfig{
			Enabled:    envBool("SCHEDULER_ENABLED", true),
			JobTimeout: envDur("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:       envStr("LOG_LEVEL", "info"),
			LogFormat:      envStr("LOG_FORMAT", "json"),
			MetricsEnabled: envBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// databaseURL returns DATABASE_URL, or assembles one from DB_* parts
// the way Supabase presents them.
func databaseURL() string {
	if url := envStr("DATABASE_URL", ""); url != "" {
		return url
	}

	host := envStr("DB_HOST", "")
	user := envStr("DB_USER", "")
	if host == "" || user == "" {
		return ""
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user,
		envStr("DB_PASSWORD", ""),
		host,
		envStr("DB_PORT", "5432"),
		envStr("DB_NAME", "postgres"),
		envStr("DB_SSLMODE", "require"),
	)
}

// Validate checks cross-field constraints and production requirements.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Environment == EnvProduction {
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required in production")
		}
		if c.HTTP.ServiceKeyHash == "" {
			errs = append(errs, "SERVICE_KEY_HASH is required in production")
		}
	}

	if c.Matching.DefaultLimit < 1 {
		errs = append(errs, "MATCHING_DEFAULT_LIMIT must be at least 1")
	}
	if c.Matching.MaxLimit < c.Matching.DefaultLimit {
		errs = append(errs, "MATCHING_MAX_LIMIT must be >= MATCHING_DEFAULT_LIMIT")
	}
	if c.Presence.TTL < time.Second {
		errs = append(errs, "PRESENCE_TTL must be at least 1s")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
