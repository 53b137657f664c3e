// Package main is the entry point for the Stridemate hub server.
//
// Stridemate pairs runners with compatible training partners. The hub
// owns the compatibility scorer, the match ledger, partner chat, and
// presence tracking; auth and the mobile client live elsewhere and
// reach us over HTTP.
//
// The layering follows Clean Architecture and DDD:
//   - Domain: scoring and match rules, no external dependencies
//   - Application: use case orchestration (Commands/Queries)
//   - Infrastructure: Postgres, Redis, background jobs
//   - Interface: the REST API
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/stridemate/stridemate-hub/config"
	"github.com/stridemate/stridemate-hub/internal/application/command"
	"github.com/stridemate/stridemate-hub/internal/application/query"
	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/infrastructure/messaging"
	"github.com/stridemate/stridemate-hub/internal/infrastructure/persistence/postgres"
	"github.com/stridemate/stridemate-hub/internal/infrastructure/persistence/redis"
	"github.com/stridemate/stridemate-hub/internal/infrastructure/scheduler"
	"github.com/stridemate/stridemate-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/stridemate/stridemate-hub/internal/interface/http"
	"github.com/stridemate/stridemate-hub/internal/interface/http/handlers"
	"github.com/stridemate/stridemate-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────

	// .env is optional; real deploys set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})

	// The scheduler logs through slog.
	slogLog := setupSlog(cfg)

	log.Info("starting Stridemate hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRES (Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if status, err := migrator.Status(ctx); err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
	} else {
		applied := 0
		for _, m := range status {
			if m.IsApplied {
				applied++
			}
		}
		log.Info("migrations completed",
			logger.Int("applied", applied),
			logger.Int("total", len(status)),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS
	// Presence and the realtime channels live here, so unlike a plain
	// cache it is a hard dependency.
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis")

	var cache *redis.Cache
	if cfg.Redis.URL != "" {
		cache, err = redis.NewCacheFromURL(cfg.Redis.URL)
	} else {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
		cache, err = redis.NewCache(redisCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection")
		_ = cache.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. INFRASTRUCTURE
	// ─────────────────────────────────────────────────────────────────────────
	profileRepo := postgres.NewProfileRepository(dbConn)
	matchRepo := postgres.NewMatchRepository(dbConn)
	messageRepo := postgres.NewMessageRepository(dbConn)

	tracker := redis.NewPresenceTracker(cache, cfg.Presence.TTL)
	profileCache := redis.NewProfileCache(cache)

	publisher := messaging.NewRedisPublisher(cache, log)
	defer func() {
		_ = publisher.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	scorer := match.NewScorer(cfg.Matching.CityReference)

	potentialMatches := query.NewPotentialMatchesHandler(profileRepo, matchRepo, scorer)
	recentMatches := query.NewRecentMatchesHandler(matchRepo, profileRepo)
	listMessages := query.NewListMessagesHandler(messageRepo, matchRepo)

	createMatch := command.NewCreateMatchHandler(matchRepo, profileRepo, messageRepo, publisher)
	unmatch := command.NewUnmatchHandler(matchRepo)
	sendMessage := command.NewSendMessageHandler(messageRepo, matchRepo, publisher)
	syncProfile := command.NewSyncProfileHandler(profileRepo, profileCache, publisher)
	trackPresence := command.NewTrackPresenceHandler(tracker, profileRepo, publisher)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. BACKGROUND JOBS
	// The presence sweep reconciles Postgres with the Redis TTLs and
	// emits the offline events that missed heartbeats swallow.
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = slogLog
		sched = scheduler.NewScheduler(schedCfg)

		sweep := jobs.NewPresenceSweepJob(profileRepo, tracker, publisher, slogLog, jobs.PresenceSweepConfig{
			TTL:     cfg.Presence.TTL,
			Timeout: cfg.Scheduler.JobTimeout,
		})
		if err := sched.Register(sweep, scheduler.NewIntervalSchedule(cfg.Presence.SweepInterval)); err != nil {
			return fmt.Errorf("failed to register presence sweep: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler")
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	health.AddCheck("cache", handlers.NewCacheCheck(cache))

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host, httpCfg.Port = splitAddr(cfg.HTTP.Addr)
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimit
	httpCfg.ServiceKeyHash = cfg.HTTP.ServiceKeyHash
	httpCfg.AllowedOrigins = []string{cfg.HTTP.CORSOrigin}
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled

	httpDeps := httpserver.Dependencies{
		PotentialMatchesHandler: potentialMatches,
		RecentMatchesHandler:    recentMatches,
		ListMessagesHandler:     listMessages,
		CreateMatchHandler:      createMatch,
		UnmatchHandler:          unmatch,
		SendMessageHandler:      sendMessage,
		SyncProfileHandler:      syncProfile,
		TrackPresenceHandler:    trackPresence,
		Logger:                  log,
		HealthChecker:           health,
	}
	if cfg.Observability.MetricsEnabled {
		httpDeps.Metrics = httpserver.NewMetrics()
	}

	server := httpserver.NewServer(httpCfg, httpDeps)

	if cfg.HTTP.ServiceKeyHash == "" {
		log.Warn("SERVICE_KEY_HASH not set, profile sync webhook is disabled")
	}

	errCh := server.StartAsync()

	log.Info("Stridemate hub is running",
		logger.String("address", server.Address()),
		logger.Bool("scheduler", cfg.Scheduler.Enabled),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("server error", logger.Err(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown",
		logger.Duration("timeout", cfg.App.ShutdownTimeout),
	)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// setupSlog configures the slog logger used by the scheduler.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// splitAddr turns a listen address like ":8080" into host and port.
func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "0.0.0.0", 8080
	}
	if host == "" {
		host = "0.0.0.0"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 8080
	}
	return host, port
}
