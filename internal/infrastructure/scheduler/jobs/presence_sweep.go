// Package jobs contains implementations of scheduled jobs for Stridemate.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
	"github.com/stridemate/stridemate-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE SWEEP JOB
// ══════════════════════════════════════════════════════════════════════════════

// PresenceSweepJob reconciles the is_online column in Postgres with
// reality. Heartbeats keep Redis TTL keys alive and flip the column on
// explicit transitions, but a client that dies mid-session leaves its
// row online forever. The sweep marks offline every runner whose last
// activity predates the presence TTL and emits the missed offline
// events, so the candidate feed stops offering ghosts.
type PresenceSweepJob struct {
	profileRepo profile.Repository
	tracker     profile.PresenceTracker
	publisher   shared.EventPublisher
	logger      *slog.Logger

	config PresenceSweepConfig

	lastRunStats atomic.Value // *PresenceSweepStats
}

// PresenceSweepConfig contains configuration for the presence sweep.
type PresenceSweepConfig struct {
	// TTL is how long a runner stays online after their last activity.
	// Must match the Redis presence TTL or the two stores drift.
	TTL time.Duration

	// Timeout is the maximum duration for one sweep.
	Timeout time.Duration
}

// DefaultPresenceSweepConfig returns the default configuration.
func DefaultPresenceSweepConfig() PresenceSweepConfig {
	return PresenceSweepConfig{
		TTL:     5 * time.Minute,
		Timeout: 30 * time.Second,
	}
}

// PresenceSweepStats contains the outcome of the last sweep.
type PresenceSweepStats struct {
	StartedAt    time.Time
	Duration     time.Duration
	SweptCount   int
	OnlineBefore int
	OnlineAfter  int
}

// NewPresenceSweepJob creates a new presence sweep job.
func NewPresenceSweepJob(
	profileRepo profile.Repository,
	tracker profile.PresenceTracker,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config PresenceSweepConfig,
) *PresenceSweepJob {
	if config.TTL <= 0 {
		config.TTL = DefaultPresenceSweepConfig().TTL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultPresenceSweepConfig().Timeout
	}
	return &PresenceSweepJob{
		profileRepo: profileRepo,
		tracker:     tracker,
		publisher:   publisher,
		logger:      logger,
		config:      config,
	}
}

// Name returns the unique name of the job.
func (j *PresenceSweepJob) Name() string {
	return "presence_sweep"
}

// Description returns a human-readable description of the job.
func (j *PresenceSweepJob) Description() string {
	return "Marks runners offline whose last activity exceeds the presence TTL"
}

// Run executes one sweep.
func (j *PresenceSweepJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := time.Now().UTC()
	stats := &PresenceSweepStats{StartedAt: start}

	if count, err := j.tracker.GetOnlineCount(ctx); err == nil {
		stats.OnlineBefore = count
	}

	cutoff := start.Add(-j.config.TTL)

	var swept []string
	retrier := retry.SweepRetrier()
	err := retrier.Do(ctx, func(ctx context.Context) error {
		var sweepErr error
		swept, sweepErr = j.profileRepo.SetOfflineBefore(ctx, cutoff)
		return sweepErr
	})
	if err != nil {
		return fmt.Errorf("presence sweep failed: %w", err)
	}

	stats.SweptCount = len(swept)

	for _, runnerID := range swept {
		// The runner's tracker key has likely expired already; removing
		// it from the online set keeps counts honest.
		if err := j.tracker.MarkOffline(ctx, runnerID); err != nil {
			j.logger.Warn("failed to clear tracker entry",
				"runner_id", runnerID,
				"error", err,
			)
		}

		if j.publisher != nil {
			_ = j.publisher.Publish(shared.NewRunnerWentOfflineEvent(runnerID, cutoff))
		}
	}

	if count, err := j.tracker.GetOnlineCount(ctx); err == nil {
		stats.OnlineAfter = count
	}

	stats.Duration = time.Since(start)
	j.lastRunStats.Store(stats)

	if stats.SweptCount > 0 {
		j.logger.Info("presence sweep complete",
			"swept", stats.SweptCount,
			"online_after", stats.OnlineAfter,
			"duration", stats.Duration,
		)
	}

	return nil
}

// LastRunStats returns the stats from the most recent run, or nil.
func (j *PresenceSweepJob) LastRunStats() *PresenceSweepStats {
	stats, _ := j.lastRunStats.Load().(*PresenceSweepStats)
	return stats
}
