// Package scheduler runs the hub's periodic background jobs, chiefly
// the presence sweep that expires stale online flags.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one unit of periodic work.
type Job interface {
	// Name identifies the job in logs. Must be unique per scheduler.
	Name() string

	// Run does the work. The context is cancelled when the scheduler
	// stops.
	Run(ctx context.Context) error

	// Description is a short human-readable summary.
	Description() string
}

// Schedule decides when a job runs next.
type Schedule interface {
	// Next returns the first run time after t.
	Next(t time.Time) time.Time

	String() string
}

// IntervalSchedule runs a job a fixed duration after each completed run.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule builds an IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s *IntervalSchedule) String() string {
	return "@every " + s.Interval.String()
}

var (
	// ErrJobAlreadyExists is returned when registering a duplicate name.
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrNotRunning is returned by Stop on a stopped scheduler.
	ErrNotRunning = errors.New("scheduler is not running")
)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Logger *slog.Logger
}

// DefaultSchedulerConfig returns a config logging through slog.Default.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Logger: slog.Default()}
}

type registration struct {
	job      Job
	schedule Schedule
}

// Scheduler drives registered jobs on their schedules. Each job gets
// its own goroutine and timer, so a slow job delays only itself.
type Scheduler struct {
	log *slog.Logger

	mu      sync.Mutex
	jobs    map[string]registration
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler builds a stopped Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{log: log, jobs: make(map[string]registration)}
}

// Register adds a job. Registration after Start has no effect on the
// running loop, so wire all jobs before starting.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil || schedule == nil {
		return errors.New("job and schedule are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	s.jobs[name] = registration{job: job, schedule: schedule}

	s.log.Info("job registered",
		"job", name,
		"description", job.Description(),
		"schedule", schedule.String(),
	)
	return nil
}

// Start launches one loop per registered job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, reg := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, reg)
	}

	s.log.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels the job contexts and waits for in-flight runs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
	return nil
}

// IsRunning reports whether Start has been called without a Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, reg registration) {
	defer s.wg.Done()

	name := reg.job.Name()
	timer := time.NewTimer(time.Until(reg.schedule.Next(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		err := reg.job.Run(ctx)
		elapsed := time.Since(start)

		if err != nil {
			s.log.Error("job failed", "job", name, "duration", elapsed.String(), "error", err)
		} else {
			s.log.Info("job completed", "job", name, "duration", elapsed.String())
		}

		// The next run is measured from completion, not from the
		// previous fire time, so runs never overlap.
		timer.Reset(time.Until(reg.schedule.Next(time.Now())))
	}
}
