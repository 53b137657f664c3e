package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func quietScheduler() *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestScheduler_RunsJobOnInterval(t *testing.T) {
	s := quietScheduler()
	job := &countingJob{name: "ticker"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_RejectsDuplicateName(t *testing.T) {
	s := quietScheduler()
	require.NoError(t, s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Minute)))

	err := s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Minute))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_StartStopLifecycle(t *testing.T) {
	s := quietScheduler()
	require.NoError(t, s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Hour)))

	assert.False(t, s.IsRunning())
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	s := quietScheduler()

	started := make(chan struct{})
	var finished atomic.Bool
	job := &blockingJob{started: started, finished: &finished}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	<-started

	require.NoError(t, s.Stop())
	assert.True(t, finished.Load())
}

type blockingJob struct {
	started  chan struct{}
	finished *atomic.Bool
	once     atomic.Bool
}

func (j *blockingJob) Name() string        { return "blocker" }
func (j *blockingJob) Description() string { return "blocks until cancelled" }

func (j *blockingJob) Run(ctx context.Context) error {
	if j.once.CompareAndSwap(false, true) {
		close(j.started)
	}
	<-ctx.Done()
	j.finished.Store(true)
	return ctx.Err()
}

func TestIntervalSchedule(t *testing.T) {
	sched := NewIntervalSchedule(5 * time.Minute)
	now := time.Now()

	assert.Equal(t, now.Add(5*time.Minute), sched.Next(now))
	assert.Equal(t, "@every 5m0s", sched.String())
}
