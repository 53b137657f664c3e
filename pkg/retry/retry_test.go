package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := New(fastPolicy(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("still down")
	err := New(fastPolicy(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestRetrier_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := New(Policy{Attempts: 5, BaseDelay: 50 * time.Millisecond}).Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_ContextAlreadyDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := New(fastPolicy(3)).Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestWait_GrowsAndCaps(t *testing.T) {
	r := New(Policy{Attempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: 25 * time.Millisecond, Growth: 2})

	assert.Equal(t, 10*time.Millisecond, r.wait(1))
	assert.Equal(t, 20*time.Millisecond, r.wait(2))
	assert.Equal(t, 25*time.Millisecond, r.wait(3))
	assert.Equal(t, 25*time.Millisecond, r.wait(4))
}

func TestNew_AppliesDefaults(t *testing.T) {
	r := New(Policy{})

	assert.Equal(t, 3, r.policy.Attempts)
	assert.Equal(t, 100*time.Millisecond, r.policy.BaseDelay)
	assert.Equal(t, 2.0, r.policy.Growth)
}
