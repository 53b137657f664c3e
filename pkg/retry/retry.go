// Package retry runs an operation again after transient failures, with
// jittered exponential backoff between attempts.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy describes a backoff schedule. Every error is considered
// transient; callers that hit a permanent failure should stop wrapping
// the operation in a Retrier instead of signalling through error types.
type Policy struct {
	// Attempts is the total number of tries, the first one included.
	Attempts int

	// BaseDelay is the wait after the first failure. Each further wait
	// is multiplied by Growth and capped at MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Growth    float64

	// Jitter spreads each wait by up to this fraction in either
	// direction, so concurrent retries do not fire in lockstep.
	Jitter float64
}

// Retrier executes operations under a fixed Policy.
type Retrier struct {
	policy Policy
}

// New builds a Retrier. Zero or negative policy fields fall back to a
// 3-attempt, 100ms-base schedule.
func New(p Policy) *Retrier {
	if p.Attempts < 1 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Growth < 1 {
		p.Growth = 2
	}
	return &Retrier{policy: p}
}

// Do runs op until it succeeds, the attempts are exhausted, or ctx is
// done. The returned error is the last one op produced.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == r.policy.Attempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(r.wait(attempt)):
		}
	}
}

func (r *Retrier) wait(attempt int) time.Duration {
	d := float64(r.policy.BaseDelay) * math.Pow(r.policy.Growth, float64(attempt-1))
	if max := float64(r.policy.MaxDelay); d > max {
		d = max
	}
	if r.policy.Jitter > 0 {
		d += d * r.policy.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// PublisherRetrier covers realtime event publication. The schedule is
// short on purpose: an event that cannot go out within a couple of
// seconds is better dropped than left blocking the request path.
func PublisherRetrier() *Retrier {
	return New(Policy{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  2 * time.Second,
		Jitter:    0.1,
	})
}

// SweepRetrier covers the background presence sweep, which can afford
// longer waits between tries.
func SweepRetrier() *Retrier {
	return New(Policy{
		Attempts:  3,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Jitter:    0.2,
	})
}
