// Package circuitbreaker keeps a failing side channel from dragging
// down the request path. After enough consecutive failures the breaker
// opens and callers fail fast until a probe succeeds.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker's position.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls outright until the cooldown passes.
	StateOpen
	// StateHalfOpen lets a single probe through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings tunes a breaker.
type Settings struct {
	// Name appears in the state-change callback.
	Name string

	// FailureThreshold is the run of consecutive failures that trips
	// the breaker open.
	FailureThreshold int

	// SuccessThreshold is the run of probe successes that closes it
	// again.
	SuccessThreshold int

	// Cooldown is how long the breaker stays open before admitting a
	// probe.
	Cooldown time.Duration

	// OnStateChange, when set, is called on every transition.
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker tracks failures across calls to Execute.
type CircuitBreaker struct {
	settings Settings

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
}

// New builds a breaker. Missing thresholds default to 5 failures to
// open and 2 successes to close, with a 30s cooldown.
func New(s Settings) *CircuitBreaker {
	if s.FailureThreshold < 1 {
		s.FailureThreshold = 5
	}
	if s.SuccessThreshold < 1 {
		s.SuccessThreshold = 2
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	return &CircuitBreaker{settings: s}
}

// Execute runs fn if the breaker admits the call and records the
// outcome. While open it returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// State reports the breaker's current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) < cb.settings.Cooldown {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probing = true
		return nil
	default: // half-open
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false

	if err != nil {
		cb.failures++
		cb.successes = 0
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.settings.FailureThreshold {
				cb.open()
			}
		case StateHalfOpen:
			// A failed probe re-opens immediately.
			cb.open()
		}
		return
	}

	cb.successes++
	cb.failures = 0
	if cb.state == StateHalfOpen && cb.successes >= cb.settings.SuccessThreshold {
		cb.transition(StateClosed)
	}
}

func (cb *CircuitBreaker) open() {
	cb.openedAt = time.Now()
	cb.transition(StateOpen)
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}

// RealtimePublisherBreaker guards the Redis realtime publisher. Match
// and message creation must never fail because pub/sub is down, so it
// opens after a short run of failures and probes again quickly.
func RealtimePublisherBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:             "realtime-publisher",
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Cooldown:         15 * time.Second,
		OnStateChange:    onStateChange,
	})
}
