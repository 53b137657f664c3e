package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// HealthChecker is what the health endpoints poll. The composite
// implementation below is the real one; tests use the noop.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus

	// AddCheck registers a named probe; RemoveCheck drops it.
	AddCheck(name string, check HealthCheckFunc)
	RemoveCheck(name string)
}

// HealthCheckFunc probes one dependency. A nil return means healthy.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus is the aggregate answer served on /health and /ready.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is one probe's outcome.
type CheckResult struct {
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	LastChecked time.Time `json:"last_checked,omitempty"`
}

// CompositeHealthChecker fans a Check out to every registered probe in
// parallel, each under its own timeout.
type CompositeHealthChecker struct {
	version string
	started time.Time

	mu      sync.RWMutex
	probes  map[string]HealthCheckFunc
	timeout time.Duration
}

// NewCompositeHealthChecker builds a checker with no probes yet.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		version: version,
		started: time.Now(),
		probes:  make(map[string]HealthCheckFunc),
		timeout: 5 * time.Second,
	}
}

// SetTimeout overrides the per-probe timeout.
func (c *CompositeHealthChecker) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// AddCheck registers a probe under name, replacing any existing one.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = check
}

// RemoveCheck drops the probe registered under name.
func (c *CompositeHealthChecker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.probes, name)
}

// Check runs every probe and aggregates. Any failing probe marks the
// whole service unhealthy and not ready.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	probes := make(map[string]HealthCheckFunc, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	timeout := c.timeout
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}

	if len(probes) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	status.Checks = make(map[string]CheckResult, len(probes))

	var wg sync.WaitGroup
	var resultsMu sync.Mutex
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe HealthCheckFunc) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := probe(probeCtx)

			result := CheckResult{
				Healthy:     err == nil,
				Message:     "OK",
				Duration:    time.Since(start).Round(time.Millisecond).String(),
				LastChecked: time.Now().UTC(),
			}
			if err != nil {
				result.Message = err.Error()
			}

			resultsMu.Lock()
			status.Checks[name] = result
			resultsMu.Unlock()
		}(name, probe)
	}
	wg.Wait()

	var failed []string
	for name, result := range status.Checks {
		if !result.Healthy {
			failed = append(failed, name)
		}
	}

	if len(failed) == 0 {
		status.Message = "All checks passed"
	} else {
		sort.Strings(failed)
		status.Healthy = false
		status.Ready = false
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}

	return status
}

// DatabaseChecker is satisfied by the postgres connection.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// NewDatabaseCheck probes database connectivity.
func NewDatabaseCheck(db DatabaseChecker) HealthCheckFunc {
	return func(ctx context.Context) error { return db.Ping(ctx) }
}

// CacheChecker is satisfied by the Redis cache client.
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// NewCacheCheck probes cache connectivity.
func NewCacheCheck(cache CacheChecker) HealthCheckFunc {
	return func(ctx context.Context) error { return cache.Ping(ctx) }
}

// NoopHealthChecker always reports healthy. Used in tests and as the
// default when no dependencies are wired.
type NoopHealthChecker struct {
	started time.Time
}

// NewNoopHealthChecker builds a NoopHealthChecker.
func NewNoopHealthChecker() *NoopHealthChecker {
	return &NoopHealthChecker{started: time.Now()}
}

func (n *NoopHealthChecker) Check(ctx context.Context) HealthStatus {
	return HealthStatus{
		Healthy:   true,
		Ready:     true,
		Message:   "OK",
		Uptime:    time.Since(n.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

func (n *NoopHealthChecker) AddCheck(name string, check HealthCheckFunc) {}
func (n *NoopHealthChecker) RemoveCheck(name string)                    {}
