// Package circuitbreaker stops calling an external service that keeps
// failing. Lead traffic is low-volume, so the breaker trips on a run of
// weighted consecutive failures rather than on an error rate.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows all calls through.
	StateClosed State = iota
	// StateOpen rejects all calls.
	StateOpen
	// StateHalfOpen allows a single probe call.
	StateHalfOpen
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker parameters.
type Config struct {
	FailureThreshold float64       // weighted consecutive failures that trip the breaker
	OpenTimeout      time.Duration // time in OPEN before a probe is allowed
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Breaker guards one upstream.
type Breaker struct {
	name        string
	threshold   float64
	openTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    State
	failures float64 // weighted failures since the last success
	openedAt time.Time
	probing  bool // a half-open probe is in flight
}

// New creates a closed breaker for the named upstream. Zero config fields
// fall back to DefaultConfig.
func New(name string, cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &Breaker{
		name:        name,
		threshold:   cfg.FailureThreshold,
		openTimeout: cfg.OpenTimeout,
		now:         time.Now,
	}
}

// Name returns the guarded upstream's name.
func (b *Breaker) Name() string { return b.name }

// State returns the current breaker state, moving OPEN to HALF_OPEN once
// the open timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		b.transition(StateHalfOpen)
	}
	return b.state
}

// Allow reports whether a call may proceed. In HALF_OPEN exactly one
// probe is admitted until its outcome is recorded.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.openTimeout {
			return false
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// Record feeds a call outcome into the breaker. Errors that classify with
// zero weight (client errors) count as successes. A cancelled call only
// releases the half-open probe slot.
func (b *Breaker) Record(err error) {
	weight := ClassifyError(err)

	b.mu.Lock()
	defer b.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		b.probing = false
		return
	}

	if weight == 0 {
		b.failures = 0
		b.probing = false
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	b.failures += weight
	switch b.state {
	case StateClosed:
		if b.failures >= b.threshold {
			b.trip()
		}
	case StateHalfOpen:
		// Probe failed: reopen.
		b.trip()
	}
}

// Do runs fn if the breaker allows it and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn()
	b.Record(err)
	return err
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.probing = false
	b.transition(StateOpen)
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	slog.Warn("circuit breaker state change",
		"upstream", b.name,
		"from", b.state.String(),
		"to", to.String(),
	)
	b.state = to
}
