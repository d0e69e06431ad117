// Package resilience wraps external data sources with a circuit breaker and a
// TTL cache so a failing or slow source degrades to cached or fallback values
// instead of failing the request.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, calls are short-circuited
	StateHalfOpen              // Testing if the source has recovered
)

// String returns a human-readable state name for logs and status endpoints.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned internally when a call is short-circuited. It is
// recovered locally by the Guard and never reaches the engine's caller.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Breaker implements a per-source circuit breaker: consecutive failures trip
// it open, a reset delay later a single probe call is let through, and a probe
// success closes it again. One instance exists per external source and is
// shared across all concurrent requests against that source.
type Breaker struct {
	// Name of the source this breaker protects
	name string

	// Consecutive failures required to trip the circuit
	threshold int

	// Duration before a probe call is allowed after a trip
	resetDelay time.Duration

	// Mutex for thread safety; scoped to this source only
	mu sync.RWMutex

	state    State
	failures int
	lastTrip time.Time

	// True while a half-open probe call is in flight
	probing bool

	// Clock, injectable for deterministic tests
	now func() time.Time

	// Event callback for monitoring/alerting
	onTrip func(name string, failures int)
}

// NewBreaker creates a closed Breaker for the named source.
func NewBreaker(name string, threshold int, resetDelay time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	return &Breaker{
		name:       name,
		threshold:  threshold,
		resetDelay: resetDelay,
		state:      StateClosed,
		now:        time.Now,
	}
}

// WithClock sets a custom clock and returns the breaker. Used by tests.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// WithTripCallback sets a callback invoked whenever the circuit trips.
func (b *Breaker) WithTripCallback(fn func(name string, failures int)) *Breaker {
	b.onTrip = fn
	return b
}

// Allow reports whether a call to the underlying source may proceed. When the
// circuit is open and the reset delay has elapsed, it transitions to half-open
// and admits exactly one probe call.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.lastTrip) >= b.resetDelay {
			b.state = StateHalfOpen
			b.probing = true
			logrus.Infof("Circuit breaker %s half-open: probing source recovery", b.name)
			return true
		}
		return false
	case StateHalfOpen:
		if !b.probing {
			b.probing = true
			return true
		}
		return false
	}
	return false
}

// RecordSuccess resets the failure counter and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		logrus.Infof("Circuit breaker %s closed: source recovered", b.name)
	}
	b.state = StateClosed
	b.failures = 0
	b.probing = false
}

// RecordFailure increments the consecutive-failure counter and trips the
// circuit when the threshold is reached. A failed half-open probe trips it
// immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false

	if b.state == StateHalfOpen {
		b.trip()
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		b.trip()
	}
}

// State returns the current state of the circuit breaker.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failures
}

// Reset forcibly returns the breaker to the closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probing = false
	logrus.Infof("Circuit breaker %s manually reset to closed state", b.name)
}

// trip opens the circuit. Caller must hold the write lock.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.lastTrip = b.now()
	logrus.Warnf("Circuit breaker %s tripped after %d consecutive failures", b.name, b.failures)

	if b.onTrip != nil {
		go b.onTrip(b.name, b.failures)
	}
}
