package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for deterministic breaker tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestBreaker_StartsClosed(t *testing.T) {
	b := NewBreaker("test", 5, 30*time.Second)

	assert.Equal(t, StateClosed, b.State(), "Breaker should start closed")
	assert.True(t, b.Allow(), "Closed breaker should allow calls")
	assert.Equal(t, 0, b.Failures(), "Failure counter should start at zero")
}

func TestBreaker_TripsAfterThresholdFailures(t *testing.T) {
	clock := newFakeClock()
	b := NewBreaker("test", 5, 30*time.Second).WithClock(clock.Now)

	for i := 0; i < 4; i++ {
		b.RecordFailure()
		assert.Equal(t, StateClosed, b.State(), "Breaker should stay closed below threshold")
	}

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State(), "Breaker should open after 5 consecutive failures")
	assert.False(t, b.Allow(), "Open breaker should short-circuit calls")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 5, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	assert.Equal(t, 0, b.Failures(), "Success should reset the consecutive-failure counter")
	assert.Equal(t, StateClosed, b.State())

	// Failures are only consecutive; four more should not trip after a success
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State(), "Four failures after a success should not trip a threshold of five")
}

func TestBreaker_HalfOpenProbeAfterResetDelay(t *testing.T) {
	clock := newFakeClock()
	b := NewBreaker("test", 5, 30*time.Second).WithClock(clock.Now)

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	require.Equal(t, StateOpen, b.State())

	clock.Advance(29 * time.Second)
	assert.False(t, b.Allow(), "Breaker should stay open before the reset delay elapses")

	clock.Advance(2 * time.Second)
	assert.True(t, b.Allow(), "Breaker should admit a probe after the reset delay")
	assert.Equal(t, StateHalfOpen, b.State(), "Breaker should be half-open while probing")

	// Exactly one probe is admitted
	assert.False(t, b.Allow(), "Half-open breaker should admit only one probe at a time")

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State(), "Probe success should close the breaker")
	assert.Equal(t, 0, b.Failures(), "Probe success should reset the failure counter")
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	b := NewBreaker("test", 5, 30*time.Second).WithClock(clock.Now)

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	clock.Advance(31 * time.Second)
	require.True(t, b.Allow())
	require.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State(), "Probe failure should reopen the breaker")

	clock.Advance(29 * time.Second)
	assert.False(t, b.Allow(), "Reopened breaker should wait a full reset delay again")
}

func TestBreaker_ManualReset(t *testing.T) {
	b := NewBreaker("test", 2, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State(), "Reset should close the breaker")
	assert.Equal(t, 0, b.Failures())
	assert.True(t, b.Allow())
}

func TestBreaker_TripCallback(t *testing.T) {
	tripped := make(chan int, 1)
	b := NewBreaker("test", 2, 30*time.Second).WithTripCallback(func(name string, failures int) {
		tripped <- failures
	})

	b.RecordFailure()
	b.RecordFailure()

	select {
	case failures := <-tripped:
		assert.Equal(t, 2, failures, "Callback should report the failure count at trip time")
	case <-time.After(time.Second):
		t.Fatal("trip callback was not invoked")
	}
}
