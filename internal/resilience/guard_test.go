package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testOptions() Options {
	return Options{
		FailureThreshold: 2,
		ResetDelay:       30 * time.Second,
		CallTimeout:      time.Second,
		CacheTTL:         60 * time.Second,
	}
}

func TestGuard_LiveFetchCachesValue(t *testing.T) {
	clock := newFakeClock()
	g := NewGuard[string]("test", testOptions(), nil).WithClock(clock.Now)

	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		return "live", nil
	}

	res := g.Do(context.Background(), "k", fetch)
	require.False(t, res.Degraded, "Successful fetch should not be degraded")
	assert.Equal(t, "live", res.Value)

	// Second call within the TTL should be served from cache
	res = g.Do(context.Background(), "k", fetch)
	assert.Equal(t, "live", res.Value)
	assert.False(t, res.Degraded, "Fresh cache hits are not degraded")
	assert.Equal(t, 1, calls, "Fresh cache should prevent a second source call")

	// Past the TTL the source is called again
	clock.Advance(61 * time.Second)
	res = g.Do(context.Background(), "k", fetch)
	assert.Equal(t, 2, calls, "Expired cache should trigger a fresh fetch")
	assert.False(t, res.Degraded)
}

func TestGuard_FailureServesStaleCache(t *testing.T) {
	clock := newFakeClock()
	g := NewGuard[string]("test", testOptions(), nil).WithClock(clock.Now)

	g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "old", nil
	})
	clock.Advance(61 * time.Second)

	res := g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "", errors.New("source down")
	})
	assert.True(t, res.Degraded, "Serving the stale cache counts as degraded")
	assert.Equal(t, "old", res.Value, "Stale cached value should be served on failure")
	assert.Contains(t, res.Reason, "stale cache")
}

func TestGuard_FailureWithoutCacheServesFallback(t *testing.T) {
	g := NewGuard[string]("test", testOptions(), func(key string) string {
		return "fallback-" + key
	})

	res := g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "", errors.New("source down")
	})
	assert.True(t, res.Degraded)
	assert.Equal(t, "fallback-k", res.Value, "Fallback should be served when no cache exists")
	assert.Contains(t, res.Reason, "fallback")
}

func TestGuard_OpenCircuitSkipsSource(t *testing.T) {
	clock := newFakeClock()
	g := NewGuard[string]("test", testOptions(), func(string) string {
		return "fb"
	}).WithClock(clock.Now)

	failing := func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	}
	g.Do(context.Background(), "k", failing)
	g.Do(context.Background(), "k", failing)
	require.Equal(t, StateOpen, g.Breaker().State(), "Two failures should trip a threshold-2 breaker")

	calls := 0
	res := g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		calls++
		return "live", nil
	})
	assert.Equal(t, 0, calls, "Open circuit must not call the source")
	assert.True(t, res.Degraded)
	assert.Equal(t, "fb", res.Value)

	// After the reset delay the probe goes through and closes the circuit
	clock.Advance(31 * time.Second)
	res = g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		calls++
		return "live", nil
	})
	assert.Equal(t, 1, calls, "Probe call should reach the source after the reset delay")
	assert.False(t, res.Degraded)
	assert.Equal(t, StateClosed, g.Breaker().State())
	assert.Equal(t, 0, g.Breaker().Failures())
}

func TestGuard_TimeoutDegrades(t *testing.T) {
	opts := testOptions()
	opts.CallTimeout = 20 * time.Millisecond
	g := NewGuard[string]("test", opts, func(string) string {
		return "fb"
	})

	res := g.Do(context.Background(), "k", func(ctx context.Context) (string, error) {
		select {
		case <-time.After(time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	assert.True(t, res.Degraded, "A timed-out call degrades to the fallback")
	assert.Equal(t, "fb", res.Value)
	assert.Equal(t, 1, g.Breaker().Failures(), "Timeouts count as source failures")
}

func TestGuard_SourceFailureRecordedOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "evaluate")

	g := NewGuard[string]("test", testOptions(), func(string) string {
		return "fb"
	})
	g.Do(ctx, "k", func(ctx context.Context) (string, error) {
		return "", errors.New("source down")
	})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	found := false
	for _, ev := range spans[0].Events() {
		if ev.Name == "exception" {
			found = true
		}
	}
	assert.True(t, found, "Source failures should be recorded on the active span")
}

func TestGuard_CallerCancellationDoesNotCountAsFailure(t *testing.T) {
	g := NewGuard[string]("test", testOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.Do(ctx, "k", func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	})
	assert.True(t, res.Degraded)
	assert.Equal(t, 0, g.Breaker().Failures(), "Caller cancellation must not push the breaker toward open")
}
