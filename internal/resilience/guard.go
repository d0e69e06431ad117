package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/stableroute-engine/internal/otel"
)

// Result is the structured outcome of a guarded call. Degraded marks values
// that came from the cache or a hardcoded fallback instead of a live fetch,
// with Reason explaining why, so callers can see which sub-results were live.
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

// Options configures a Guard.
type Options struct {
	// FailureThreshold is the consecutive-failure count that trips the breaker
	FailureThreshold int

	// ResetDelay is how long the breaker stays open before probing
	ResetDelay time.Duration

	// CallTimeout bounds each call to the underlying source
	CallTimeout time.Duration

	// CacheTTL is the freshness window for cached values
	CacheTTL time.Duration
}

// Guard decorates one external source with a circuit breaker, a TTL cache and
// a fallback. Do never blocks past its timeout and never returns an error:
// every failure path degrades to a cached or fallback value.
type Guard[T any] struct {
	name     string
	breaker  *Breaker
	cache    *Cache[T]
	timeout  time.Duration
	fallback func(key string) T
}

// NewGuard wraps the named source. fallback supplies the hardcoded value used
// when neither a live fetch nor a cached value is available.
func NewGuard[T any](name string, opts Options, fallback func(key string) T) *Guard[T] {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 1500 * time.Millisecond
	}
	return &Guard[T]{
		name:     name,
		breaker:  NewBreaker(name, opts.FailureThreshold, opts.ResetDelay),
		cache:    NewCache[T](opts.CacheTTL),
		timeout:  opts.CallTimeout,
		fallback: fallback,
	}
}

// WithClock sets a custom clock on both the breaker and the cache. Used by tests.
func (g *Guard[T]) WithClock(now func() time.Time) *Guard[T] {
	g.breaker.WithClock(now)
	g.cache.WithClock(now)
	return g
}

// Name returns the name of the guarded source.
func (g *Guard[T]) Name() string {
	return g.name
}

// Breaker exposes the underlying circuit breaker for status reporting.
func (g *Guard[T]) Breaker() *Breaker {
	return g.breaker
}

// Do executes call under the guard. Fresh cached values are served without
// touching the source; otherwise the source is called under the per-call
// timeout, feeding the breaker with the outcome. On any failure the guard
// serves the stale cache, then the fallback.
func (g *Guard[T]) Do(ctx context.Context, key string, call func(ctx context.Context) (T, error)) Result[T] {
	if v, ok := g.cache.Get(key); ok {
		return Result[T]{Value: v}
	}

	if !g.breaker.Allow() {
		logrus.WithField("source", g.name).Debug("Circuit open, serving degraded value")
		return g.degrade(key, ErrCircuitOpen)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	v, err := call(callCtx)
	if err != nil {
		// Caller-initiated cancellation is not a source fault; do not let it
		// push the breaker toward open.
		if errors.Is(ctx.Err(), context.Canceled) {
			return g.degrade(key, err)
		}
		g.breaker.RecordFailure()
		otel.RecordError(ctx, err)
		logrus.WithFields(logrus.Fields{
			"source": g.name,
			"key":    key,
		}).Warnf("Source call failed: %v", err)
		return g.degrade(key, err)
	}

	g.breaker.RecordSuccess()
	g.cache.Put(key, v)
	return Result[T]{Value: v}
}

// degrade resolves the best available substitute value for key.
func (g *Guard[T]) degrade(key string, cause error) Result[T] {
	if v, ok := g.cache.GetStale(key); ok {
		return Result[T]{Value: v, Degraded: true, Reason: "stale cache: " + cause.Error()}
	}
	var v T
	if g.fallback != nil {
		v = g.fallback(key)
	}
	return Result[T]{Value: v, Degraded: true, Reason: "fallback: " + cause.Error()}
}
