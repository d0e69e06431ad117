package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_FreshWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewCache[float64](60 * time.Second).WithClock(clock.Now)

	c.Put("eth", 3021.5)

	clock.Advance(59 * time.Second)
	v, ok := c.Get("eth")
	require.True(t, ok, "Value should be fresh 59s after a 60s-TTL write")
	assert.Equal(t, 3021.5, v, "Cached value should be returned unchanged")
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewCache[float64](60 * time.Second).WithClock(clock.Now)

	c.Put("eth", 3021.5)

	clock.Advance(61 * time.Second)
	_, ok := c.Get("eth")
	assert.False(t, ok, "Value should be stale 61s after a 60s-TTL write")

	v, ok := c.GetStale("eth")
	require.True(t, ok, "Stale values should remain retrievable for fallback serving")
	assert.Equal(t, 3021.5, v)
}

func TestCache_MissingKey(t *testing.T) {
	c := NewCache[string](time.Minute)

	_, ok := c.Get("absent")
	assert.False(t, ok)
	_, ok = c.GetStale("absent")
	assert.False(t, ok)
}

func TestCache_PutRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := NewCache[int](60 * time.Second).WithClock(clock.Now)

	c.Put("k", 1)
	clock.Advance(50 * time.Second)
	c.Put("k", 2)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("k")
	require.True(t, ok, "Second write should restart the TTL window")
	assert.Equal(t, 2, v)
}
