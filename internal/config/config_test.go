package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://yields.llama.fi", cfg.YieldsURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.SourceTimeout)
	assert.Equal(t, 4*time.Second, cfg.RequestDeadline)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.BreakerResetDelay)
	assert.Equal(t, time.Minute, cfg.PriceTTL)
	assert.Equal(t, 5*time.Minute, cfg.PoolTTL)
	assert.Equal(t, 24*time.Hour, cfg.MetadataTTL)
	assert.Equal(t, 0.3, cfg.GasSmoothing)
	assert.False(t, cfg.SigningEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SOURCE_TIMEOUT", "2s")
	t.Setenv("FAILURE_THRESHOLD", "3")
	t.Setenv("API_KEYS", `{"bridge":"abc123"}`)
	t.Setenv("RPC_ENDPOINTS", `{"ethereum":"https://rpc.example.com"}`)

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 3, cfg.FailureThreshold)
	assert.Equal(t, "abc123", cfg.APIKeys["bridge"])
	assert.Equal(t, "https://rpc.example.com", cfg.RPCEndpoints["ethereum"])
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, GetEnvAsInt("TEST_INT", 7))
	assert.Equal(t, 7, GetEnvAsInt("TEST_INT_MISSING", 7))

	t.Setenv("TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 7, GetEnvAsInt("TEST_INT_BAD", 7))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, GetEnvAsDuration("TEST_DUR", time.Minute))
	assert.Equal(t, time.Minute, GetEnvAsDuration("TEST_DUR_MISSING", time.Minute))

	t.Setenv("TEST_DUR_BAD", "soon")
	assert.Equal(t, time.Minute, GetEnvAsDuration("TEST_DUR_BAD", time.Minute))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	assert.True(t, GetEnvAsBool("TEST_BOOL", false))
	assert.False(t, GetEnvAsBool("TEST_BOOL_MISSING", false))
}
