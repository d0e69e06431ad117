// Package config provides configuration loading and management for the application.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Base URLs for the external data sources
	YieldsURL   string
	BridgeURL   string
	PriceURL    string
	SecurityURL string
	ScanURL     string

	// Per-chain JSON-RPC endpoints for fee history, keyed by chain name
	RPCEndpoints map[string]string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// API keys for various services
	APIKeys map[string]string

	// SourceTimeout bounds every individual source call
	SourceTimeout time.Duration

	// RequestDeadline bounds a whole route evaluation
	RequestDeadline time.Duration

	// Circuit breaker settings shared by all source guards
	FailureThreshold int
	BreakerResetDelay time.Duration

	// Cache TTLs per data class
	PriceTTL    time.Duration
	PoolTTL     time.Duration
	MetadataTTL time.Duration

	// Gas estimator tuning
	GasSmoothing    float64
	GasSafetyFactor float64
	GasMinSamples   int

	// Rate limiting for the HTTP boundary
	RateLimitRPS   float64
	RateLimitBurst int

	// Optional result signing and evaluation export
	SigningEnabled bool
	WebhookURL     string
	WebhookAPIKey  string
}

// Load creates a new Config from environment variables
func Load() Config {
	apiKeys := map[string]string{}
	if raw := os.Getenv("API_KEYS"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &apiKeys)
	}

	rpc := map[string]string{}
	if raw := os.Getenv("RPC_ENDPOINTS"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &rpc)
	}

	return Config{
		Port:        GetEnvOrDefault("PORT", "8080"),
		YieldsURL:   GetEnvOrDefault("YIELDS_URL", "https://yields.llama.fi"),
		BridgeURL:   GetEnvOrDefault("BRIDGE_URL", "https://li.quest/v1"),
		PriceURL:    GetEnvOrDefault("PRICE_URL", "https://coins.llama.fi"),
		SecurityURL: GetEnvOrDefault("SECURITY_URL", "https://api.l2beat.com"),
		ScanURL:     GetEnvOrDefault("SCAN_URL", "https://api.etherscan.io/api"),
		RPCEndpoints: rpc,
		OtelEndpoint: GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		APIKeys:      apiKeys,

		SourceTimeout:     GetEnvAsDuration("SOURCE_TIMEOUT", 1500*time.Millisecond),
		RequestDeadline:   GetEnvAsDuration("REQUEST_DEADLINE", 4*time.Second),
		FailureThreshold:  GetEnvAsInt("FAILURE_THRESHOLD", 5),
		BreakerResetDelay: GetEnvAsDuration("BREAKER_RESET_DELAY", 30*time.Second),

		PriceTTL:    GetEnvAsDuration("PRICE_TTL", time.Minute),
		PoolTTL:     GetEnvAsDuration("POOL_TTL", 5*time.Minute),
		MetadataTTL: GetEnvAsDuration("METADATA_TTL", 24*time.Hour),

		GasSmoothing:    GetEnvAsFloat("GAS_SMOOTHING", 0.3),
		GasSafetyFactor: GetEnvAsFloat("GAS_SAFETY_FACTOR", 1.5),
		GasMinSamples:   GetEnvAsInt("GAS_MIN_SAMPLES", 3),

		RateLimitRPS:   GetEnvAsFloat("RATE_LIMIT_RPS", 10.0),
		RateLimitBurst: GetEnvAsInt("RATE_LIMIT_BURST", 20),

		SigningEnabled: GetEnvAsBool("SIGNING_ENABLED", false),
		WebhookURL:     GetEnvOrDefault("WEBHOOK_URL", ""),
		WebhookAPIKey:  GetEnvOrDefault("WEBHOOK_API_KEY", ""),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
