package main

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Helper functions for environment variables outside the main config surface

// getDurationOrDefault parses a duration from an environment variable or returns the default
func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		} else {
			logrus.Warnf("Invalid duration in %s: %v, using default: %v", key, err, defaultValue)
		}
	}
	return defaultValue
}

// getEnvInt parses an integer from an environment variable or returns the default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			logrus.Warnf("Invalid integer in %s: %v, using default: %v", key, err, defaultValue)
		}
	}
	return defaultValue
}
