package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	HTTP              time.Duration // Timeout for API metadata requests
	Download          time.Duration // Timeout for a whole archive download
	Lookup            time.Duration // Timeout for the public address lookup
	RetryMaxAttempts  int           // Retries of the release metadata request (0 = none)
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - STACKPROV_TIMEOUT_HTTP (default: 30s)
//   - STACKPROV_TIMEOUT_DOWNLOAD (default: 10m)
//   - STACKPROV_TIMEOUT_LOOKUP (default: 10s)
//   - STACKPROV_RETRY_MAX_ATTEMPTS (default: 0)
//   - STACKPROV_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		HTTP:              parseDuration("STACKPROV_TIMEOUT_HTTP", 30*time.Second),
		Download:          parseDuration("STACKPROV_TIMEOUT_DOWNLOAD", 10*time.Minute),
		Lookup:            parseDuration("STACKPROV_TIMEOUT_LOOKUP", 10*time.Second),
		RetryMaxAttempts:  parseInt("STACKPROV_RETRY_MAX_ATTEMPTS", 0),
		RetryInitialDelay: parseDuration("STACKPROV_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}

	return i
}
