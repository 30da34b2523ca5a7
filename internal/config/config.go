// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the collector service.
type Config struct {
	Port              string
	DatabaseURL       string // optional; archival is disabled when empty
	RedisURL          string
	CareerOSURL       string // default CareerOS instance, overridable in settings
	ExtensionID       string
	ExtensionVersion  string
	SyncIntervalHours int // how often the background sync cron fires
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	interval := 6
	if s := os.Getenv("SYNC_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SYNC_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	careerOSURL := os.Getenv("CAREEROS_URL")
	if careerOSURL == "" {
		careerOSURL = "http://localhost:3000"
	}

	extensionID := os.Getenv("EXTENSION_ID")
	if extensionID == "" {
		extensionID = "career-os-extension"
	}

	extensionVersion := os.Getenv("EXTENSION_VERSION")
	if extensionVersion == "" {
		extensionVersion = "1.0.0"
	}

	port := os.Getenv("COLLECTOR_PORT")
	if port == "" {
		port = "8082"
	}

	return &Config{
		Port:              port,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          redisURL,
		CareerOSURL:       careerOSURL,
		ExtensionID:       extensionID,
		ExtensionVersion:  extensionVersion,
		SyncIntervalHours: interval,
	}, nil
}
