// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the marketplace API.
type Config struct {
	ServerAddress string
	PostgresConn  string

	CacheTTL        time.Duration
	CacheMaxEntries int
	// CacheSweepInterval is a cron spec, e.g. "@every 1m".
	CacheSweepInterval string

	DevMode bool
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	conn := os.Getenv("POSTGRES_CONN")
	if conn == "" {
		return nil, fmt.Errorf("POSTGRES_CONN is required")
	}

	address := os.Getenv("SERVER_ADDRESS")
	if address == "" {
		address = "0.0.0.0:8080"
	}

	ttlSeconds, err := intEnv("CACHE_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("CACHE_TTL_SECONDS should be positive")
	}

	maxEntries, err := intEnv("CACHE_MAX_ENTRIES", 1000)
	if err != nil {
		return nil, err
	}
	if maxEntries <= 0 {
		return nil, fmt.Errorf("CACHE_MAX_ENTRIES should be positive")
	}

	sweep := os.Getenv("CACHE_SWEEP_INTERVAL")
	if sweep == "" {
		sweep = "@every 1m"
	}

	return &Config{
		ServerAddress:      address,
		PostgresConn:       conn,
		CacheTTL:           time.Duration(ttlSeconds) * time.Second,
		CacheMaxEntries:    maxEntries,
		CacheSweepInterval: sweep,
		DevMode:            os.Getenv("DEV_MODE") == "true",
	}, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s should be an integer: %w", name, err)
	}

	return v, nil
}
