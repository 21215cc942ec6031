// Package config reads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything the server needs to start.
type Config struct {
	Port              string
	DBPath            string
	RecomputeInterval time.Duration
	SeedOnEmpty       bool
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		DBPath:            getenv("DB_PATH", "wallclub.db"),
		RecomputeInterval: 5 * time.Minute,
		SeedOnEmpty:       getenv("SEED_ON_EMPTY", "true") == "true",
	}

	if v := os.Getenv("RECOMPUTE_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RecomputeInterval = time.Duration(n) * time.Second
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
