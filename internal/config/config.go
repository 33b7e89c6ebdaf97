package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port          string
	UpstreamURL   string
	SessionSecret string
	DatabaseURL   string // optional; durable sessions fall back to memory when empty
	PollInterval  time.Duration
	DevMode       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:         "8080", // default port
		PollInterval: 5 * time.Minute,
	}

	// Load UPSTREAM_URL (required) — base URL of the backoffice REST API
	upstream := os.Getenv("UPSTREAM_URL")
	if upstream == "" {
		return nil, fmt.Errorf("UPSTREAM_URL environment variable is required")
	}
	if _, err := url.Parse(upstream); err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}
	cfg.UpstreamURL = upstream

	// Load SESSION_SECRET (required)
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	cfg.SessionSecret = secret

	// Load PORT (optional, defaults to 8080)
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// Load DATABASE_URL (optional). Without it "remember me" sessions do not
	// survive a restart.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	} else {
		log.Printf("DATABASE_URL not set; durable sessions kept in memory")
	}

	// Load POLL_INTERVAL (optional, defaults to 5m)
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}

	// Load DEV_MODE (optional, defaults to false)
	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	return cfg, nil
}
