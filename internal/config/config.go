package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultAPIBaseURL      = "http://localhost:8484"
	defaultListenAddr      = ":8484"
	defaultRowHeight       = 5
	defaultOverscan        = 2
	defaultTriggerDistance = 40
	defaultFreshFor        = 5 * time.Minute
)

// Config holds runtime settings for the client and the demo server.
type Config struct {
	APIBaseURL string
	ListenAddr string

	// RowHeight is the uniform per-row height estimate in terminal lines.
	RowHeight int
	// Overscan is how many extra rows render beyond the viewport on each side.
	Overscan int
	// TriggerDistance is the distance (in lines) from the content end at
	// which the next page fetch fires.
	TriggerDistance int
	// FreshFor is the detail cache freshness window.
	FreshFor time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		APIBaseURL:      os.Getenv("POSTGRID_API_BASE_URL"),
		ListenAddr:      os.Getenv("POSTGRID_LISTEN_ADDR"),
		RowHeight:       defaultRowHeight,
		Overscan:        defaultOverscan,
		TriggerDistance: defaultTriggerDistance,
		FreshFor:        defaultFreshFor,
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}

	var err error
	if cfg.RowHeight, err = intFromEnv("POSTGRID_ROW_HEIGHT", cfg.RowHeight); err != nil {
		return Config{}, err
	}
	if cfg.Overscan, err = intFromEnv("POSTGRID_OVERSCAN", cfg.Overscan); err != nil {
		return Config{}, err
	}
	if cfg.TriggerDistance, err = intFromEnv("POSTGRID_TRIGGER_DISTANCE", cfg.TriggerDistance); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv("POSTGRID_FRESH_FOR"); raw != "" {
		cfg.FreshFor, err = time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("POSTGRID_FRESH_FOR must be a duration: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("APIBaseURL is required")
	}
	if c.APIBaseURL[len(c.APIBaseURL)-1] == '/' {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	if c.RowHeight < 1 {
		return fmt.Errorf("RowHeight must be at least 1: %d", c.RowHeight)
	}
	if c.Overscan < 0 {
		return fmt.Errorf("Overscan must not be negative: %d", c.Overscan)
	}
	if c.TriggerDistance < 1 {
		return fmt.Errorf("TriggerDistance must be at least 1: %d", c.TriggerDistance)
	}
	if c.FreshFor <= 0 {
		return fmt.Errorf("FreshFor must be positive: %s", c.FreshFor)
	}
	return nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
