package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_UsesDefaults(t *testing.T) {
	t.Setenv("POSTGRID_API_BASE_URL", "")
	t.Setenv("POSTGRID_LISTEN_ADDR", "")
	t.Setenv("POSTGRID_ROW_HEIGHT", "")
	t.Setenv("POSTGRID_FRESH_FOR", "")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv returned error: %v", err)
	}

	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected API base URL: %s", cfg.APIBaseURL)
	}
	if cfg.RowHeight != defaultRowHeight {
		t.Fatalf("unexpected row height: %d", cfg.RowHeight)
	}
	if cfg.FreshFor != 5*time.Minute {
		t.Fatalf("unexpected freshness window: %s", cfg.FreshFor)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("POSTGRID_API_BASE_URL", "http://example.com:9000")
	t.Setenv("POSTGRID_ROW_HEIGHT", "7")
	t.Setenv("POSTGRID_TRIGGER_DISTANCE", "25")
	t.Setenv("POSTGRID_FRESH_FOR", "90s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://example.com:9000" {
		t.Fatalf("unexpected API base URL: %s", cfg.APIBaseURL)
	}
	if cfg.RowHeight != 7 || cfg.TriggerDistance != 25 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.FreshFor != 90*time.Second {
		t.Fatalf("unexpected freshness window: %s", cfg.FreshFor)
	}
}

func TestLoadFromEnv_BadInteger(t *testing.T) {
	t.Setenv("POSTGRID_ROW_HEIGHT", "tall")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for non-integer row height")
	}
}

func TestValidate_APIBaseURLTrailingSlash(t *testing.T) {
	cfg := Config{
		APIBaseURL:      "http://localhost:8484/",
		RowHeight:       5,
		Overscan:        2,
		TriggerDistance: 40,
		FreshFor:        time.Minute,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for trailing slash")
	}
}

func TestValidate_Bounds(t *testing.T) {
	base := Config{
		APIBaseURL:      "http://localhost:8484",
		RowHeight:       5,
		Overscan:        2,
		TriggerDistance: 40,
		FreshFor:        time.Minute,
	}

	cfg := base
	cfg.RowHeight = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero row height")
	}

	cfg = base
	cfg.Overscan = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative overscan")
	}

	cfg = base
	cfg.FreshFor = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero freshness window")
	}
}
