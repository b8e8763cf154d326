package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ngoudry/coinche/internal/room"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coinched.hcl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	if config.Server.ListenAddr != "localhost:8080" {
		t.Errorf("expected default listen addr, got %q", config.Server.ListenAddr)
	}
	if config.Rooms.TargetScore != 1000 {
		t.Errorf("expected default target score 1000, got %d", config.Rooms.TargetScore)
	}
	if config.Bots.OpenProbability != 0.2 {
		t.Errorf("expected default open probability 0.2, got %v", config.Bots.OpenProbability)
	}
}

func TestLoadConfigOverridesAndBackfills(t *testing.T) {
	path := writeConfig(t, `
server {
  listen_addr       = "0.0.0.0:9000"
  log_format        = "json"
  heartbeat_seconds = 5
}

rooms {
  target_score         = 500
  turn_timeout_seconds = 30
  visibility           = "private"
}
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if config.Server.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("expected overridden listen addr, got %q", config.Server.ListenAddr)
	}
	// log_level was omitted inside a present block and backfills.
	if config.Server.LogLevel != "info" {
		t.Errorf("expected backfilled log level, got %q", config.Server.LogLevel)
	}
	if config.Server.HeartbeatInterval() != 5*time.Second {
		t.Errorf("expected 5s heartbeat, got %v", config.Server.HeartbeatInterval())
	}

	defaults := config.Rooms.RoomDefaults()
	if defaults.TargetScore != 500 || defaults.TurnTimeout != 30*time.Second || defaults.Visibility != room.VisibilityPrivate {
		t.Errorf("unexpected room defaults: %+v", defaults)
	}

	// The bots block was absent entirely.
	driver := config.Bots.DriverConfig()
	if driver.MinDelay != time.Second || driver.MaxDelay != 2*time.Second {
		t.Errorf("expected default bot delays, got %+v", driver)
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, `server { listen_addr = `)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.Server.LogFormat = "xml" }},
		{"zero heartbeat", func(c *Config) { c.Server.HeartbeatSeconds = 0 }},
		{"negative timeout", func(c *Config) { c.Rooms.TurnTimeoutSeconds = -1 }},
		{"bad visibility", func(c *Config) { c.Rooms.Visibility = "hidden" }},
		{"inverted delays", func(c *Config) { c.Bots.MinDelayMs = 500; c.Bots.MaxDelayMs = 100 }},
		{"probability above one", func(c *Config) { c.Bots.OpenProbability = 1.5 }},
		{"open value below minimum", func(c *Config) { c.Bots.OpenValue = 70 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
