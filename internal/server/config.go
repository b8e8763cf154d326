package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/bot"
	"github.com/ngoudry/coinche/internal/room"
)

// Config is the coinched.hcl configuration. Every block is optional; a
// missing file yields the defaults.
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Rooms  *RoomSettings   `hcl:"rooms,block"`
	Bots   *BotSettings    `hcl:"bots,block"`
}

// ServerSettings is the server block.
type ServerSettings struct {
	ListenAddr       string `hcl:"listen_addr,optional"`
	LogLevel         string `hcl:"log_level,optional"`
	LogFormat        string `hcl:"log_format,optional"`
	HeartbeatSeconds int    `hcl:"heartbeat_seconds,optional"`
}

// RoomSettings is the rooms block: defaults applied to newly created
// rooms.
type RoomSettings struct {
	TargetScore        int    `hcl:"target_score,optional"`
	TurnTimeoutSeconds int    `hcl:"turn_timeout_seconds,optional"`
	Visibility         string `hcl:"visibility,optional"`
}

// BotSettings is the bots block.
type BotSettings struct {
	MinDelayMs      int     `hcl:"min_delay_ms,optional"`
	MaxDelayMs      int     `hcl:"max_delay_ms,optional"`
	OpenProbability float64 `hcl:"open_probability,optional"`
	OpenValue       int     `hcl:"open_value,optional"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerSettings{
			ListenAddr:       "localhost:8080",
			LogLevel:         "info",
			LogFormat:        "console",
			HeartbeatSeconds: 15,
		},
		Rooms: &RoomSettings{
			TargetScore: 1000,
			Visibility:  string(room.VisibilityPublic),
		},
		Bots: &BotSettings{
			MinDelayMs:      1000,
			MaxDelayMs:      2000,
			OpenProbability: 0.2,
			OpenValue:       belote.MinBid,
		},
	}
}

// LoadConfig reads an HCL configuration file. A missing file is not an
// error; absent blocks and fields take the defaults.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %s", path, diags.Error())
	}

	var config Config
	if diags := gohcl.DecodeBody(file.Body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %s", path, diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server == nil {
		config.Server = defaults.Server
	}
	if config.Rooms == nil {
		config.Rooms = defaults.Rooms
	}
	if config.Bots == nil {
		config.Bots = defaults.Bots
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.LogFormat == "" {
		config.Server.LogFormat = defaults.Server.LogFormat
	}
	if config.Server.HeartbeatSeconds == 0 {
		config.Server.HeartbeatSeconds = defaults.Server.HeartbeatSeconds
	}
	if config.Rooms.TargetScore == 0 {
		config.Rooms.TargetScore = defaults.Rooms.TargetScore
	}
	if config.Rooms.Visibility == "" {
		config.Rooms.Visibility = defaults.Rooms.Visibility
	}
	if config.Bots.MinDelayMs == 0 {
		config.Bots.MinDelayMs = defaults.Bots.MinDelayMs
	}
	if config.Bots.MaxDelayMs == 0 {
		config.Bots.MaxDelayMs = defaults.Bots.MaxDelayMs
	}
	if config.Bots.OpenProbability == 0 {
		config.Bots.OpenProbability = defaults.Bots.OpenProbability
	}
	if config.Bots.OpenValue == 0 {
		config.Bots.OpenValue = defaults.Bots.OpenValue
	}

	return &config, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server: listen_addr must be set")
	}
	if _, err := zerolog.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("server: invalid log_level %q", c.Server.LogLevel)
	}
	if c.Server.LogFormat != "console" && c.Server.LogFormat != "json" {
		return fmt.Errorf("server: invalid log_format %q", c.Server.LogFormat)
	}
	if c.Server.HeartbeatSeconds <= 0 {
		return fmt.Errorf("server: heartbeat_seconds must be positive")
	}

	if c.Rooms.TargetScore <= 0 {
		return fmt.Errorf("rooms: target_score must be positive")
	}
	if c.Rooms.TurnTimeoutSeconds < 0 {
		return fmt.Errorf("rooms: turn_timeout_seconds cannot be negative")
	}
	switch room.Visibility(c.Rooms.Visibility) {
	case room.VisibilityPublic, room.VisibilityPrivate:
	default:
		return fmt.Errorf("rooms: invalid visibility %q", c.Rooms.Visibility)
	}

	if c.Bots.MinDelayMs < 0 {
		return fmt.Errorf("bots: min_delay_ms cannot be negative")
	}
	if c.Bots.MaxDelayMs < c.Bots.MinDelayMs {
		return fmt.Errorf("bots: max_delay_ms must be at least min_delay_ms")
	}
	if c.Bots.OpenProbability < 0 || c.Bots.OpenProbability > 1 {
		return fmt.Errorf("bots: open_probability must be between 0 and 1")
	}
	if c.Bots.OpenValue < belote.MinBid {
		return fmt.Errorf("bots: open_value must be at least %d", belote.MinBid)
	}
	return nil
}

// HeartbeatInterval converts the configured cadence.
func (s *ServerSettings) HeartbeatInterval() time.Duration {
	return time.Duration(s.HeartbeatSeconds) * time.Second
}

// RoomDefaults maps the rooms block onto the registry defaults.
func (r *RoomSettings) RoomDefaults() room.Defaults {
	return room.Defaults{
		TargetScore: r.TargetScore,
		TurnTimeout: time.Duration(r.TurnTimeoutSeconds) * time.Second,
		Visibility:  room.Visibility(r.Visibility),
	}
}

// DriverConfig maps the bots block onto the driver configuration.
func (b *BotSettings) DriverConfig() bot.Config {
	return bot.Config{
		MinDelay:        time.Duration(b.MinDelayMs) * time.Millisecond,
		MaxDelay:        time.Duration(b.MaxDelayMs) * time.Millisecond,
		OpenProbability: b.OpenProbability,
		OpenValue:       b.OpenValue,
	}
}
