package main

import (
	"context"
	"errors"
	"time"

	rand "math/rand/v2"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/ngoudry/coinche/cmd/coinched/shared"
	"github.com/ngoudry/coinche/internal/bot"
	"github.com/ngoudry/coinche/internal/events"
	"github.com/ngoudry/coinche/internal/randutil"
	"github.com/ngoudry/coinche/internal/room"
	"github.com/ngoudry/coinche/internal/server"
)

// ServeCmd runs the WebSocket gateway.
type ServeCmd struct {
	Config string `kong:"default='coinched.hcl',help='Path to the HCL configuration file'"`
	Addr   string `kong:"help='Override the configured listen address'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := zerolog.ParseLevel(cfg.Server.LogLevel)
	if c.Debug {
		level = zerolog.DebugLevel
	}
	var logger zerolog.Logger
	if cfg.Server.LogFormat == "json" {
		logger = shared.SetupStructuredLogger(level)
	} else {
		logger = shared.SetupLogger(level)
	}

	// Setup RNG and seed
	var rng *rand.Rand
	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
		rng = randutil.New(seed)
	} else {
		seed = time.Now().UnixNano()
		logger.Info().Int64("seed", seed).Msg("Using random seed")
		rng = randutil.New(seed)
	}

	clock := quartz.NewReal()
	dispatcher := events.NewDispatcher(clock, logger)
	driver := bot.NewDriver(clock, randutil.Derive(rng), cfg.Bots.DriverConfig(), logger)
	rooms := room.NewManager(
		room.WithDefaults(cfg.Rooms.RoomDefaults()),
		room.WithPublisher(dispatcher),
		room.WithDriver(driver),
		room.WithClock(clock),
		room.WithRNG(rng),
		room.WithLogger(logger),
	)

	addr := cfg.Server.ListenAddr
	if c.Addr != "" {
		addr = c.Addr
	}
	s := server.NewServer(addr, rooms, dispatcher, cfg.Server.HeartbeatInterval(), logger)

	logger.Info().
		Str("address", addr).
		Int("target_score", cfg.Rooms.TargetScore).
		Int("turn_timeout_seconds", cfg.Rooms.TurnTimeoutSeconds).
		Dur("heartbeat", cfg.Server.HeartbeatInterval()).
		Msg("Starting coinche server")

	// Setup graceful shutdown
	ctx := shared.SetupSignalHandler(logger)

	go func() {
		if err := dispatcher.RunHeartbeats(ctx, cfg.Server.HeartbeatInterval()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("heartbeat loop failed")
		}
	}()

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for shutdown or error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
		return s.Stop()
	case err := <-serverErr:
		return err
	}
}
