package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/effectsync/internal/config"
	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/entity"
	"github.com/udisondev/effectsync/internal/protocol"
	"github.com/udisondev/effectsync/internal/replication"
	"github.com/udisondev/effectsync/internal/telemetry"
	"github.com/udisondev/effectsync/internal/tick"
	"github.com/udisondev/effectsync/internal/world"
)

const (
	ConfigPath = "config/effectsync.yaml"
	Version    = "0.1.0"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("EFFECTSYNC_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("effectsync starting",
		"version", Version,
		"log_level", cfg.LogLevel,
		"tick_interval", cfg.TickInterval,
		"view_distance", cfg.ViewDistance,
		"compression_threshold", cfg.CompressionThreshold)

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Metrics.Enabled,
		Endpoint:       cfg.Metrics.Endpoint,
		Insecure:       cfg.Metrics.Insecure,
		Interval:       cfg.Metrics.Interval,
		ServiceVersion: Version,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	store := entity.NewStore()
	broadcaster := world.NewChunkBroadcaster(cfg.ViewDistance)

	sched, err := replication.NewScheduler(store, broadcaster, replication.Config{
		ExpireEvery: cfg.ExpireEvery,
		ResyncEvery: cfg.ResyncEvery,
		Workers:     cfg.Workers,
	}, replication.WithMeter(tel.Meter()))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	framer := protocol.NewFramer(cfg.CompressionThreshold)
	load := newBench(cfg.Bench, framer, store, broadcaster, sched, effect.DefaultRegistry())
	if err := load.populate(); err != nil {
		return fmt.Errorf("populating bench world: %w", err)
	}
	slog.Info("bench world ready",
		"entities", store.Len(),
		"observers", broadcaster.Len(),
		"effects_per_tick", cfg.Bench.EffectsPerTick)

	clock := tick.NewManager(cfg.TickInterval)
	clock.Register("bench", load.step)
	clock.Register("replication", sched.Tick)

	if cfg.Bench.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Bench.Duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting tick loop", "interval", cfg.TickInterval)
		if err := clock.Start(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("tick loop: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	stats := sched.Stats()
	slog.Info("effectsync stopped",
		"ticks", clock.Now(),
		"overruns", clock.Overruns(),
		"packets", stats.Packets,
		"deliveries", stats.Deliveries,
		"errors", stats.Errors,
		"bytes", load.bytesDelivered(),
		"granted", load.granted.Load(),
		"despawned", load.despawned.Load())

	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
