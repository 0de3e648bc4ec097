// Package main implements the entry point for the StreamPace replay service:
// it reads a JSONL recording and republishes its events to NATS and WebSocket
// consumers, paced by the configured strategy.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/streampace/component"
	"github.com/c360/streampace/config"
	"github.com/c360/streampace/health"
	"github.com/c360/streampace/input/jsonl"
	"github.com/c360/streampace/metric"
	"github.com/c360/streampace/natsclient"
	"github.com/c360/streampace/output/natspub"
	"github.com/c360/streampace/output/websocket"
	"github.com/c360/streampace/replayer"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "streampace"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI log level wins over config/env when given explicitly
	logLevel := cfg.LogLevel
	if cliCfg.LogLevel != "" {
		logLevel = cliCfg.LogLevel
	}
	logger := setupLogger(logLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	slog.Info("Starting StreamPace (time-paced event replay)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	ctx := context.Background()
	metricsRegistry := metric.NewMetricsRegistry()

	natsClient, err := connectNATS(ctx, cfg, metricsRegistry, logger)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer func() { _ = natsClient.Close(ctx) }()
	}

	deps := component.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
	}

	replay, err := buildReplayer(cfg, deps)
	if err != nil {
		return err
	}

	metricsServer := startMetricsServer(cfg, metricsRegistry)
	if metricsServer != nil {
		metricsServer.SetHealthFunc(healthReporter(replay))
		defer func() { _ = metricsServer.Stop() }()
	}

	return runWithSignalHandling(ctx, replay, cliCfg.ShutdownTimeout)
}

// connectNATS connects when the nats output is configured; other setups run
// without a broker.
func connectNATS(
	ctx context.Context,
	cfg *config.Config,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) (*natsclient.Client, error) {
	if _, ok := cfg.Outputs["nats"]; !ok {
		slog.Debug("No NATS output configured, skipping broker connection")
		return nil, nil
	}

	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(appName),
		natsclient.WithLogger(logger),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithMetrics(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connCtx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return client, nil
}

// buildReplayer assembles the source, the sinks, and the session around them
func buildReplayer(cfg *config.Config, deps component.Dependencies) (*replayer.Replayer, error) {
	source, err := jsonl.NewSource(cfg.Source, deps)
	if err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}

	var sinks []replayer.Sink
	if raw, ok := cfg.Outputs["nats"]; ok {
		pub, err := natspub.NewPublisher(raw, deps)
		if err != nil {
			return nil, fmt.Errorf("create nats output: %w", err)
		}
		sinks = append(sinks, pub)
	}
	if raw, ok := cfg.Outputs["websocket"]; ok {
		ws, err := websocket.NewBroadcaster(raw, deps)
		if err != nil {
			return nil, fmt.Errorf("create websocket output: %w", err)
		}
		sinks = append(sinks, ws)
	}

	replay, err := replayer.NewReplayer(cfg.Replay, source, sinks, deps)
	if err != nil {
		return nil, fmt.Errorf("create replayer: %w", err)
	}
	return replay, nil
}

// startMetricsServer serves /metrics and /health in the background
func startMetricsServer(cfg *config.Config, registry *metric.MetricsRegistry) *metric.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	go func() {
		slog.Info("Metrics server listening", "address", server.Address())
		if err := server.Start(); err != nil {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return server
}

// healthReporter polls the replay session on each /health request and
// serves the aggregated status
func healthReporter(replay *replayer.Replayer) metric.HealthFunc {
	monitor := health.NewMonitor()
	return func() (bool, []byte) {
		monitor.Observe(replay)
		agg := monitor.AggregateHealth(appName)
		body, err := json.Marshal(agg)
		if err != nil {
			return false, []byte(`{"healthy":false}`)
		}
		return !agg.IsUnhealthy(), body
	}
}

// runWithSignalHandling drives the replay session until it finishes or a
// shutdown signal arrives
func runWithSignalHandling(ctx context.Context, replay *replayer.Replayer, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := replay.Initialize(); err != nil {
		return fmt.Errorf("initialize replayer: %w", err)
	}
	if err := replay.Start(signalCtx); err != nil {
		return fmt.Errorf("start replayer: %w", err)
	}

	slog.Info("StreamPace started", "session_id", replay.SessionID())

	select {
	case <-replay.Done():
		if err := replay.Wait(); err != nil {
			_ = replay.Stop(shutdownTimeout)
			return fmt.Errorf("replay failed: %w", err)
		}
		slog.Info("Replay completed")
	case <-signalCtx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := replay.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("StreamPace shutdown complete")
	return nil
}
