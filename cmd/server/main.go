package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/ledgerlens/service/config"
	"github.com/brojonat/ledgerlens/service/contract"
	"github.com/brojonat/ledgerlens/service/market"
	"github.com/brojonat/ledgerlens/service/metrics"
	"github.com/brojonat/ledgerlens/service/nats"
	"github.com/brojonat/ledgerlens/service/server"
	"github.com/brojonat/ledgerlens/service/solana"
	"github.com/prometheus/client_golang/prometheus"
)

// version is set via ldflags during build.
var version = "dev"

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"rpc_endpoints", len(cfg.SolanaRPCURLs),
	)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Endpoint discovery is deferred to the first lookup
	provider := solana.NewProvider(cfg.SolanaRPCURLs, solana.RPCHealthProbe, m, logger)
	normalizer := contract.NewNormalizer(contract.ProviderSource(provider), cfg.TransactionLimit, m, logger)

	marketClient := market.NewClient(cfg.MarketAPIURL, &http.Client{Timeout: cfg.MarketTimeout}, m, logger)

	// NATS is optional; without it lookups are simply not announced
	var publisher nats.Publisher
	if cfg.NATSURL != "" {
		jsPublisher, err := nats.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			logger.Error("failed to initialize NATS publisher", "error", err)
			os.Exit(1)
		}
		defer jsPublisher.Close()
		publisher = jsPublisher
	} else {
		logger.Info("NATS_URL not set, lookup events disabled")
	}

	httpServer := server.New(cfg, normalizer, marketClient, publisher, m, logger).WithVersion(version)
	if err := httpServer.WithTemplates(); err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
