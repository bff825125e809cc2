package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/batch-picker/internal/application"
	"github.com/eugenenazirov/batch-picker/internal/config"
	"github.com/eugenenazirov/batch-picker/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("batch-picker", "Batch Picker - selects inventory packages summing exactly to an order quantity")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	batchesStr := kingpinApp.Flag("batches", "Comma-separated initial batches as SIZExCOUNT, in search order").String()
	windowFlag := kingpinApp.Flag("window", "Pruning window (set -1 to keep the configured value)").Default("-1").Int()
	logLevel := kingpinApp.Flag("log-level", "Minimum log level").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *batchesStr != "" {
		overrides.BatchesStr = batchesStr
	}

	if *windowFlag >= 0 {
		overrides.Window = windowFlag
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(logging.WithLevel(cfg.LogLevel))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	if err := shutdown(app.Server(), cfg.ShutdownGracePeriod, logger); err != nil {
		logger.Error("server stopped uncleanly", zap.Error(err))
	}
}

// shutdown blocks until a termination signal arrives, then drains in-flight searches for at
// most grace before closing the listener outright.
func shutdown(server *http.Server, grace time.Duration, logger *zap.Logger) error {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("shutting down server",
		zap.Stringer("signal", sig),
		zap.Duration("grace_period", grace),
	)

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			return fmt.Errorf("force close: %w", closeErr)
		}
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
