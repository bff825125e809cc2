package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/batch-picker/internal/config"
	"github.com/eugenenazirov/batch-picker/internal/inventory"
	"github.com/eugenenazirov/batch-picker/internal/logging"
	"github.com/eugenenazirov/batch-picker/internal/report"
	"github.com/eugenenazirov/batch-picker/internal/search"
)

const defaultTarget = "48000"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "picker: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	kingpinApp := kingpin.New("picker", "Finds package counts from inventory batches that sum exactly to an order quantity")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	batchesStr := kingpinApp.Flag("batches", "Comma-separated batches as SIZExCOUNT, in search order").String()
	targets := kingpinApp.Flag("target", "Order quantity to search for (repeatable)").Short('t').Default(defaultTarget).Ints()
	windowFlag := kingpinApp.Flag("window", "Pruning window (set -1 to keep the configured value)").Default("-1").Int()
	timeoutFlag := kingpinApp.Flag("timeout", "Upper bound for all searches (0 keeps the configured value)").Default("0s").Duration()
	logLevel := kingpinApp.Flag("log-level", "Minimum log level").String()

	if _, err := kingpinApp.Parse(args); err != nil {
		return err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *batchesStr != "" {
		overrides.BatchesStr = batchesStr
	}
	if *windowFlag >= 0 {
		overrides.Window = windowFlag
	}
	if *timeoutFlag > 0 {
		overrides.SearchTimeout = timeoutFlag
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(logging.WithEncoding("console"), logging.WithLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	catalog, err := inventory.Load(cfg.Batches)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SearchTimeout)
	defer cancel()

	engine := search.New(search.WithLogger(logger))
	start := time.Now()
	results, err := engine.SearchMany(ctx, catalog, *targets, cfg.Window, runtime.GOMAXPROCS(0))
	if err != nil {
		return err
	}
	logger.Debug("searches finished",
		zap.Int("targets", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)

	for i, res := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(stdout); err != nil {
				return err
			}
		}
		if err := report.Header(stdout, catalog, res.Target); err != nil {
			return err
		}
		if err := report.Write(stdout, catalog, res); err != nil {
			return err
		}
	}
	return nil
}
