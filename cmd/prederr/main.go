package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inf-covid19/prederr/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	input := flag.String("input", "", "input series (.json or .csv, optionally .gz/.zst)")
	metric := flag.String("metric", "", "metric to backtest: cases or deaths")
	threshold := flag.Int("threshold", 0, "held-out days; overrides backtest.thresholds")
	baseIndex := flag.Int("base-index", -1, "warm-up days and output length cap")
	outDir := flag.String("out", "", "output directory")
	flag.Parse()

	// Load configuration (before logger, so log level/format can be configured).
	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags win over file and environment values.
	if *input != "" {
		v.Set("input.path", *input)
	}
	if *metric != "" {
		v.Set("backtest.metric", *metric)
	}
	if *threshold != 0 {
		v.Set("backtest.thresholds", []int{*threshold})
	}
	if *baseIndex >= 0 {
		v.Set("backtest.base_index", *baseIndex)
	}
	if *outDir != "" {
		v.Set("output.dir", *outDir)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	configLog := logger.Named("config")
	if f := v.ConfigFileUsed(); f != "" {
		configLog.Info("configuration loaded", zap.String("source", f))
	} else {
		configLog.Info("no configuration file found, using defaults and flags")
	}

	settings, err := config.Decode(v)
	if err != nil {
		configLog.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings, logger); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}
