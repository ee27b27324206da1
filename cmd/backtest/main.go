package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/internal/config"
)

const (
	modeBacktest = "backtest"
	modeOptimize = "optimize"
)

func main() {
	var (
		configFile  = flag.String("config", "", "TOML configuration file (optional)")
		envFile     = flag.String("env", ".env", "Environment file path")
		mode        = flag.String("mode", modeOptimize, "backtest (single run) or optimize (grid search)")
		dataFile    = flag.String("data", "", "CSV file with closes or OHLCV candles (overrides backtest.data_file)")
		symbol      = flag.String("symbol", "", "Trading symbol (overrides strategy.symbol)")
		interval    = flag.String("interval", "", "Candle interval (overrides strategy.interval)")
		window      = flag.Int("window", 0, "DEMA window for -mode backtest (overrides strategy.window)")
		threshold   = flag.Float64("threshold", -1, "Buy threshold for -mode backtest (overrides strategy.threshold)")
		workers     = flag.Int("workers", 0, "Optimizer workers (0 = one per CPU)")
		download    = flag.Bool("download", false, "Download closes through the configured exchange before running")
		period      = flag.Duration("period", 24*time.Hour, "Trailing period to download with -download")
		outPath     = flag.String("out", "", "Excel export path (default results/<SYMBOL>_<interval>/<mode>.xlsx)")
		consoleOnly = flag.Bool("console-only", false, "Only print results, do not write files")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dataFile != "" {
		cfg.Backtest.DataFile = *dataFile
	}
	if *symbol != "" {
		cfg.Strategy.Symbol = *symbol
	}
	if *interval != "" {
		cfg.Strategy.Interval = *interval
	}
	if *window > 0 {
		cfg.Strategy.Window = *window
	}
	if *threshold >= 0 {
		cfg.Strategy.Threshold = *threshold
	}
	if *workers > 0 {
		cfg.Backtest.Workers = *workers
	}
	if *outPath != "" {
		cfg.Backtest.ExportPath = *outPath
	}

	// offline runs never place orders
	cfg.Trading.DryRun = true
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		Mode:        *mode,
		Download:    *download,
		Period:      *period,
		ConsoleOnly: *consoleOnly,
	}
	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
