package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ducminhle1904/dema-futures-bot/internal/bot"
	"github.com/ducminhle1904/dema-futures-bot/internal/config"
	"github.com/ducminhle1904/dema-futures-bot/internal/exchange"
	"github.com/ducminhle1904/dema-futures-bot/internal/logger"
	"github.com/ducminhle1904/dema-futures-bot/internal/monitoring"
	"github.com/ducminhle1904/dema-futures-bot/internal/notifications"
	"github.com/ducminhle1904/dema-futures-bot/pkg/data"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configFile = flag.String("config", "", "TOML configuration file (optional)")
		envFile    = flag.String("env", ".env", "Environment file path")
		dryRun     = flag.Bool("dry-run", false, "Paper trade against live prices, no real orders")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dryRun {
		cfg.Trading.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Bot stopped: %v", err)
	}
}

func run(cfg *config.Config) error {
	botLogger, err := logger.NewLogger(cfg.Strategy.Symbol, cfg.Strategy.Interval, logger.Options{
		Dir:    cfg.Logging.Dir,
		Stdout: cfg.Logging.Stdout,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer botLogger.Close()

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	trader, err := bot.NewTrader(traderConfig(cfg), gateway, botLogger)
	if err != nil {
		return fmt.Errorf("failed to create trader: %w", err)
	}

	health := monitoring.NewHealthChecker(3 * cfg.Trading.SleepInterval.Duration)
	trader.SetHealthChecker(health)
	if cfg.Notifications.Enabled() {
		trader.SetNotifier(notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID, "DEMA Bot "+cfg.Strategy.Symbol))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Monitoring.Enabled {
		server := monitoring.NewServer(cfg.Monitoring.Port, health)
		botLogger.Info("Metrics and health on :%d", cfg.Monitoring.Port)
		g.Go(func() error {
			return server.Run(ctx)
		})
	}
	g.Go(func() error {
		// the trader returning ends the monitoring server too
		defer stop()
		return trader.Run(ctx)
	})

	return g.Wait()
}

// newGateway builds the configured exchange gateway. A dry run wraps it in a
// paper gateway so prices stay live while orders never leave the process.
// The paper exchange replays backtest.data_file when one is configured.
func newGateway(cfg *config.Config) (exchange.Gateway, error) {
	gateway, err := exchange.NewGateway(cfg.GatewayConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s gateway: %w", cfg.Exchange.Name, err)
	}

	if paper, isPaper := gateway.(*exchange.PaperGateway); isPaper {
		if cfg.Backtest.DataFile == "" {
			return paper, nil
		}
		closes, err := data.NewCSVProvider().LoadCloses(cfg.Backtest.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load paper prices: %w", err)
		}
		return exchange.NewPaperGateway(closes), nil
	}

	if cfg.Trading.DryRun {
		return exchange.NewPaperGatewayWithSource(gateway), nil
	}
	return gateway, nil
}

func traderConfig(cfg *config.Config) bot.Config {
	return bot.Config{
		Symbol:             cfg.Strategy.Symbol,
		Interval:           cfg.Strategy.Interval,
		Window:             cfg.Strategy.Window,
		Threshold:          cfg.Strategy.Threshold,
		ProfitThreshold:    cfg.Strategy.ProfitThreshold,
		Quantity:           cfg.Trading.Quantity,
		OrderType:          cfg.OrderType(),
		SleepInterval:      cfg.Trading.SleepInterval.Duration,
		Lookback:           cfg.Trading.Lookback.Duration,
		RequestTimeout:     cfg.Exchange.RequestTimeout.Duration,
		PendingOrderCycles: cfg.Trading.PendingOrderCycles,
	}
}
