package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/internal/backtest"
	"github.com/ducminhle1904/dema-futures-bot/internal/config"
	"github.com/ducminhle1904/dema-futures-bot/internal/exchange"
	"github.com/ducminhle1904/dema-futures-bot/pkg/data"
	"github.com/ducminhle1904/dema-futures-bot/pkg/reporting"
)

type options struct {
	Mode        string
	Download    bool
	Period      time.Duration
	ConsoleOnly bool
}

// runner carries the state of one invocation
type runner struct {
	cfg  *config.Config
	opts options
	out  io.Writer
	now  func() time.Time

	source     data.CloseSource
	newGateway func(exchange.Config) (exchange.Gateway, error)
}

func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer) error {
	r := &runner{
		cfg:        cfg,
		opts:       opts,
		out:        out,
		now:        time.Now,
		source:     data.NewCSVProvider(),
		newGateway: exchange.NewGateway,
	}
	return r.run(ctx)
}

func (r *runner) run(ctx context.Context) error {
	switch r.opts.Mode {
	case modeBacktest, modeOptimize:
	default:
		return fmt.Errorf("unknown mode %q (use %s or %s)", r.opts.Mode, modeBacktest, modeOptimize)
	}

	if r.opts.Download {
		if err := r.download(ctx); err != nil {
			return err
		}
	}

	if r.cfg.Backtest.DataFile == "" {
		return fmt.Errorf("no data file: pass -data or -download")
	}
	closes, err := r.source.LoadCloses(r.cfg.Backtest.DataFile)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", r.cfg.Backtest.DataFile, err)
	}
	r.logInfo("Loaded %d closes from %s", len(closes), r.cfg.Backtest.DataFile)

	if r.opts.Mode == modeBacktest {
		return r.backtest(closes)
	}
	return r.optimize(ctx, closes)
}

// download fetches the trailing period and stores it as a single-column CSV
func (r *runner) download(ctx context.Context) error {
	gw, err := r.newGateway(r.cfg.GatewayConfig())
	if err != nil {
		return err
	}

	end := r.now()
	start := end.Add(-r.opts.Period)
	r.logInfo("Downloading %s %s from %s since %s", r.cfg.Strategy.Symbol, r.cfg.Strategy.Interval, gw.GetName(), start.Format(time.RFC3339))

	closes, err := data.DownloadCloses(ctx, gw, r.cfg.Strategy.Symbol, r.cfg.Strategy.Interval, start, end, data.DefaultBatchSize)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if r.cfg.Backtest.DataFile == "" {
		r.cfg.Backtest.DataFile = filepath.Join("data", fmt.Sprintf("%s_%s.csv", strings.ToUpper(r.cfg.Strategy.Symbol), r.cfg.Strategy.Interval))
	}
	if err := data.SaveCloses(r.cfg.Backtest.DataFile, closes); err != nil {
		return err
	}
	r.logSuccess("Saved %d closes to %s", len(closes), r.cfg.Backtest.DataFile)
	return nil
}

func (r *runner) engine() *backtest.BacktestEngine {
	return backtest.NewBacktestEngine(r.cfg.Backtest.InitialBalance)
}

func (r *runner) backtest(closes []float64) error {
	results, err := r.engine().Run(closes, r.cfg.Strategy.Window, r.cfg.Strategy.Threshold)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	console := reporting.NewConsoleReporter(r.out)
	console.OutputResults(results, r.cfg.Strategy.Symbol, r.cfg.Strategy.Interval)
	console.OutputTrades(results)

	if r.opts.ConsoleOnly {
		return nil
	}
	path := r.exportPath()
	if err := reporting.NewExcelReporter().WriteBacktestXLSX(results, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.logSuccess("Trades written to %s", path)
	return nil
}

func (r *runner) optimize(ctx context.Context, closes []float64) error {
	bt := r.cfg.Backtest
	windows := backtest.WindowRange(bt.WindowFrom, bt.WindowTo)
	thresholds := backtest.ThresholdSteps(bt.ThresholdStep, bt.ThresholdSteps)
	total := len(windows) * len(thresholds)
	r.logInfo("Optimizing %d candidates (windows %d-%d, %d thresholds)", total, bt.WindowFrom, bt.WindowTo-1, len(thresholds))

	opt := backtest.NewParameterOptimizer(r.engine(), bt.Workers)
	lastReported := 0
	opt.OnProgress(func(done, total int, eta time.Duration, _ backtest.Evaluation) {
		pct := done * 100 / total
		if pct >= lastReported+25 || done == total {
			lastReported = pct
			r.logProgress("%d/%d candidates (%d%%, ~%s left)", done, total, pct, eta.Round(time.Millisecond))
		}
	})

	started := r.now()
	result, err := opt.Optimize(ctx, closes, windows, thresholds)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	r.logInfo("Optimization finished in %s", r.now().Sub(started).Round(time.Millisecond))

	console := reporting.NewConsoleReporter(r.out)
	console.OutputOptimization(result)

	if !result.Found {
		r.logWarning("No candidate ended above zero")
	} else {
		fmt.Fprintf(r.out, "Best window: %d, best threshold: %g, final value: %.4f\n", result.BestWindow, result.BestThreshold, result.MaxValue)
	}

	if r.opts.ConsoleOnly {
		return nil
	}
	path := r.exportPath()
	if err := reporting.NewExcelReporter().WriteOptimizationXLSX(result, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.logSuccess("Grid written to %s", path)
	return nil
}

func (r *runner) exportPath() string {
	if r.cfg.Backtest.ExportPath != "" {
		return r.cfg.Backtest.ExportPath
	}
	return filepath.Join(reporting.DefaultOutputDir(r.cfg.Strategy.Symbol, r.cfg.Strategy.Interval), r.opts.Mode+".xlsx")
}

func (r *runner) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "ℹ️  "+format+"\n", args...)
}

func (r *runner) logWarning(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "⚠️  "+format+"\n", args...)
}

func (r *runner) logSuccess(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "✅ "+format+"\n", args...)
}

func (r *runner) logProgress(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "🔄 "+format+"\n", args...)
}
