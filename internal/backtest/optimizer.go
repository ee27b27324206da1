package backtest

import (
	"context"
	"time"
)

// Evaluation is the outcome of one (window, threshold) candidate
type Evaluation struct {
	Window    int
	Threshold float64
	Value     float64
	Trades    int
	Duration  time.Duration
	Err       error
}

// OptimizationResult holds the best candidate of a grid search.
// MaxValue starts at zero and only moves when a candidate is strictly greater.
type OptimizationResult struct {
	BestWindow    int
	BestThreshold float64
	MaxValue      float64
	// Found is false when no candidate beat the zero starting value
	Found       bool
	Evaluations []Evaluation
	Skipped     []Evaluation
}

// ProgressFunc is called after every completed candidate with the estimated time left
type ProgressFunc func(done, total int, eta time.Duration, eval Evaluation)

type ParameterOptimizer struct {
	engine     *BacktestEngine
	workers    int
	onProgress ProgressFunc
}

// NewParameterOptimizer creates an optimizer running candidates on workers goroutines.
// workers <= 0 uses one worker per CPU.
func NewParameterOptimizer(engine *BacktestEngine, workers int) *ParameterOptimizer {
	if engine == nil {
		engine = NewBacktestEngine(DefaultInitialBalance)
	}
	return &ParameterOptimizer{engine: engine, workers: workers}
}

// OnProgress registers a callback invoked from the collecting goroutine
func (o *ParameterOptimizer) OnProgress(fn ProgressFunc) {
	o.onProgress = fn
}

// Optimize backtests every (window, threshold) pair and returns the best one.
//
// Candidates run in parallel, but the best pair is picked by walking the grid in
// order (windows outer, thresholds inner) with a strict greater-than comparison,
// so ties keep the earliest pair exactly as a sequential search would. Candidates
// that fail, for example on insufficient data, are skipped and reported.
func (o *ParameterOptimizer) Optimize(ctx context.Context, series []float64, windows []int, thresholds []float64) (*OptimizationResult, error) {
	total := len(windows) * len(thresholds)
	result := &OptimizationResult{
		Evaluations: make([]Evaluation, 0, total),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if total == 0 {
		return result, nil
	}

	pool := NewWorkerPool(ctx, o.engine, o.workers, total)
	pool.Start()
	defer pool.Stop()

	index := 0
	for _, window := range windows {
		for _, threshold := range thresholds {
			job := BacktestJob{
				Index:     index,
				Window:    window,
				Threshold: threshold,
				Series:    series,
			}
			if err := pool.SubmitJob(job); err != nil {
				return nil, err
			}
			index++
		}
	}

	tracker := NewProgressTracker(total)
	evaluations := make([]Evaluation, total)
	for received := 0; received < total; received++ {
		select {
		case res := <-pool.GetResults():
			eval := Evaluation{
				Window:    res.Window,
				Threshold: res.Threshold,
				Duration:  res.Duration,
				Err:       res.Error,
			}
			if res.Results != nil {
				eval.Value = res.Results.EndBalance
				eval.Trades = res.Results.TotalTrades
			}
			evaluations[res.Index] = eval

			tracker.Increment()
			if o.onProgress != nil {
				done, _, _, _ := tracker.GetProgress()
				o.onProgress(done, total, tracker.EstimateTimeRemaining(), eval)
			}
		case <-pool.Done():
			return nil, ctx.Err()
		}
	}

	for _, eval := range evaluations {
		result.Evaluations = append(result.Evaluations, eval)
		if eval.Err != nil {
			result.Skipped = append(result.Skipped, eval)
			continue
		}
		if eval.Value > result.MaxValue {
			result.MaxValue = eval.Value
			result.BestWindow = eval.Window
			result.BestThreshold = eval.Threshold
			result.Found = true
		}
	}

	return result, nil
}

// WindowRange returns the windows from (inclusive) to (exclusive)
func WindowRange(from, to int) []int {
	windows := make([]int, 0)
	for w := from; w < to; w++ {
		windows = append(windows, w)
	}
	return windows
}

// ThresholdSteps returns step, 2*step, ..., n*step
func ThresholdSteps(step float64, n int) []float64 {
	thresholds := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		thresholds = append(thresholds, step*float64(i))
	}
	return thresholds
}
