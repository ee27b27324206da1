package data

import (
	"context"
	"fmt"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/internal/exchange"
)

// DefaultBatchSize is the number of candles requested per call
const DefaultBatchSize = 1000

// DownloadCloses fetches the closes of [start, end) in batches of batchSize candles
func DownloadCloses(ctx context.Context, gw exchange.Gateway, symbol, interval string, start, end time.Time, batchSize int) ([]float64, error) {
	step, err := IntervalDuration(interval)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start %s must be before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	chunk := step * time.Duration(batchSize)
	var closes []float64
	for from := start; from.Before(end); from = from.Add(chunk) {
		to := from.Add(chunk)
		if to.After(end) {
			to = end
		}

		// Kline ranges are inclusive of both open times
		batch, err := gw.FetchClosingPrices(ctx, symbol, interval, from, to.Add(-time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("download %s %s from %s: %w", symbol, interval, from.Format(time.RFC3339), err)
		}
		closes = append(closes, batch...)
	}
	return closes, nil
}
