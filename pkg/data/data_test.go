package data

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/internal/exchange"
	"github.com/ducminhle1904/dema-futures-bot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVProvider_LoadData(t *testing.T) {
	path := writeFile(t, "candles.csv", `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,101,99,100.5,10
2024-01-01 00:01:00,100.5,102,100,101.5,12
2024-01-01 00:02:00,bad,102,100,101.5,12
2024-01-01 00:03:00,101.5,101,100,101.5,12
2024-01-01 00:04:00,101.5,103,101,102.5,9
`)

	p := NewCSVProvider()
	candles, err := p.LoadData(path)
	require.NoError(t, err)
	require.Len(t, candles, 3, "unparsable and inconsistent rows are skipped")
	assert.Equal(t, []float64{100.5, 101.5, 102.5}, types.Closes(candles))
	assert.NoError(t, p.ValidateData(candles))

	closes, err := p.LoadCloses(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 101.5, 102.5}, closes)
}

func TestCSVProvider_LoadClosesSingleColumn(t *testing.T) {
	path := writeFile(t, "closes.csv", "close\n100\n101.25\n\n102\n")

	closes, err := NewCSVProvider().LoadCloses(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101.25, 102}, closes)

	bad := writeFile(t, "bad.csv", "close\n100\nabc\n")
	_, err = NewCSVProvider().LoadCloses(bad)
	assert.Error(t, err)
}

func TestCSVProvider_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadCloses(filepath.Join(t.TempDir(), "none.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCSVProvider_ValidateData(t *testing.T) {
	p := NewCSVProvider()
	assert.Error(t, p.ValidateData(nil))

	now := time.Now()
	outOfOrder := []types.OHLCV{
		{Timestamp: now, Open: 1, High: 2, Low: 1, Close: 2},
		{Timestamp: now.Add(-time.Minute), Open: 1, High: 2, Low: 1, Close: 2},
	}
	assert.Error(t, p.ValidateData(outOfOrder))
}

func TestWriteAndSaveCloses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCloses(&buf, []float64{1.5, 2, 3.25}))
	assert.Equal(t, "close\n1.5\n2\n3.25\n", buf.String())

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveCloses(path, []float64{10, 11}))
	closes, err := NewCSVProvider().LoadCloses(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11}, closes)
}

func TestIntervalDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"1m":  time.Minute,
		"15m": 15 * time.Minute,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
	}
	for in, want := range tests {
		got, err := IntervalDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "m", "0m", "5x", "xm"} {
		_, err := IntervalDuration(in)
		assert.Error(t, err, in)
	}
}

type windowGateway struct {
	exchange.PaperGateway
	windows [][2]time.Time
	failAt  int
}

func (g *windowGateway) FetchClosingPrices(ctx context.Context, symbol, interval string, start, end time.Time) ([]float64, error) {
	g.windows = append(g.windows, [2]time.Time{start, end})
	if g.failAt > 0 && len(g.windows) == g.failAt {
		return nil, &exchange.GatewayError{Op: "klines", Message: "boom"}
	}
	return []float64{float64(len(g.windows))}, nil
}

func TestDownloadCloses_Batches(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(25 * time.Minute)
	gw := &windowGateway{}

	closes, err := DownloadCloses(context.Background(), gw, "BTCUSDT", "1m", start, end, 10)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3}, closes)
	require.Len(t, gw.windows, 3)
	assert.Equal(t, start, gw.windows[0][0])
	assert.Equal(t, start.Add(10*time.Minute-time.Millisecond), gw.windows[0][1])
	assert.Equal(t, start.Add(20*time.Minute), gw.windows[2][0])
	assert.Equal(t, end.Add(-time.Millisecond), gw.windows[2][1])
}

func TestDownloadCloses_Errors(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := DownloadCloses(context.Background(), &windowGateway{}, "BTCUSDT", "bad", start, start.Add(time.Hour), 10)
	assert.Error(t, err)

	_, err = DownloadCloses(context.Background(), &windowGateway{}, "BTCUSDT", "1m", start, start, 10)
	assert.Error(t, err)

	_, err = DownloadCloses(context.Background(), &windowGateway{failAt: 2}, "BTCUSDT", "1m", start, start.Add(time.Hour), 10)
	assert.True(t, exchange.IsGatewayError(err))
}
