package indicators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureSeries is a steadily rising minute series used as a regression fixture
var fixtureSeries = []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111}

func generateFlatSeries(count int, value float64) []float64 {
	series := make([]float64, count)
	for i := range series {
		series[i] = value
	}
	return series
}

func TestComputeEMA_ConstantSeries(t *testing.T) {
	for _, window := range []int{1, 2, 4, 7, 12} {
		series := generateFlatSeries(2*window+3, 250.0)

		value, err := ComputeEMA(series, window)
		require.NoError(t, err)
		assert.InDelta(t, 250.0, value, 1e-9, "window %d", window)
	}
}

func TestComputeEMA_InsufficientData(t *testing.T) {
	for window := 1; window <= 10; window++ {
		series := generateFlatSeries(2*window-1, 100.0)

		_, err := ComputeEMA(series, window)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientData))

		var dataErr *InsufficientDataError
		require.True(t, errors.As(err, &dataErr))
		assert.Equal(t, window, dataErr.Window)
		assert.Equal(t, 2*window-1, dataErr.Length)
		assert.Equal(t, 2*window, dataErr.Required())
	}
}

func TestComputeEMA_ExactlyTwiceWindow(t *testing.T) {
	_, err := ComputeEMA([]float64{1, 2, 3, 4}, 2)
	assert.NoError(t, err)
}

func TestComputeEMA_InvalidWindow(t *testing.T) {
	_, err := ComputeEMA(fixtureSeries, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = ComputeEMA(fixtureSeries, -3)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestComputeEMA_EmptySeries(t *testing.T) {
	_, err := ComputeEMA(nil, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeEMA_KnownValue(t *testing.T) {
	// seed = mean(1,2) = 1.5, alpha = 2/3
	// 3 -> 2.5, 4 -> 3.5
	value, err := ComputeEMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, value, 1e-12)
}

func TestComputeEMA_Fixture(t *testing.T) {
	value, err := ComputeEMA(fixtureSeries, 4)
	require.NoError(t, err)
	assert.InDelta(t, 109.5, value, 1e-9)
}

func TestComputeEMA_Idempotent(t *testing.T) {
	first, err := ComputeEMA(fixtureSeries, 3)
	require.NoError(t, err)
	second, err := ComputeEMA(fixtureSeries, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func BenchmarkComputeEMA(b *testing.B) {
	series := generateFlatSeries(1000, 100.0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ComputeEMA(series, 20)
	}
}
