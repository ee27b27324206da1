package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDEMA_ConstantSeries(t *testing.T) {
	for _, window := range []int{1, 3, 6} {
		series := generateFlatSeries(3*window, 42.0)

		value, err := ComputeDEMA(series, window)
		require.NoError(t, err)
		assert.InDelta(t, 42.0, value, 1e-9, "window %d", window)
	}
}

func TestComputeDEMA_Fixture(t *testing.T) {
	value, err := ComputeDEMA(fixtureSeries, 4)
	require.NoError(t, err)
	assert.InDelta(t, 109.36563072, value, 1e-9)
}

func TestComputeDEMA_AuxiliarySeries(t *testing.T) {
	series := []float64{1, 2, 3, 4}

	ema, err := ComputeEMA(series, 2)
	require.NoError(t, err)
	emaOfEma, err := ComputeEMA([]float64{ema, ema, 3, 4}, 2)
	require.NoError(t, err)

	value, err := ComputeDEMA(series, 2)
	require.NoError(t, err)
	assert.Equal(t, 2*ema-emaOfEma, value)
}

func TestComputeDEMA_InsufficientData(t *testing.T) {
	_, err := ComputeDEMA([]float64{1, 2, 3}, 2)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeDEMA_DoesNotMutateInput(t *testing.T) {
	series := append([]float64(nil), fixtureSeries...)

	_, err := ComputeDEMA(series, 4)
	require.NoError(t, err)
	assert.Equal(t, fixtureSeries, series)
}

func TestComputeDEMA_Idempotent(t *testing.T) {
	first, err := ComputeDEMA(fixtureSeries, 5)
	require.NoError(t, err)
	second, err := ComputeDEMA(fixtureSeries, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDEMA_Signals(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		price     float64
		buy       bool
		sell      bool
	}{
		{"well above", 0.01, 111, true, false},
		{"inside threshold band", 0.01, 109, true, true},
		{"below band", 0.01, 108, false, true},
		{"no threshold below dema", 0, 109, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dema := NewDEMA(4, tt.threshold)

			buy, err := dema.ShouldBuy(tt.price, fixtureSeries)
			require.NoError(t, err)
			assert.Equal(t, tt.buy, buy)

			sell, err := dema.ShouldSell(tt.price, fixtureSeries)
			require.NoError(t, err)
			assert.Equal(t, tt.sell, sell)
		})
	}
}

func TestDEMA_Accessors(t *testing.T) {
	dema := NewDEMA(6, 0.02)

	assert.Equal(t, "DEMA", dema.GetName())
	assert.Equal(t, 12, dema.GetRequiredPeriods())
	assert.Zero(t, dema.GetLastValue())

	value, err := dema.Calculate(generateFlatSeries(12, 50))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, value, 1e-9)
	assert.Equal(t, value, dema.GetLastValue())

	var _ TechnicalIndicator = dema
}

func BenchmarkComputeDEMA(b *testing.B) {
	series := generateFlatSeries(1000, 100.0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ComputeDEMA(series, 20)
	}
}
