package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSMA(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		window int
		want   float64
	}{
		{"exact period", []float64{1, 2, 3, 4}, 4, 2.5},
		{"last window only", []float64{100, 1, 2, 3}, 3, 2},
		{"single price", []float64{42}, 1, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSMA(tt.series, tt.window)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestComputeSMA_Errors(t *testing.T) {
	_, err := ComputeSMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = ComputeSMA([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestComputeSMA_SeedsEMA(t *testing.T) {
	series := []float64{10, 20, 30, 40, 50, 60}

	seed, err := ComputeSMA(series[:3], 3)
	require.NoError(t, err)
	assert.Equal(t, 20.0, seed)

	// EMA with alpha 0.5 folds 40, 50, 60 into the seed
	ema, err := ComputeEMA(series, 3)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, ema, 1e-12)
}
