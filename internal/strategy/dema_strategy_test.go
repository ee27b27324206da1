package strategy

import (
	"testing"

	"github.com/ducminhle1904/dema-futures-bot/internal/indicators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var risingSeries = []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111}

func TestPositionState(t *testing.T) {
	flat := Flat()
	assert.True(t, flat.IsFlat())
	assert.False(t, flat.IsHolding())
	assert.Equal(t, 0.0, flat.EntryPrice())
	assert.Equal(t, "FLAT", flat.String())

	held := Holding(101.5)
	assert.True(t, held.IsHolding())
	assert.Equal(t, 101.5, held.EntryPrice())
	assert.Equal(t, "HOLDING@101.5", held.String())
}

func TestTakeProfitSignal(t *testing.T) {
	assert.True(t, TakeProfitSignal(103, 100, 0.02))
	assert.False(t, TakeProfitSignal(102, 100, 0.02))
}

func TestTrendStrategy_Decide(t *testing.T) {
	s := NewTrendStrategy(4, 0.01)

	decision, err := s.Decide(risingSeries, 109, Flat())
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, decision.Action)
	assert.InDelta(t, 109.36563072, decision.Indicator, 1e-9)

	decision, err = s.Decide(risingSeries, 108, Flat())
	require.NoError(t, err)
	assert.Equal(t, ActionHold, decision.Action)

	decision, err = s.Decide(risingSeries, 109, Holding(105))
	require.NoError(t, err)
	assert.Equal(t, ActionSell, decision.Action)

	decision, err = s.Decide(risingSeries, 110, Holding(105))
	require.NoError(t, err)
	assert.Equal(t, ActionHold, decision.Action)
}

func TestTakeProfitStrategy_Decide(t *testing.T) {
	s := NewTakeProfitStrategy(4, 0.01, 0.05)

	// below the DEMA but not above entry*(1+profit): trend exits do not apply
	decision, err := s.Decide(risingSeries, 100, Holding(100))
	require.NoError(t, err)
	assert.Equal(t, ActionHold, decision.Action)

	decision, err = s.Decide(risingSeries, 105.5, Holding(100))
	require.NoError(t, err)
	assert.Equal(t, ActionSell, decision.Action)
	assert.InDelta(t, 109.36563072, decision.Indicator, 1e-9)
}

func TestDEMAStrategy_InsufficientDataWhileHolding(t *testing.T) {
	s := NewTakeProfitStrategy(10, 0.01, 0.05)

	_, err := s.Decide(risingSeries, 200, Holding(100))
	assert.ErrorIs(t, err, indicators.ErrInsufficientData)
}

func TestDEMAStrategy_InsufficientData(t *testing.T) {
	s := NewTrendStrategy(10, 0.01)

	_, err := s.Decide(risingSeries, 111, Flat())
	assert.ErrorIs(t, err, indicators.ErrInsufficientData)
}

func TestDEMAStrategy_Name(t *testing.T) {
	assert.Equal(t, "DEMA(4, 0.01) trend", NewTrendStrategy(4, 0.01).GetName())
	assert.Equal(t, "DEMA(6, 0.01) take-profit", NewTakeProfitStrategy(6, 0.01, 2).GetName())
	assert.Equal(t, 12, NewTakeProfitStrategy(6, 0.01, 2).RequiredPeriods())

	var _ Strategy = NewTrendStrategy(4, 0.01)
}
