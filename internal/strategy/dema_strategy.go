package strategy

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/internal/indicators"
)

// ExitMode selects how an open position is closed
type ExitMode int

const (
	// ExitOnTrend sells once price drops below the DEMA
	ExitOnTrend ExitMode = iota
	// ExitOnProfit sells once price exceeds the entry by the profit threshold
	ExitOnProfit
)

func (m ExitMode) String() string {
	switch m {
	case ExitOnTrend:
		return "trend"
	case ExitOnProfit:
		return "take-profit"
	default:
		return "unknown"
	}
}

// DEMAStrategy enters when price trades above the DEMA (less the threshold)
// and exits according to its ExitMode.
type DEMAStrategy struct {
	indicator       indicators.TechnicalIndicator
	window          int
	threshold       float64
	exitMode        ExitMode
	profitThreshold float64
	now             func() time.Time
}

// NewTrendStrategy creates the strategy replayed by the backtester
func NewTrendStrategy(window int, threshold float64) *DEMAStrategy {
	return &DEMAStrategy{
		indicator: indicators.NewDEMA(window, threshold),
		window:    window,
		threshold: threshold,
		exitMode:  ExitOnTrend,
		now:       time.Now,
	}
}

// NewTakeProfitStrategy creates the strategy run by the live trader
func NewTakeProfitStrategy(window int, threshold, profitThreshold float64) *DEMAStrategy {
	return &DEMAStrategy{
		indicator:       indicators.NewDEMA(window, threshold),
		window:          window,
		threshold:       threshold,
		exitMode:        ExitOnProfit,
		profitThreshold: profitThreshold,
		now:             time.Now,
	}
}

// GetName returns the name of the strategy
func (s *DEMAStrategy) GetName() string {
	return fmt.Sprintf("%s(%d, %.4g) %s", s.indicator.GetName(), s.window, s.threshold, s.exitMode)
}

// RequiredPeriods is the shortest series Decide accepts
func (s *DEMAStrategy) RequiredPeriods() int {
	return s.indicator.GetRequiredPeriods()
}

// Decide computes the DEMA over the full series and applies the entry/exit rules.
// Indicator errors (including insufficient data) are returned unchanged.
func (s *DEMAStrategy) Decide(series []float64, price float64, position PositionState) (*TradeDecision, error) {
	var (
		signal bool
		err    error
	)
	switch {
	case position.IsFlat():
		signal, err = s.indicator.ShouldBuy(price, series)
	case s.exitMode == ExitOnTrend:
		signal, err = s.indicator.ShouldSell(price, series)
	default:
		_, err = s.indicator.Calculate(series)
		signal = TakeProfitSignal(price, position.EntryPrice(), s.profitThreshold)
	}
	if err != nil {
		return nil, err
	}

	value := s.indicator.GetLastValue()
	decision := &TradeDecision{
		Action:    ActionHold,
		Price:     price,
		Indicator: value,
		Reason:    "no signal",
		Timestamp: s.now(),
	}
	if !signal {
		return decision, nil
	}

	switch {
	case position.IsFlat():
		decision.Action = ActionBuy
		decision.Reason = fmt.Sprintf("price %.8g above DEMA %.8g less %.2f%%", price, value, s.threshold*100)
	case s.exitMode == ExitOnTrend:
		decision.Action = ActionSell
		decision.Reason = fmt.Sprintf("price %.8g below DEMA %.8g", price, value)
	default:
		decision.Action = ActionSell
		decision.Reason = fmt.Sprintf("price %.8g above entry %.8g plus %.2f%%", price, position.EntryPrice(), s.profitThreshold*100)
	}
	return decision, nil
}
