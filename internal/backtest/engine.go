package backtest

import (
	"fmt"

	"github.com/ducminhle1904/dema-futures-bot/internal/indicators"
	"github.com/ducminhle1904/dema-futures-bot/internal/strategy"
)

// DefaultInitialBalance is the quote balance every backtest starts from
const DefaultInitialBalance = 100.0

// Ledger is the single-asset balance/position pair tracked through a run.
// The policy is fully in or fully out: a non-zero position implies a zero balance.
type Ledger struct {
	Balance   float64
	Position  float64
	LastPrice float64
}

// Value marks the ledger to its last price
func (l Ledger) Value() float64 {
	return l.Balance + l.Position*l.LastPrice
}

// Exclusive reports whether balance and position are never held at the same time
func (l Ledger) Exclusive() bool {
	if l.Position > 0 {
		return l.Balance == 0
	}
	return true
}

type BacktestEngine struct {
	initialBalance float64
}

type BacktestResults struct {
	Window        int
	Threshold     float64
	StartBalance  float64
	EndBalance    float64
	TotalReturn   float64
	MaxDrawdown   float64
	SharpeRatio   float64
	ProfitFactor  float64
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	Trades        []Trade
	// Steps holds the ledger after every replayed price
	Steps []Ledger
	Final Ledger
}

type Trade struct {
	EntryIndex int
	ExitIndex  int
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	PnL        float64
	// Open trades are marked to the last price of the series
	Open bool
}

func (t *Trade) close(index int, price float64) {
	t.ExitIndex = index
	t.ExitPrice = price
	t.PnL = (price - t.EntryPrice) * t.Quantity
	t.Open = false
}

// NewBacktestEngine creates an engine starting from initialBalance.
// Non-positive balances fall back to DefaultInitialBalance.
func NewBacktestEngine(initialBalance float64) *BacktestEngine {
	if initialBalance <= 0 {
		initialBalance = DefaultInitialBalance
	}
	return &BacktestEngine{initialBalance: initialBalance}
}

// Backtest replays series with the default balance and returns the final portfolio value
func Backtest(series []float64, window int, threshold float64) (float64, error) {
	results, err := NewBacktestEngine(DefaultInitialBalance).Run(series, window, threshold)
	if err != nil {
		return 0, err
	}
	return results.EndBalance, nil
}

// Run replays series through the DEMA trend strategy.
//
// For every index from window to the end, the DEMA is recomputed over the whole
// series. A flat ledger buys with its full balance when the price clears the DEMA
// less threshold; a holding ledger sells everything when the price drops below
// the DEMA. The remaining position is marked to the last price.
func (b *BacktestEngine) Run(series []float64, window int, threshold float64) (*BacktestResults, error) {
	if window < 1 {
		return nil, indicators.ErrInvalidWindow
	}
	strat := strategy.NewTrendStrategy(window, threshold)
	if len(series) < strat.RequiredPeriods() {
		return nil, &indicators.InsufficientDataError{Length: len(series), Window: window}
	}

	results := &BacktestResults{
		Window:       window,
		Threshold:    threshold,
		StartBalance: b.initialBalance,
		Trades:       make([]Trade, 0),
		Steps:        make([]Ledger, 0, len(series)-window),
	}

	ledger := Ledger{Balance: b.initialBalance}
	maxValue := ledger.Balance

	for i := window; i < len(series); i++ {
		price := series[i]

		position := strategy.Flat()
		if ledger.Position > 0 {
			position = strategy.Holding(results.Trades[len(results.Trades)-1].EntryPrice)
		}

		decision, err := strat.Decide(series, price, position)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		switch decision.Action {
		case strategy.ActionBuy:
			ledger.Position = ledger.Balance / price
			ledger.Balance = 0
			results.Trades = append(results.Trades, Trade{
				EntryIndex: i,
				EntryPrice: price,
				Quantity:   ledger.Position,
				Open:       true,
			})
		case strategy.ActionSell:
			ledger.Balance = ledger.Position * price
			ledger.Position = 0
			results.Trades[len(results.Trades)-1].close(i, price)
		}

		ledger.LastPrice = price
		results.Steps = append(results.Steps, ledger)

		currentValue := ledger.Value()
		if currentValue > maxValue {
			maxValue = currentValue
		}
		if drawdown := (maxValue - currentValue) / maxValue; drawdown > results.MaxDrawdown {
			results.MaxDrawdown = drawdown
		}
	}

	finalPrice := series[len(series)-1]
	finalValue := ledger.Balance + ledger.Position*finalPrice

	for i := range results.Trades {
		trade := &results.Trades[i]
		if trade.Open {
			trade.ExitIndex = len(series) - 1
			trade.ExitPrice = finalPrice
			trade.PnL = (finalPrice - trade.EntryPrice) * trade.Quantity
		}
	}

	ledger.LastPrice = finalPrice
	results.Final = ledger
	results.EndBalance = finalValue
	results.TotalReturn = (finalValue - b.initialBalance) / b.initialBalance
	results.UpdateMetrics()

	return results, nil
}
