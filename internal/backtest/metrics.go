package backtest

import "math"

// UpdateMetrics recomputes the trade statistics from the trade list
func (b *BacktestResults) UpdateMetrics() {
	b.TotalTrades = len(b.Trades)
	b.WinningTrades = 0
	b.LosingTrades = 0
	for _, trade := range b.Trades {
		if trade.PnL > 0 {
			b.WinningTrades++
		} else if trade.PnL < 0 {
			b.LosingTrades++
		}
	}
	b.SharpeRatio = b.CalculateSharpeRatio()
	b.ProfitFactor = b.CalculateProfitFactor()
}

// CalculateSharpeRatio calculates the per-trade Sharpe ratio with a zero risk-free rate
func (b *BacktestResults) CalculateSharpeRatio() float64 {
	var returns []float64
	for _, trade := range b.Trades {
		if trade.ExitPrice > 0 && trade.EntryPrice > 0 {
			returns = append(returns, (trade.ExitPrice-trade.EntryPrice)/trade.EntryPrice)
		}
	}

	if len(returns) == 0 {
		return 0
	}

	avgReturn := 0.0
	for _, r := range returns {
		avgReturn += r
	}
	avgReturn /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-avgReturn, 2)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-10 {
		return 0
	}

	return avgReturn / stdDev
}

// CalculateProfitFactor calculates gross profit over gross loss
func (b *BacktestResults) CalculateProfitFactor() float64 {
	totalProfit := 0.0
	totalLoss := 0.0
	for _, trade := range b.Trades {
		if trade.PnL > 0 {
			totalProfit += trade.PnL
		} else {
			totalLoss += math.Abs(trade.PnL)
		}
	}

	if totalLoss == 0 {
		if totalProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}

	return totalProfit / totalLoss
}

// CalculateWinRate calculates the win rate percentage
func (b *BacktestResults) CalculateWinRate() float64 {
	if len(b.Trades) == 0 {
		return 0
	}
	return float64(b.WinningTrades) / float64(len(b.Trades)) * 100
}
