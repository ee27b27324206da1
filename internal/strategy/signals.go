package strategy

// TakeProfitSignal reports whether price rose above entry by more than profitThreshold
func TakeProfitSignal(price, entry, profitThreshold float64) bool {
	return price > entry*(1+profitThreshold)
}
