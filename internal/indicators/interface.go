package indicators

// TechnicalIndicator is a trend indicator evaluated over a closing-price series
type TechnicalIndicator interface {
	Calculate(series []float64) (float64, error)
	ShouldBuy(current float64, series []float64) (bool, error)
	ShouldSell(current float64, series []float64) (bool, error)
	GetName() string
	GetRequiredPeriods() int
	GetLastValue() float64
}
