package indicators

// ComputeDEMA calculates the Double Exponential Moving Average of a series.
//
// The EMA of the series is smoothed a second time over an auxiliary series made
// of window copies of that EMA followed by the prices from index window onward.
// The result is 2*ema - emaOfEma.
func ComputeDEMA(series []float64, window int) (float64, error) {
	ema, err := ComputeEMA(series, window)
	if err != nil {
		return 0, err
	}

	aux := make([]float64, 0, len(series))
	for i := 0; i < window; i++ {
		aux = append(aux, ema)
	}
	aux = append(aux, series[window:]...)

	emaOfEma, err := ComputeEMA(aux, window)
	if err != nil {
		return 0, err
	}

	return 2*ema - emaOfEma, nil
}

// DEMA is the trend filter used by the trading strategy.
// Buy signals are relaxed by threshold: a price within threshold below the DEMA
// still counts as trending up.
type DEMA struct {
	period    int
	threshold float64
	lastValue float64
}

// NewDEMA creates a new DEMA indicator
func NewDEMA(period int, threshold float64) *DEMA {
	return &DEMA{
		period:    period,
		threshold: threshold,
	}
}

// Calculate calculates the DEMA value
func (d *DEMA) Calculate(series []float64) (float64, error) {
	value, err := ComputeDEMA(series, d.period)
	if err != nil {
		return 0, err
	}
	d.lastValue = value
	return value, nil
}

// ShouldBuy reports whether current is above the DEMA lowered by the threshold
func (d *DEMA) ShouldBuy(current float64, series []float64) (bool, error) {
	dema, err := d.Calculate(series)
	if err != nil {
		return false, err
	}
	return current > dema*(1-d.threshold), nil
}

// ShouldSell reports whether current dropped below the DEMA
func (d *DEMA) ShouldSell(current float64, series []float64) (bool, error) {
	dema, err := d.Calculate(series)
	if err != nil {
		return false, err
	}
	return current < dema, nil
}

// GetName returns the indicator name
func (d *DEMA) GetName() string {
	return "DEMA"
}

// GetRequiredPeriods returns the minimum number of periods needed
func (d *DEMA) GetRequiredPeriods() int {
	return RequiredPeriods(d.period)
}

// GetLastValue returns the last calculated DEMA value
func (d *DEMA) GetLastValue() float64 {
	return d.lastValue
}
