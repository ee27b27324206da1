package indicators

// ComputeEMA calculates the Exponential Moving Average of a closing-price series.
//
// The first window prices are averaged into the seed value, then every price from
// index window onward is folded in with alpha = 2/(window+1). The series must hold
// at least 2*window prices.
func ComputeEMA(series []float64, window int) (float64, error) {
	if err := checkSeries(series, window); err != nil {
		return 0, err
	}

	alpha := 2.0 / float64(window+1)

	ema, err := ComputeSMA(series[:window], window)
	if err != nil {
		return 0, err
	}

	for _, v := range series[window:] {
		ema = (alpha * v) + ((1 - alpha) * ema)
	}

	return ema, nil
}
