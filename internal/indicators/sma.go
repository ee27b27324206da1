package indicators

import "fmt"

// ComputeSMA returns the mean of the last window prices
func ComputeSMA(series []float64, window int) (float64, error) {
	if window < 1 {
		return 0, ErrInvalidWindow
	}
	if len(series) < window {
		return 0, fmt.Errorf("%w for SMA: have %d prices, need %d", ErrInsufficientData, len(series), window)
	}

	sum := 0.0
	for _, v := range series[len(series)-window:] {
		sum += v
	}
	return sum / float64(window), nil
}
