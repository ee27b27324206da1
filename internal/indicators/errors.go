package indicators

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is matched by every InsufficientDataError via errors.Is
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidWindow    = errors.New("window must be at least 1")
)

// InsufficientDataError reports a series shorter than twice the smoothing window
type InsufficientDataError struct {
	Length int
	Window int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for window %d: have %d prices, need %d", e.Window, e.Length, e.Required())
}

// Required returns the minimum series length for the window
func (e *InsufficientDataError) Required() int {
	return 2 * e.Window
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// RequiredPeriods returns the minimum number of prices EMA and DEMA accept for a window
func RequiredPeriods(window int) int {
	return 2 * window
}

func checkSeries(series []float64, window int) error {
	if window < 1 {
		return ErrInvalidWindow
	}
	if len(series) < RequiredPeriods(window) {
		return &InsufficientDataError{Length: len(series), Window: window}
	}
	return nil
}
