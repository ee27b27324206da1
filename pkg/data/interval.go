package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IntervalDuration converts interval strings like "5m", "1h", "1d" or "1w" to a duration
func IntervalDuration(interval string) (time.Duration, error) {
	interval = strings.TrimSpace(interval)
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	num, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || num <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}

	switch interval[len(interval)-1:] {
	case "m":
		return time.Duration(num) * time.Minute, nil
	case "h":
		return time.Duration(num) * time.Hour, nil
	case "d":
		return time.Duration(num) * 24 * time.Hour, nil
	case "w":
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown unit in interval %q", interval)
	}
}
