package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// BinanceRequestWeightPerMinute is the default USDⓈ-M futures IP weight budget
const BinanceRequestWeightPerMinute = 2400

// ErrWeightAboveCapacity is returned for requests the bucket can never admit
var ErrWeightAboveCapacity = errors.New("weight exceeds capacity")

// RateLimiter is a token bucket refilled continuously at capacity tokens per period
type RateLimiter struct {
	name       string
	capacity   float64
	tokens     float64
	perSecond  float64
	lastRefill time.Time
	mutex      sync.Mutex

	now func() time.Time
}

// RateLimiterStats is a snapshot of a limiter
type RateLimiterStats struct {
	Name      string
	Capacity  int
	Available int
}

// NewRateLimiter creates a full bucket of capacity tokens refilled over period
func NewRateLimiter(name string, capacity int, period time.Duration) *RateLimiter {
	if capacity < 1 {
		capacity = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	return &RateLimiter{
		name:       name,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		perSecond:  float64(capacity) / period.Seconds(),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// AllowN takes n tokens when available
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refill()
	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}
	return false
}

// WaitN blocks until n tokens are taken or ctx is done
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	if float64(n) > rl.capacity {
		return fmt.Errorf("%s: %w (%d > %.0f)", rl.name, ErrWeightAboveCapacity, n, rl.capacity)
	}
	for {
		wait, ok := rl.reserve(n)
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes n tokens or returns how long until they are available
func (rl *RateLimiter) reserve(n int) (time.Duration, bool) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refill()
	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return 0, true
	}
	missing := float64(n) - rl.tokens
	return time.Duration(missing/rl.perSecond*float64(time.Second)) + time.Millisecond, false
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed.Seconds() * rl.perSecond
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = now
}

func (rl *RateLimiter) GetStats() RateLimiterStats {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refill()
	return RateLimiterStats{
		Name:      rl.name,
		Capacity:  int(rl.capacity),
		Available: int(rl.tokens),
	}
}
