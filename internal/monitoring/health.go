package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const maxHealthErrors = 10

// HealthChecker reports whether the trading loop is alive
type HealthChecker struct {
	mu          sync.RWMutex
	startTime   time.Time
	lastCycle   time.Time
	lastTrade   time.Time
	lastPrice   float64
	position    string
	isConnected bool
	errors      []string
	staleAfter  time.Duration
	now         func() time.Time
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastCycle   time.Time `json:"last_cycle"`
	LastTrade   time.Time `json:"last_trade"`
	LastPrice   float64   `json:"last_price"`
	Position    string    `json:"position"`
	IsConnected bool      `json:"is_connected"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

// NewHealthChecker reports degraded when no cycle completed within staleAfter
func NewHealthChecker(staleAfter time.Duration) *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		errors:     make([]string, 0),
		staleAfter: staleAfter,
		position:   "FLAT",
		now:        time.Now,
	}
}

// RecordCycle marks a successful cycle and clears the error list
func (h *HealthChecker) RecordCycle(price float64, position string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastCycle = h.now()
	h.lastPrice = price
	h.position = position
	h.isConnected = true
	h.errors = h.errors[:0]
}

func (h *HealthChecker) RecordTrade() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTrade = h.now()
}

// RecordError keeps the most recent errors until the next successful cycle
func (h *HealthChecker) RecordError(msg string, connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.isConnected = connected
	h.errors = append(h.errors, msg)
	if len(h.errors) > maxHealthErrors {
		h.errors = h.errors[len(h.errors)-maxHealthErrors:]
	}
}

// Status computes the current health
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	status := "healthy"
	if !h.isConnected || (h.staleAfter > 0 && now.Sub(h.lastCycle) > h.staleAfter) {
		status = "degraded"
	}
	if len(h.errors) >= maxHealthErrors {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:      status,
		Timestamp:   now,
		LastCycle:   h.lastCycle,
		LastTrade:   h.lastTrade,
		LastPrice:   h.lastPrice,
		Position:    h.position,
		IsConnected: h.isConnected,
		Uptime:      now.Sub(h.startTime).Round(time.Second).String(),
		Errors:      append([]string(nil), h.errors...),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	switch health.Status {
	case "degraded":
		w.WriteHeader(http.StatusServiceUnavailable)
	case "unhealthy":
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(health)
}
