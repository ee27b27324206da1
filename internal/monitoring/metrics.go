package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dema_bot_cycles_total",
			Help: "Trading cycles by outcome",
		},
		[]string{"symbol", "outcome"},
	)

	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dema_bot_cycle_duration_seconds",
			Help:    "Duration of a trading cycle including exchange calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dema_bot_orders_total",
			Help: "Orders acknowledged by the exchange",
		},
		[]string{"symbol", "side"},
	)

	orderCancelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dema_bot_order_cancels_total",
			Help: "Stale orders cancelled by the bot",
		},
		[]string{"symbol"},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dema_bot_current_price",
			Help: "Last close of the trading symbol",
		},
		[]string{"symbol"},
	)

	demaValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dema_bot_dema_value",
			Help: "Last computed DEMA",
		},
		[]string{"symbol"},
	)

	positionHolding = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dema_bot_position_holding",
			Help: "1 while the bot holds a position, 0 when flat",
		},
		[]string{"symbol"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dema_bot_errors_total",
			Help: "Errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(cyclesTotal)
	prometheus.MustRegister(cycleDuration)
	prometheus.MustRegister(ordersTotal)
	prometheus.MustRegister(orderCancelsTotal)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(demaValue)
	prometheus.MustRegister(positionHolding)
	prometheus.MustRegister(errorsTotal)
}

// Cycle outcomes
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordCycle counts a finished cycle and its duration
func RecordCycle(symbol, outcome string, took time.Duration) {
	cyclesTotal.WithLabelValues(symbol, outcome).Inc()
	cycleDuration.WithLabelValues(symbol).Observe(took.Seconds())
}

// RecordOrder counts an acknowledged order
func RecordOrder(symbol, side string) {
	ordersTotal.WithLabelValues(symbol, side).Inc()
}

func RecordOrderCancel(symbol string) {
	orderCancelsTotal.WithLabelValues(symbol).Inc()
}

// UpdateMarket sets the last price and DEMA gauges
func UpdateMarket(symbol string, price, dema float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
	demaValue.WithLabelValues(symbol).Set(dema)
}

func UpdatePosition(symbol string, holding bool) {
	v := 0.0
	if holding {
		v = 1
	}
	positionHolding.WithLabelValues(symbol).Set(v)
}

func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
