package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	candlesTotal  *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	ordersTotal   *prometheus.CounterVec
	openPositions *prometheus.GaugeVec
	lastPrice     *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartrader_ticks_total",
				Help: "Total number of ticks ingested",
			},
			[]string{"symbol"},
		),
		candlesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartrader_candles_finalized_total",
				Help: "Total number of finalized candles",
			},
			[]string{"symbol"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartrader_signals_total",
				Help: "Total number of strategy signals emitted",
			},
			[]string{"variant", "action"},
		),
		ordersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartrader_orders_total",
				Help: "Total number of orders placed",
			},
			[]string{"side", "status"},
		),
		openPositions: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bartrader_open_positions",
				Help: "Number of open positions per variant",
			},
			[]string{"variant"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bartrader_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartrader_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bartrader_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick counts one ingested tick.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
}

// RecordCandleFinalized counts one finalized candle.
func (r *Recorder) RecordCandleFinalized(symbol string) {
	r.candlesTotal.WithLabelValues(symbol).Inc()
}

// RecordSignal counts one emitted signal.
func (r *Recorder) RecordSignal(variant, action string) {
	r.signalsTotal.WithLabelValues(variant, action).Inc()
}

// RecordOrder counts one placed order.
func (r *Recorder) RecordOrder(side, status string) {
	r.ordersTotal.WithLabelValues(side, status).Inc()
}

// RecordOpenPositions sets the open-position gauge for a variant.
func (r *Recorder) RecordOpenPositions(variant string, n int) {
	r.openPositions.WithLabelValues(variant).Set(float64(n))
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
