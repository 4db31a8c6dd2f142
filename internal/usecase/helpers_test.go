package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BarTrader/internal/domain/models"
)

// stubMetrics counts recorder calls without Prometheus.
type stubMetrics struct {
	mu      sync.Mutex
	ticks   int
	candles int
	signals int
	orders  int
	errors  map[string]int
	gauges  map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{
		errors: make(map[string]int),
		gauges: make(map[string]int),
	}
}

func (m *stubMetrics) RecordTick(string) { m.mu.Lock(); m.ticks++; m.mu.Unlock() }
func (m *stubMetrics) RecordCandleFinalized(string) {
	m.mu.Lock()
	m.candles++
	m.mu.Unlock()
}
func (m *stubMetrics) RecordSignal(string, string) { m.mu.Lock(); m.signals++; m.mu.Unlock() }
func (m *stubMetrics) RecordOrder(string, string)  { m.mu.Lock(); m.orders++; m.mu.Unlock() }
func (m *stubMetrics) RecordOpenPositions(variant string, n int) {
	m.mu.Lock()
	m.gauges[variant] = n
	m.mu.Unlock()
}

func (m *stubMetrics) openGauge(variant string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.gauges[variant]
	return n, ok
}
func (m *stubMetrics) RecordLastPrice(string, float64) {}
func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *stubMetrics) RecordLatency(string, float64) {}

type placedOrder struct {
	symbol string
	side   models.SignalAction
	qty    float64
}

// stubExecutor fills or rejects orders on demand.
type stubExecutor struct {
	mu    sync.Mutex
	fail  bool
	calls []placedOrder
}

func (e *stubExecutor) PlaceOrder(_ context.Context, symbol string, side models.SignalAction, qty float64) (*models.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return nil, fmt.Errorf("order rejected")
	}
	e.calls = append(e.calls, placedOrder{symbol: symbol, side: side, qty: qty})
	return &models.OrderResult{
		OrderID:       fmt.Sprintf("ord-%d", len(e.calls)),
		Symbol:        symbol,
		Side:          side,
		ExecutedQty:   qty,
		ExecutedPrice: 0,
		Status:        "FILLED",
	}, nil
}

func (e *stubExecutor) orderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *stubExecutor) setFail(fail bool) {
	e.mu.Lock()
	e.fail = fail
	e.mu.Unlock()
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// candleSeries builds one-minute candles where every OHLC field equals the
// given close, spaced a minute apart starting at baseTime.
func candleSeries(symbol string, closes ...float64) []*models.Candle {
	out := make([]*models.Candle, len(closes))
	for i, c := range closes {
		open := baseTime.Add(time.Duration(i) * time.Minute)
		out[i] = &models.Candle{
			Symbol:      symbol,
			OpenTime:    open,
			CloseTime:   open.Add(time.Minute),
			Open:        c,
			High:        c,
			Low:         c,
			Close:       c,
			Volume:      1,
			TickCount:   1,
			IsFinalized: true,
		}
	}
	return out
}
