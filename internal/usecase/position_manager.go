package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
	applogger "BarTrader/pkg/logger"
)

// PositionManager owns position open/close transitions, PnL updates and the
// per-tick stop-loss scan.
type PositionManager struct {
	store    domrepo.PositionStore
	executor domrepo.OrderExecutor
	metrics  domrepo.Metrics
	logger   *applogger.Logger

	mu       sync.Mutex
	variants map[string]struct{}
}

func NewPositionManager(store domrepo.PositionStore, executor domrepo.OrderExecutor, metrics domrepo.Metrics, logger *applogger.Logger) *PositionManager {
	return &PositionManager{
		store:    store,
		executor: executor,
		metrics:  metrics,
		logger:   logger,
		variants: make(map[string]struct{}),
	}
}

// Open records a new OPEN position. No position-limit enforcement here.
func (m *PositionManager) Open(variant, symbol string, side models.Side, entryPrice, quantity, slPrice float64) *models.Position {
	now := time.Now().UTC()
	p := &models.Position{
		ID:           fmt.Sprintf("%s_%s_%d", variant, symbol, now.UnixNano()),
		Variant:      variant,
		Symbol:       symbol,
		Side:         side,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		Quantity:     quantity,
		SLPrice:      slPrice,
		Status:       models.PositionOpen,
		OpenTime:     now,
	}
	m.store.Open(p)
	m.mu.Lock()
	m.variants[variant] = struct{}{}
	m.mu.Unlock()
	m.recordOpenGauges()
	return p
}

// CheckStopLosses updates PnL for every OPEN position on the symbol and
// force-closes the ones whose stop price is breached. A failed close order
// leaves the position OPEN; the next tick's scan retries it.
func (m *PositionManager) CheckStopLosses(ctx context.Context, symbol string, price float64) {
	for _, p := range m.store.ActivePositions("") {
		if p.Symbol != symbol {
			continue
		}
		m.store.UpdatePnl(p.ID, price)

		breached := (p.Side == models.SideLong && price <= p.SLPrice) ||
			(p.Side == models.SideShort && price >= p.SLPrice)
		if !breached {
			continue
		}
		if m.logger != nil {
			m.logger.Info("stop loss triggered",
				applogger.String("position", p.ID),
				applogger.Float64("price", price),
				applogger.Float64("sl_price", p.SLPrice))
		}
		if err := m.ClosePosition(ctx, p, price, "Stop Loss"); err != nil {
			if m.metrics != nil {
				m.metrics.RecordError("stop_loss_close")
			}
			if m.logger != nil {
				m.logger.Error("stop loss close failed", applogger.Error(err))
			}
		}
	}
}

// ClosePosition places the closing order and, only on success, transitions
// the position to CLOSED and appends the trade log entry.
func (m *PositionManager) ClosePosition(ctx context.Context, p *models.Position, closePrice float64, reason string) error {
	closeSide := models.ActionSell
	if p.Side == models.SideShort {
		closeSide = models.ActionBuy
	}

	order, err := m.executor.PlaceOrder(ctx, p.Symbol, closeSide, p.Quantity)
	if err != nil {
		return fmt.Errorf("close order %s: %w", p.ID, err)
	}

	m.store.Close(p.ID, closePrice)
	m.store.AddTradeLog(models.TradeLogEntry{
		Timestamp: time.Now().UTC(),
		Symbol:    p.Symbol,
		Side:      closeSide,
		Quantity:  p.Quantity,
		Price:     closePrice,
		Variant:   p.Variant,
		OrderID:   order.OrderID,
		Reason:    reason,
	})
	if m.metrics != nil {
		m.metrics.RecordOrder(string(closeSide), order.Status)
	}
	m.recordOpenGauges()
	if m.logger != nil {
		m.logger.Info("position closed",
			applogger.String("position", p.ID),
			applogger.Float64("close_price", closePrice),
			applogger.String("reason", reason))
	}
	return nil
}

// LogTrade appends an executed trade to the trade log.
func (m *PositionManager) LogTrade(e models.TradeLogEntry) {
	m.store.AddTradeLog(e)
}

// recordOpenGauges reports the open count for every variant ever seen, so a
// variant whose last position just closed reads zero instead of going stale.
func (m *PositionManager) recordOpenGauges() {
	if m.metrics == nil {
		return
	}
	m.mu.Lock()
	byVariant := make(map[string]int, len(m.variants))
	for v := range m.variants {
		byVariant[v] = 0
	}
	m.mu.Unlock()
	for _, p := range m.store.ActivePositions("") {
		byVariant[p.Variant]++
	}
	for variant, n := range byVariant {
		m.metrics.RecordOpenPositions(variant, n)
	}
}
