package repository

import (
	"context"

	"BarTrader/internal/domain/models"
)

// MarketStream is a live source of ticks, already time-ordered per symbol.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// OrderExecutor places market orders on the exchange. A nil error means the
// order was accepted and executed atomically (no partial fills modeled).
type OrderExecutor interface {
	PlaceOrder(ctx context.Context, symbol string, side models.SignalAction, quantity float64) (*models.OrderResult, error)
}

// TickStore keeps the last-known tick per symbol (overwrite semantics).
type TickStore interface {
	Update(t *models.Tick)
	Latest(symbol string) (*models.Tick, bool)
	All() map[string]*models.Tick
}

// CandleStore keeps a bounded FIFO history of finalized candles per symbol.
type CandleStore interface {
	Add(c *models.Candle)
	Candles(symbol string, limit int) []*models.Candle
	Latest(symbol string) (*models.Candle, bool)
	All() map[string][]*models.Candle
}

// PositionStore owns the position ledger and the append-only trade log.
type PositionStore interface {
	Open(p *models.Position)
	Get(id string) (*models.Position, bool)
	UpdatePnl(id string, currentPrice float64)
	Close(id string, closePrice float64)
	ActivePositions(variant string) []*models.Position
	AddTradeLog(e models.TradeLogEntry)
	TradeLog(limit int) []models.TradeLogEntry
}

// CandleSink receives every finalized candle (persistence, fan-out).
// Implementations must not block the ingestion path.
type CandleSink interface {
	OnCandleFinalized(ctx context.Context, c *models.Candle)
}

// Metrics abstracts the operational metrics recorder.
type Metrics interface {
	RecordTick(symbol string)
	RecordCandleFinalized(symbol string)
	RecordSignal(variant, action string)
	RecordOrder(side, status string)
	RecordOpenPositions(variant string, n int)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
