package usecase

import (
	"context"
	"sync"
	"time"

	"BarTrader/internal/domain/models"
	applogger "BarTrader/pkg/logger"
	"BarTrader/pkg/util"
)

// FinalizeFunc receives every finalized candle, exactly once, synchronously
// with the tick (or flush) that triggered the rollover.
type FinalizeFunc func(ctx context.Context, c *models.Candle)

// CandleAggregator folds a tick stream into one working OHLC candle per
// symbol and finalizes it on window rollover.
type CandleAggregator struct {
	window     time.Duration
	maxWindows int
	onFinalize FinalizeFunc
	logger     *applogger.Logger

	mu        sync.Mutex
	current   map[string]*models.Candle
	processed map[string]map[int64]struct{} // finalized window keys (unix), best-effort de-dup
	lastFinal map[string]int64              // newest finalized window key per symbol
}

func NewCandleAggregator(window time.Duration, maxWindows int, onFinalize FinalizeFunc, logger *applogger.Logger) *CandleAggregator {
	if window <= 0 {
		window = time.Minute
	}
	if maxWindows <= 0 {
		maxWindows = 100
	}
	return &CandleAggregator{
		window:     window,
		maxWindows: maxWindows,
		onFinalize: onFinalize,
		logger:     logger,
		current:    make(map[string]*models.Candle),
		processed:  make(map[string]map[int64]struct{}),
		lastFinal:  make(map[string]int64),
	}
}

// Process folds one tick into the working candle for its symbol and returns
// a copy of the now-current working candle. A tick falling into an already
// finalized window is dropped and nil is returned.
func (a *CandleAggregator) Process(ctx context.Context, symbol string, price float64, ts time.Time, quantity float64) *models.Candle {
	windowKey := util.WindowStart(ts, a.window)

	a.mu.Lock()
	if a.isStale(symbol, windowKey) {
		a.mu.Unlock()
		if a.logger != nil {
			a.logger.Debug("aggregator: stale tick dropped",
				applogger.String("symbol", symbol),
				applogger.Int64("window", windowKey.Unix()))
		}
		return nil
	}

	var finalized *models.Candle
	candle, ok := a.current[symbol]
	switch {
	case !ok:
		a.current[symbol] = a.newCandle(symbol, windowKey, price, quantity)
	case !windowKey.Before(candle.CloseTime):
		finalized = a.finalizeLocked(symbol)
		a.current[symbol] = a.newCandle(symbol, windowKey, price, quantity)
	default:
		if price > candle.High {
			candle.High = price
		}
		if price < candle.Low {
			candle.Low = price
		}
		candle.Close = price
		candle.Volume += quantity
		candle.TickCount++
	}
	working := a.current[symbol].Clone()
	a.mu.Unlock()

	// Notify outside the critical section so sinks can read stores freely.
	if finalized != nil {
		a.notify(ctx, finalized)
	}
	return working
}

// ForceFinalize flushes the working candle for symbol, or for every symbol
// when symbol is empty. Used at shutdown so in-flight bars are not lost.
func (a *CandleAggregator) ForceFinalize(ctx context.Context, symbol string) {
	a.mu.Lock()
	var finalized []*models.Candle
	if symbol != "" {
		if c := a.finalizeLocked(symbol); c != nil {
			finalized = append(finalized, c)
		}
	} else {
		for sym := range a.current {
			if c := a.finalizeLocked(sym); c != nil {
				finalized = append(finalized, c)
			}
		}
	}
	a.mu.Unlock()

	for _, c := range finalized {
		a.notify(ctx, c)
	}
}

// CurrentCandle returns a copy of the working candle for symbol, if any.
func (a *CandleAggregator) CurrentCandle(symbol string) (*models.Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.current[symbol]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (a *CandleAggregator) newCandle(symbol string, windowKey time.Time, price, quantity float64) *models.Candle {
	return &models.Candle{
		Symbol:    symbol,
		OpenTime:  windowKey,
		CloseTime: util.WindowEnd(windowKey, a.window),
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    quantity,
		TickCount: 1,
	}
}

func (a *CandleAggregator) isStale(symbol string, windowKey time.Time) bool {
	if last, ok := a.lastFinal[symbol]; ok && windowKey.Unix() <= last {
		return true
	}
	_, dup := a.processed[symbol][windowKey.Unix()]
	return dup
}

// finalizeLocked marks the working candle finalized, records its window key
// and removes it from the working set. Caller holds a.mu and must invoke
// notify() after unlocking.
func (a *CandleAggregator) finalizeLocked(symbol string) *models.Candle {
	candle, ok := a.current[symbol]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	candle.IsFinalized = true
	candle.FinalizedAt = &now
	delete(a.current, symbol)

	keys, ok := a.processed[symbol]
	if !ok {
		keys = make(map[int64]struct{})
		a.processed[symbol] = keys
	}
	key := candle.OpenTime.Unix()
	keys[key] = struct{}{}
	if key > a.lastFinal[symbol] {
		a.lastFinal[symbol] = key
	}
	// Bound the de-dup set; evict the oldest key first. Window keys are UTC
	// truncations so the numeric minimum is the oldest window.
	if len(keys) > a.maxWindows {
		oldest := int64(0)
		for k := range keys {
			if oldest == 0 || k < oldest {
				oldest = k
			}
		}
		delete(keys, oldest)
	}
	return candle
}

func (a *CandleAggregator) notify(ctx context.Context, c *models.Candle) {
	if a.logger != nil {
		a.logger.Info("candle finalized",
			applogger.String("symbol", c.Symbol),
			applogger.Float64("open", c.Open),
			applogger.Float64("high", c.High),
			applogger.Float64("low", c.Low),
			applogger.Float64("close", c.Close),
			applogger.Int("ticks", c.TickCount))
	}
	if a.onFinalize != nil {
		a.onFinalize(ctx, c)
	}
}
