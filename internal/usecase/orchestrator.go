package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
	applogger "BarTrader/pkg/logger"
)

// OrchestratorConfig carries the pipeline parameters previously scattered
// across component globals.
type OrchestratorConfig struct {
	Symbols       []string
	CandleWindow  time.Duration
	MaxCandles    int
	TradeQuantity float64
	// HistoryDepth is how many candles are handed to the strategies.
	HistoryDepth int
}

// Orchestrator wires tick arrival to store updates, candle aggregation,
// strategy evaluation, order execution and stop-loss enforcement.
type Orchestrator struct {
	cfg        OrchestratorConfig
	ticks      domrepo.TickStore
	candles    domrepo.CandleStore
	aggregator *CandleAggregator
	strategies *StrategyManager
	positions  *PositionManager
	executor   domrepo.OrderExecutor
	sinks      []domrepo.CandleSink
	metrics    domrepo.Metrics
	logger     *applogger.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

func NewOrchestrator(
	cfg OrchestratorConfig,
	ticks domrepo.TickStore,
	candles domrepo.CandleStore,
	strategies *StrategyManager,
	positions *PositionManager,
	executor domrepo.OrderExecutor,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	sinks ...domrepo.CandleSink,
) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		ticks:      ticks,
		candles:    candles,
		strategies: strategies,
		positions:  positions,
		executor:   executor,
		sinks:      sinks,
		metrics:    metrics,
		logger:     logger,
		active:     make(map[string]struct{}),
	}
	for _, s := range cfg.Symbols {
		o.active[strings.ToLower(s)] = struct{}{}
	}
	o.aggregator = NewCandleAggregator(cfg.CandleWindow, cfg.MaxCandles, o.onCandleFinalized, logger)
	return o
}

// Aggregator exposes the working-candle view for read-only callers.
func (o *Orchestrator) Aggregator() *CandleAggregator { return o.aggregator }

// OnTick is the single ingestion entry point. Ticks for symbols not in the
// active set are dropped silently.
func (o *Orchestrator) OnTick(ctx context.Context, t *models.Tick) error {
	if t == nil || t.Symbol == "" {
		if o.metrics != nil {
			o.metrics.RecordError("tick_invalid")
		}
		return fmt.Errorf("invalid tick")
	}
	symbol := strings.ToLower(t.Symbol)
	if !o.isActive(symbol) {
		return nil
	}
	start := time.Now()
	t.Symbol = symbol
	if t.ReceivedAt.IsZero() {
		t.ReceivedAt = time.Now().UTC()
	}

	o.ticks.Update(t)
	if o.metrics != nil {
		o.metrics.RecordTick(symbol)
		o.metrics.RecordLastPrice(symbol, t.Price)
	}

	o.aggregator.Process(ctx, symbol, t.Price, t.Timestamp, t.Quantity)

	o.positions.CheckStopLosses(ctx, symbol, t.Price)
	if o.metrics != nil {
		o.metrics.RecordLatency("on_tick", time.Since(start).Seconds())
	}
	return nil
}

// onCandleFinalized is the aggregator's finalize callback: store the candle,
// fan it out, evaluate strategies and execute any resulting signals.
func (o *Orchestrator) onCandleFinalized(ctx context.Context, c *models.Candle) {
	o.candles.Add(c)
	if o.metrics != nil {
		o.metrics.RecordCandleFinalized(c.Symbol)
	}
	for _, sink := range o.sinks {
		sink.OnCandleFinalized(ctx, c)
	}

	history := o.candles.Candles(c.Symbol, o.cfg.HistoryDepth)
	for variant, sig := range o.strategies.Evaluate(c, history) {
		o.ExecuteSignal(ctx, variant, sig)
	}
}

// ExecuteSignal places the entry order for a signal and opens the position.
// A failed order abandons the signal; there is no retry for entries.
func (o *Orchestrator) ExecuteSignal(ctx context.Context, variant string, sig *models.Signal) {
	strat, ok := o.strategies.Strategy(variant)
	if !ok {
		return
	}
	side := models.SideLong
	if sig.Action == models.ActionSell {
		side = models.SideShort
	}
	slPrice := strat.StopLossPrice(sig.Price, side)

	order, err := o.executor.PlaceOrder(ctx, sig.Symbol, sig.Action, o.cfg.TradeQuantity)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordError("order_entry")
		}
		if o.logger != nil {
			o.logger.Error("entry order failed",
				applogger.String("variant", variant),
				applogger.String("symbol", sig.Symbol),
				applogger.Error(err))
		}
		return
	}

	o.positions.Open(variant, sig.Symbol, side, sig.Price, o.cfg.TradeQuantity, slPrice)
	o.positions.LogTrade(models.TradeLogEntry{
		Timestamp: sig.Timestamp,
		Symbol:    sig.Symbol,
		Side:      sig.Action,
		Quantity:  o.cfg.TradeQuantity,
		Price:     sig.Price,
		Variant:   sig.Variant,
		OrderID:   order.OrderID,
		Reason:    sig.Reason,
	})
	if o.metrics != nil {
		o.metrics.RecordOrder(string(sig.Action), order.Status)
	}
	if o.logger != nil {
		o.logger.Info("trade executed",
			applogger.String("variant", variant),
			applogger.String("symbol", sig.Symbol),
			applogger.String("side", string(sig.Action)),
			applogger.Float64("price", sig.Price),
			applogger.Float64("sl_price", slPrice))
	}
}

// AddSymbol activates a symbol for ingestion. Returns false if it was
// already active.
func (o *Orchestrator) AddSymbol(symbol string) bool {
	symbol = strings.ToLower(symbol)
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.active[symbol]; ok {
		return false
	}
	o.active[symbol] = struct{}{}
	return true
}

// RemoveSymbol deactivates a symbol. Returns false if it was not active.
func (o *Orchestrator) RemoveSymbol(symbol string) bool {
	symbol = strings.ToLower(symbol)
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.active[symbol]; !ok {
		return false
	}
	delete(o.active, symbol)
	return true
}

// ActiveSymbols returns the active symbol list.
func (o *Orchestrator) ActiveSymbols() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.active))
	for s := range o.active {
		out = append(out, s)
	}
	return out
}

// Shutdown flushes working candles and then drains closable sinks, before
// the clients behind them are torn down.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.aggregator.ForceFinalize(ctx, "")
	for _, s := range o.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

func (o *Orchestrator) isActive(symbol string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.active[symbol]
	return ok
}
