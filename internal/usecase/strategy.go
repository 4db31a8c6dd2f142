package usecase

import (
	"sync"
	"time"

	"BarTrader/internal/domain/models"
	applogger "BarTrader/pkg/logger"
)

// StrategyConfig parameterizes one crossover strategy variant. The signal
// logic is shared across variants; only the risk parameters differ.
type StrategyConfig struct {
	Name            string
	SMAShortWindow  int
	SMALongWindow   int
	EMASpan         int
	StopLossPercent float64
	MaxSignals      int
}

// CrossoverStrategy emits BUY/SELL signals on price/SMA crossovers with EMA
// confirmation. Indicators are recomputed from scratch on every call; the
// strategy holds no state besides its bounded recent-signals buffer.
type CrossoverStrategy struct {
	cfg    StrategyConfig
	logger *applogger.Logger

	mu      sync.Mutex
	signals []*models.Signal
}

func NewCrossoverStrategy(cfg StrategyConfig, logger *applogger.Logger) *CrossoverStrategy {
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = 50
	}
	return &CrossoverStrategy{cfg: cfg, logger: logger}
}

func (s *CrossoverStrategy) Name() string             { return s.cfg.Name }
func (s *CrossoverStrategy) StopLossPercent() float64 { return s.cfg.StopLossPercent }

// SMA is the arithmetic mean of the last window closes. Histories shorter
// than the window average whatever is available instead of failing.
func SMA(closes []float64, window int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < window {
		window = len(closes)
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}

// EMA seeds with the oldest close and applies the standard recurrence
// forward with alpha = 2/(span+1).
func EMA(closes []float64, span int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < 2 {
		return closes[len(closes)-1]
	}
	alpha := 2.0 / float64(span+1)
	ema := closes[0]
	for _, c := range closes[1:] {
		ema = alpha*c + (1-alpha)*ema
	}
	return ema
}

// ComputeIndicators evaluates SMA/EMA over the close series of history.
func (s *CrossoverStrategy) ComputeIndicators(history []*models.Candle) models.Indicators {
	closes := make([]float64, len(history))
	for i, c := range history {
		closes[i] = c.Close
	}
	ind := models.Indicators{
		SMAShort: SMA(closes, s.cfg.SMAShortWindow),
		SMALong:  SMA(closes, s.cfg.SMALongWindow),
		EMA:      EMA(closes, s.cfg.EMASpan),
	}
	if len(closes) > 0 {
		ind.CurrentPrice = closes[len(closes)-1]
	}
	return ind
}

// GenerateSignal applies the crossover rule. prev holds the indicators
// recomputed with the newest bar excluded; without a prior snapshot no
// signal is emitted. BUY is checked first so at most one signal results.
func (s *CrossoverStrategy) GenerateSignal(symbol string, ind, prev models.Indicators) *models.Signal {
	price := ind.CurrentPrice

	switch {
	case prev.CurrentPrice <= prev.SMAShort && price > ind.SMAShort && ind.EMA > ind.SMALong:
		strength := models.StrengthModerate
		if price > ind.EMA {
			strength = models.StrengthStrong
		}
		return &models.Signal{
			Symbol:     symbol,
			Action:     models.ActionBuy,
			Price:      price,
			Strength:   strength,
			Indicators: ind,
			Reason:     "Price crossed above SMA with EMA confirmation",
		}
	case prev.CurrentPrice >= prev.SMAShort && price < ind.SMAShort:
		strength := models.StrengthModerate
		if price < ind.EMA {
			strength = models.StrengthStrong
		}
		return &models.Signal{
			Symbol:     symbol,
			Action:     models.ActionSell,
			Price:      price,
			Strength:   strength,
			Indicators: ind,
			Reason:     "Price crossed below SMA",
		}
	}
	return nil
}

// ProcessCandle evaluates the strategy against history, whose last element
// must be the just-finalized candle. Returns nil when history is empty or
// too short for crossover detection.
func (s *CrossoverStrategy) ProcessCandle(candle *models.Candle, history []*models.Candle) *models.Signal {
	if len(history) == 0 {
		return nil
	}
	ind := s.ComputeIndicators(history)
	if len(history) < 2 {
		return nil
	}
	prev := s.ComputeIndicators(history[:len(history)-1])

	sig := s.GenerateSignal(candle.Symbol, ind, prev)
	if sig == nil {
		return nil
	}
	sig.Timestamp = time.Now().UTC()
	sig.CandleTime = candle.OpenTime
	s.record(sig)
	if s.logger != nil {
		s.logger.Info("signal generated",
			applogger.String("strategy", s.cfg.Name),
			applogger.String("symbol", sig.Symbol),
			applogger.String("action", string(sig.Action)),
			applogger.String("strength", string(sig.Strength)),
			applogger.Float64("price", sig.Price))
	}
	return sig
}

// StopLossPrice derives the protective stop from the entry price:
// below entry for LONG, above entry for SHORT.
func (s *CrossoverStrategy) StopLossPrice(entryPrice float64, side models.Side) float64 {
	if side == models.SideLong {
		return entryPrice * (1 - s.cfg.StopLossPercent/100)
	}
	return entryPrice * (1 + s.cfg.StopLossPercent/100)
}

// RecentSignals returns up to limit most recent signals, oldest first.
func (s *CrossoverStrategy) RecentSignals(limit int) []*models.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.signals
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([]*models.Signal, len(list))
	for i, sig := range list {
		cp := *sig
		out[i] = &cp
	}
	return out
}

func (s *CrossoverStrategy) record(sig *models.Signal) {
	s.mu.Lock()
	s.signals = append(s.signals, sig)
	if len(s.signals) > s.cfg.MaxSignals {
		s.signals = s.signals[1:]
	}
	s.mu.Unlock()
}
