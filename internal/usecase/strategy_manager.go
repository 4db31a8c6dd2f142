package usecase

import (
	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
)

// StrategyManager fans a finalized candle out to every registered variant.
type StrategyManager struct {
	variants map[string]*CrossoverStrategy
	order    []string
	metrics  domrepo.Metrics
}

func NewStrategyManager(metrics domrepo.Metrics, variants ...*CrossoverStrategy) *StrategyManager {
	m := &StrategyManager{variants: make(map[string]*CrossoverStrategy), metrics: metrics}
	for _, v := range variants {
		m.variants[v.Name()] = v
		m.order = append(m.order, v.Name())
	}
	return m
}

// Evaluate runs every variant independently against the candle and returns
// only the variants that produced a signal, each tagged with its variant
// name and stop-loss percent.
func (m *StrategyManager) Evaluate(candle *models.Candle, history []*models.Candle) map[string]*models.Signal {
	signals := make(map[string]*models.Signal)
	for _, name := range m.order {
		strat := m.variants[name]
		sig := strat.ProcessCandle(candle, history)
		if sig == nil {
			continue
		}
		sig.Variant = name
		sig.StopLossPercent = strat.StopLossPercent()
		signals[name] = sig
		if m.metrics != nil {
			m.metrics.RecordSignal(name, string(sig.Action))
		}
	}
	return signals
}

// Strategy returns the variant by name, if registered.
func (m *StrategyManager) Strategy(variant string) (*CrossoverStrategy, bool) {
	s, ok := m.variants[variant]
	return s, ok
}

// Variants lists registered variant names in registration order.
func (m *StrategyManager) Variants() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// RecentSignals aggregates recent signals. With a variant filter it reads a
// single buffer; otherwise it splits the limit across variants.
func (m *StrategyManager) RecentSignals(variant string, limit int) []*models.Signal {
	if variant != "" {
		s, ok := m.variants[variant]
		if !ok {
			return nil
		}
		return s.RecentSignals(limit)
	}
	per := limit
	if n := len(m.order); n > 0 && limit > 0 {
		per = limit / n
		if per == 0 {
			per = 1
		}
	}
	var out []*models.Signal
	for _, name := range m.order {
		out = append(out, m.variants[name].RecentSignals(per)...)
	}
	return out
}
