package store

import (
	"sync"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
)

const DefaultMaxCandles = 100

// CandleStore keeps finalized candles per symbol, capped FIFO.
type CandleStore struct {
	mu      sync.Mutex
	candles map[string][]*models.Candle
	max     int
}

func NewCandleStore(maxPerSymbol int) *CandleStore {
	if maxPerSymbol <= 0 {
		maxPerSymbol = DefaultMaxCandles
	}
	return &CandleStore{
		candles: make(map[string][]*models.Candle),
		max:     maxPerSymbol,
	}
}

// Add appends a finalized candle, evicting the oldest entry on overflow.
func (s *CandleStore) Add(c *models.Candle) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.candles[c.Symbol], c.Clone())
	if len(list) > s.max {
		list = list[1:]
	}
	s.candles[c.Symbol] = list
}

// Candles returns up to limit most recent candles for the symbol,
// oldest first. limit <= 0 returns the full retained history.
func (s *CandleStore) Candles(symbol string, limit int) []*models.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.candles[symbol]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([]*models.Candle, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

// Latest returns the most recent finalized candle for the symbol.
func (s *CandleStore) Latest(symbol string) (*models.Candle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.candles[symbol]
	if len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1].Clone(), true
}

// All returns a snapshot of retained candles for every symbol.
func (s *CandleStore) All() map[string][]*models.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]*models.Candle, len(s.candles))
	for sym, list := range s.candles {
		cp := make([]*models.Candle, len(list))
		for i, c := range list {
			cp[i] = c.Clone()
		}
		out[sym] = cp
	}
	return out
}

var _ domrepo.CandleStore = (*CandleStore)(nil)
