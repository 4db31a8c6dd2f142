package store

import (
	"sync"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
)

// TickStore holds the latest tick per symbol.
type TickStore struct {
	mu    sync.Mutex
	ticks map[string]*models.Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]*models.Tick)}
}

// Update overwrites the latest tick for the symbol.
func (s *TickStore) Update(t *models.Tick) {
	if t == nil {
		return
	}
	s.mu.Lock()
	s.ticks[t.Symbol] = t
	s.mu.Unlock()
}

// Latest returns the latest tick for the symbol, if any.
func (s *TickStore) Latest(symbol string) (*models.Tick, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.ticks[symbol]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

// All returns a snapshot of the latest ticks for every symbol.
func (s *TickStore) All() map[string]*models.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.Tick, len(s.ticks))
	for sym, t := range s.ticks {
		cp := *t
		out[sym] = &cp
	}
	return out
}

var _ domrepo.TickStore = (*TickStore)(nil)
