package store

import (
	"sync"
	"time"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
)

// PositionStore is the open/closed position ledger plus the trade log.
type PositionStore struct {
	mu        sync.Mutex
	positions map[string]*models.Position
	tradeLog  []models.TradeLogEntry
}

func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[string]*models.Position)}
}

// Open records a new position. The caller owns ID construction.
func (s *PositionStore) Open(p *models.Position) {
	if p == nil {
		return
	}
	s.mu.Lock()
	s.positions[p.ID] = p.Clone()
	s.mu.Unlock()
}

// Get returns a copy of the position, if present.
func (s *PositionStore) Get(id string) (*models.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// UpdatePnl sets the current price and recomputes the percent PnL.
// No-op for unknown or closed positions.
func (s *PositionStore) UpdatePnl(id string, currentPrice float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok || p.Status != models.PositionOpen {
		return
	}
	p.CurrentPrice = currentPrice
	pct := (currentPrice - p.EntryPrice) / p.EntryPrice * 100
	if p.Side == models.SideShort {
		pct = -pct
	}
	p.PnlPercent = pct
}

// Close transitions the position to CLOSED exactly once.
// A second call for the same id is a no-op.
func (s *PositionStore) Close(id string, closePrice float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok || p.Status != models.PositionOpen {
		return
	}
	now := time.Now().UTC()
	pnl := (closePrice - p.EntryPrice) * p.Quantity
	if p.Side == models.SideShort {
		pnl = -pnl
	}
	p.ClosePrice = &closePrice
	p.CloseTime = &now
	p.FinalPnl = &pnl
	p.Status = models.PositionClosed
}

// ActivePositions returns copies of OPEN positions, optionally filtered
// by variant ("" means all variants).
func (s *PositionStore) ActivePositions(variant string) []*models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		if p.Status != models.PositionOpen {
			continue
		}
		if variant != "" && p.Variant != variant {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// AddTradeLog appends one trade record. Ordering is insertion order.
func (s *PositionStore) AddTradeLog(e models.TradeLogEntry) {
	s.mu.Lock()
	s.tradeLog = append(s.tradeLog, e)
	s.mu.Unlock()
}

// TradeLog returns the most recent limit entries, oldest first.
func (s *PositionStore) TradeLog(limit int) []models.TradeLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.tradeLog
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]models.TradeLogEntry, len(log))
	copy(out, log)
	return out
}

var _ domrepo.PositionStore = (*PositionStore)(nil)
