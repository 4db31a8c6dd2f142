package models

import "time"

// Candle is a fixed-width OHLCV aggregate for one symbol.
// Invariants: Low <= min(Open, Close), max(Open, Close) <= High,
// CloseTime = OpenTime + window. A finalized candle is never mutated again.
type Candle struct {
	Symbol      string
	OpenTime    time.Time
	CloseTime   time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	TickCount   int
	IsFinalized bool
	FinalizedAt *time.Time
}

// Clone returns a copy so store snapshots cannot be mutated by callers.
func (c *Candle) Clone() *Candle {
	cp := *c
	if c.FinalizedAt != nil {
		t := *c.FinalizedAt
		cp.FinalizedAt = &t
	}
	return &cp
}
