package models

import "time"

// Side is the direction of a position or order.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position is one entry in the position ledger. The only transition is
// OPEN -> CLOSED; a closed position is immutable.
type Position struct {
	ID           string
	Variant      string
	Symbol       string
	Side         Side
	EntryPrice   float64
	CurrentPrice float64
	Quantity     float64
	SLPrice      float64
	PnlPercent   float64
	Status       PositionStatus
	OpenTime     time.Time
	CloseTime    *time.Time
	ClosePrice   *float64
	FinalPnl     *float64
}

// Clone returns a defensive copy.
func (p *Position) Clone() *Position {
	cp := *p
	if p.CloseTime != nil {
		t := *p.CloseTime
		cp.CloseTime = &t
	}
	if p.ClosePrice != nil {
		v := *p.ClosePrice
		cp.ClosePrice = &v
	}
	if p.FinalPnl != nil {
		v := *p.FinalPnl
		cp.FinalPnl = &v
	}
	return &cp
}

// TradeLogEntry is one append-only record of an executed trade.
type TradeLogEntry struct {
	Timestamp time.Time
	Symbol    string
	Side      SignalAction
	Quantity  float64
	Price     float64
	Variant   string
	OrderID   string
	Reason    string
}
