package models

import "time"

// Tick is a single price observation for a symbol.
// Immutable once stored; the tick store keeps only the latest one per symbol.
type Tick struct {
	Symbol     string
	Price      float64
	Quantity   float64
	Timestamp  time.Time // exchange event time
	ReceivedAt time.Time
}
