package models

import "time"

// SignalAction is the direction a signal asks for.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
)

// SignalStrength grades a signal by how far price sits from the EMA.
type SignalStrength string

const (
	StrengthStrong   SignalStrength = "STRONG"
	StrengthModerate SignalStrength = "MODERATE"
)

// Indicators is the snapshot computed over a candle history.
// Note: no transport (json/http) concerns here.
type Indicators struct {
	CurrentPrice float64
	SMAShort     float64
	SMALong      float64
	EMA          float64
}

// Signal is a directional trading signal produced by one strategy variant
// for one finalized candle. Ephemeral; kept only in a bounded recent buffer.
type Signal struct {
	Symbol          string
	Action          SignalAction
	Price           float64
	Timestamp       time.Time
	CandleTime      time.Time
	Strength        SignalStrength
	Indicators      Indicators
	Reason          string
	Variant         string
	StopLossPercent float64
}
