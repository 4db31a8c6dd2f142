package models

// OrderResult is the outcome of a market order accepted by the exchange.
type OrderResult struct {
	OrderID       string
	Symbol        string
	Side          SignalAction
	ExecutedQty   float64
	ExecutedPrice float64
	Status        string
}
