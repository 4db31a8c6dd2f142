package models

// Requests for the trading HTTP endpoints. Defined in domain for consistency and reuse.

type CandlesRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type PositionsRequest struct {
	Variant string `query:"variant" json:"variant" validate:"omitempty,oneof=A B"`
}

type TradesRequest struct {
	Limit int `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type SignalsRequest struct {
	Variant string `query:"variant" json:"variant" validate:"omitempty,oneof=A B"`
	Limit   int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type AddSymbolRequest struct {
	Symbol string `json:"symbol" validate:"required,min=5,max=20"`
}
