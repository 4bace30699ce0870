package models

// Requests for the results HTTP endpoints. Defined in domain for consistency and reuse.

type RegressionsRequest struct {
	Target  string `query:"target" json:"target"`
	Horizon string `query:"horizon" json:"horizon"`
	Mode    string `query:"mode" json:"mode" validate:"omitempty,oneof=contemporaneous lagged"`
}

type CompositeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=100000"`
}

type ReturnsRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required"`
	Horizon string `query:"horizon" json:"horizon" validate:"required"`
	N       int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=100000"`
}
