package models

import "time"

// LevelOFIRecord is the per-level order flow imbalance between one snapshot
// and its immediate predecessor. The first snapshot of a series has no
// predecessor and produces no record.
type LevelOFIRecord struct {
	Symbol    string              `json:"symbol"`
	Timestamp time.Time           `json:"timestamp"`
	Levels    [BookLevels]float64 `json:"levels"`
}

// CompositeOFIRecord is the one-dimensional projection of the level OFI
// vector at a timestamp. Loadings and ExplainedVariance describe the fit
// that produced the score; they are diagnostics, not consumed downstream.
type CompositeOFIRecord struct {
	Symbol            string              `json:"symbol"`
	Timestamp         time.Time           `json:"timestamp"`
	Score             float64             `json:"score"`
	Loadings          [BookLevels]float64 `json:"loadings"`
	ExplainedVariance float64             `json:"explained_variance"`
	LowFidelity       bool                `json:"low_fidelity"`
}

// PriceChangeRecord is the forward mid-price return at a fixed horizon,
// anchored at a calendar grid point.
type PriceChangeRecord struct {
	Symbol    string        `json:"symbol"`
	Timestamp time.Time     `json:"timestamp"`
	Horizon   time.Duration `json:"horizon"`
	Return    float64       `json:"return"`
}
