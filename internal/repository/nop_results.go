package repository

import (
	"context"

	"CrossImpact/internal/domain/models"
	drepo "CrossImpact/internal/domain/repository"
)

// NopResults discards all pipeline outputs. Used when no backend is
// configured and results are consumed via the HTTP API or logs only.
type NopResults struct{}

func NewNopResults() drepo.ResultSink {
	return NopResults{}
}

func (NopResults) StoreComposite(context.Context, []models.CompositeOFIRecord) error { return nil }

func (NopResults) StorePriceChanges(context.Context, []models.PriceChangeRecord) error { return nil }

func (NopResults) StoreRegressions(context.Context, []models.RegressionResult) error { return nil }

func (NopResults) Close() error { return nil }
