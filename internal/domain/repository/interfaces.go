package repository

import (
	"context"

	"CrossImpact/internal/domain/models"
)

// SnapshotSource supplies per-symbol, time-ordered book snapshots for one
// analysis window. All data is materialized before the pipeline starts.
type SnapshotSource interface {
	Load(ctx context.Context) (map[string][]models.BookSnapshot, error)
}

// ResultSink receives the pipeline outputs for persistence or publishing.
type ResultSink interface {
	StoreComposite(ctx context.Context, records []models.CompositeOFIRecord) error
	StorePriceChanges(ctx context.Context, records []models.PriceChangeRecord) error
	StoreRegressions(ctx context.Context, results []models.RegressionResult) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordSnapshots(symbol string, n int)
	RecordRejected(symbol string, kind string)
	RecordUnit(mode string, failed bool)
	RecordExplainedVariance(symbol string, frac float64)
	RecordStageDuration(stage string, seconds float64)
}
