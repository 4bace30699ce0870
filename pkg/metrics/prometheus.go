package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	snapshotsTotal    *prometheus.CounterVec
	rejectedTotal     *prometheus.CounterVec
	unitsTotal        *prometheus.CounterVec
	explainedVariance *prometheus.GaugeVec
	stageDuration     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		snapshotsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossimpact_snapshots_total",
				Help: "Total book snapshots processed per symbol",
			},
			[]string{"symbol"},
		),
		rejectedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossimpact_snapshots_rejected_total",
				Help: "Snapshots rejected during validation, by kind",
			},
			[]string{"symbol", "kind"},
		),
		unitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossimpact_regression_units_total",
				Help: "Regression units attempted, by mode and outcome",
			},
			[]string{"mode", "result"},
		),
		explainedVariance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crossimpact_pca_explained_variance",
				Help: "Explained-variance fraction of the first principal component",
			},
			[]string{"symbol"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crossimpact_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordSnapshots records snapshots read for a symbol.
func (r *Recorder) RecordSnapshots(symbol string, n int) {
	r.snapshotsTotal.WithLabelValues(symbol).Add(float64(n))
}

// RecordRejected records a rejected snapshot of the given kind.
func (r *Recorder) RecordRejected(symbol string, kind string) {
	r.rejectedTotal.WithLabelValues(symbol, kind).Inc()
}

// RecordUnit records one attempted regression unit.
func (r *Recorder) RecordUnit(mode string, failed bool) {
	result := "ok"
	if failed {
		result = "failed"
	}
	r.unitsTotal.WithLabelValues(mode, result).Inc()
}

// RecordExplainedVariance records the PCA explained-variance fraction.
func (r *Recorder) RecordExplainedVariance(symbol string, frac float64) {
	r.explainedVariance.WithLabelValues(symbol).Set(frac)
}

// RecordStageDuration records a stage duration in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}
