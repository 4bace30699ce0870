package models

import "time"

// SymbolDiagnostics summarizes the per-symbol stage of one batch run.
type SymbolDiagnostics struct {
	Symbol            string  `json:"symbol"`
	SnapshotsRead     int     `json:"snapshots_read"`
	SnapshotsRejected int     `json:"snapshots_rejected"`
	OFIPoints         int     `json:"ofi_points"`
	ExplainedVariance float64 `json:"explained_variance"`
	LowFidelity       bool    `json:"low_fidelity"`
	Skipped           bool    `json:"skipped"`
	SkipReason        string  `json:"skip_reason,omitempty"`
}

// BatchReport is the complete output of one batch run. Every requested
// (target, horizon, mode) unit appears in Regressions, either as a fit or
// as a failure marker; nothing is silently dropped.
type BatchReport struct {
	StartedAt   time.Time                       `json:"started_at"`
	FinishedAt  time.Time                       `json:"finished_at"`
	Symbols     []SymbolDiagnostics             `json:"symbols"`
	Composite   map[string][]CompositeOFIRecord `json:"composite"`
	Returns     map[string][]PriceChangeRecord  `json:"returns"`
	Regressions []RegressionResult              `json:"regressions"`
}

// FailedUnits returns the regression units that did not produce a fit.
func (r *BatchReport) FailedUnits() []RegressionResult {
	var out []RegressionResult
	for _, res := range r.Regressions {
		if res.Failed {
			out = append(out, res)
		}
	}
	return out
}
