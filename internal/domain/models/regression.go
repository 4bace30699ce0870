package models

import "time"

// RegressionMode selects how OFI observations are aligned against returns.
type RegressionMode string

const (
	// ModeContemporaneous pairs OFI at t with the return over [t, t+h].
	ModeContemporaneous RegressionMode = "contemporaneous"
	// ModeLagged pairs OFI at t-h with the return over [t, t+h].
	ModeLagged RegressionMode = "lagged"
)

// Valid reports whether the mode is one of the two supported alignments.
func (m RegressionMode) Valid() bool {
	return m == ModeContemporaneous || m == ModeLagged
}

// DesignRow is one fully dense observation of the cross-impact design:
// the target's forward return paired with every symbol's composite OFI at
// the required timestamp. Rows with any missing input are never built.
type DesignRow struct {
	Timestamp    time.Time
	TargetSymbol string
	TargetReturn float64
	SelfOFI      float64
	CrossOFI     map[string]float64
}

// RegressionResult is the OLS fit for one (target, horizon, mode) unit.
// R2 and Dominance are nil when undefined (degenerate response variance,
// zero self coefficient) and the whole unit is marked Failed when the fit
// could not be produced at all.
type RegressionResult struct {
	TargetSymbol string             `json:"target_symbol"`
	Horizon      time.Duration      `json:"horizon"`
	Mode         RegressionMode     `json:"mode"`
	Intercept    float64            `json:"intercept"`
	SelfCoef     float64            `json:"self_coef"`
	CrossCoefs   map[string]float64 `json:"cross_coefs"`
	R2           *float64           `json:"r2"`
	Dominance    *float64           `json:"dominance"`
	NumObs       int                `json:"num_obs"`
	Failed       bool               `json:"failed"`
	FailReason   string             `json:"fail_reason,omitempty"`
}
