package models

import "errors"

// Sentinel errors for the failure kinds the pipeline distinguishes.
// All failures are unit-scoped: one symbol, one horizon, one mode. They are
// recorded on the affected unit and never abort the batch.
var (
	// ErrNonMonotonicTimestamp marks a snapshot whose timestamp does not
	// strictly increase within its symbol's series.
	ErrNonMonotonicTimestamp = errors.New("non-monotonic snapshot timestamp")

	// ErrInsufficientHistory marks a symbol or unit with too few
	// observations for a stable covariance estimate or a well-posed fit.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrSingularDesign marks a rank-deficient or near-collinear design
	// matrix for one regression unit.
	ErrSingularDesign = errors.New("singular design matrix")

	// ErrEmptyBook marks a snapshot with no usable top of book.
	ErrEmptyBook = errors.New("empty book snapshot")
)
