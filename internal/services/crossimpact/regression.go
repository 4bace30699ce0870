package crossimpact

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"CrossImpact/internal/domain/models"
)

// Fit runs ordinary least squares for one (target, horizon, mode) unit:
// response is the target's forward return, regressors are an intercept, the
// target's own composite OFI and every other symbol's composite OFI. A unit
// that cannot be fit (too few rows, rank-deficient or near-collinear
// design) comes back as a failure marker instead of an error so the rest of
// the batch keeps going.
func Fit(target string, horizon time.Duration, mode models.RegressionMode, rows []models.DesignRow) models.RegressionResult {
	res := models.RegressionResult{
		TargetSymbol: target,
		Horizon:      horizon,
		Mode:         mode,
		NumObs:       len(rows),
	}

	crossSyms := crossSymbols(rows)
	p := 2 + len(crossSyms)
	if len(rows) < p {
		res.Failed = true
		res.FailReason = models.ErrInsufficientHistory.Error()
		return res
	}

	n := len(rows)
	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range rows {
		x.Set(i, 0, 1)
		x.Set(i, 1, row.SelfOFI)
		for j, sym := range crossSyms {
			x.Set(i, 2+j, row.CrossOFI[sym])
		}
		y.SetVec(i, row.TargetReturn)
	}

	// QR least squares; gonum reports approximate singularity through the
	// returned error, which is exactly the collinear-design case.
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		res.Failed = true
		res.FailReason = models.ErrSingularDesign.Error()
		return res
	}

	res.Intercept = beta.AtVec(0)
	res.SelfCoef = beta.AtVec(1)
	res.CrossCoefs = make(map[string]float64, len(crossSyms))
	for j, sym := range crossSyms {
		res.CrossCoefs[sym] = beta.AtVec(2 + j)
	}

	res.R2 = rSquared(x, y, &beta)
	res.Dominance = dominance(res.SelfCoef, res.CrossCoefs)
	return res
}

func crossSymbols(rows []models.DesignRow) []string {
	if len(rows) == 0 {
		return nil
	}
	syms := make([]string, 0, len(rows[0].CrossOFI))
	for sym := range rows[0].CrossOFI {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// rSquared is the fraction of response variance explained by the fit. A
// constant response has no variance to explain, so the value is undefined
// rather than forced to a number.
func rSquared(x *mat.Dense, y *mat.VecDense, beta *mat.VecDense) *float64 {
	n := y.Len()

	var mean float64
	for i := 0; i < n; i++ {
		mean += y.AtVec(i)
	}
	mean /= float64(n)

	var sst float64
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - mean
		sst += d * d
	}
	if sst == 0 {
		return nil
	}

	var fitted mat.VecDense
	fitted.MulVec(x, beta)
	var ssr float64
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - fitted.AtVec(i)
		ssr += d * d
	}

	r2 := 1 - ssr/sst
	return &r2
}

// dominance is the mean absolute cross coefficient over the absolute self
// coefficient. It quantifies self- versus cross-impact and is computed with
// the same formula for both modes so the two are directly comparable.
func dominance(selfCoef float64, cross map[string]float64) *float64 {
	if len(cross) == 0 || selfCoef == 0 {
		return nil
	}
	var sum float64
	for _, c := range cross {
		sum += math.Abs(c)
	}
	d := sum / float64(len(cross)) / math.Abs(selfCoef)
	return &d
}
