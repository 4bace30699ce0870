package pca

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"CrossImpact/internal/domain/models"
)

// Reduce projects a symbol's level OFI history onto a single composite
// series via the first principal component of the standardized level
// series. The fit is independent per symbol; loadings are never pooled.
//
// Each level series is standardized on its own (zero-variance levels become
// all-zero instead of dividing by zero). The loading vector is the largest
// eigenvector of the covariance matrix of the standardized series, with its
// sign fixed so the composite correlates non-negatively with the level-1
// series. When the explained-variance fraction of that component falls
// below minExplained the series is still produced but flagged low-fidelity.
//
// Fewer than minObs records is an insufficient-history failure.
func Reduce(records []models.LevelOFIRecord, minObs int, minExplained float64) ([]models.CompositeOFIRecord, error) {
	n := len(records)
	if n < minObs {
		return nil, fmt.Errorf("pca: %d observations, need %d: %w", n, minObs, models.ErrInsufficientHistory)
	}

	z := standardize(records)

	cov := covariance(z, n)
	loadings, explained := principalComponent(cov)

	scores := make([]float64, n)
	for t := 0; t < n; t++ {
		var s float64
		for i := 0; i < models.BookLevels; i++ {
			s += loadings[i] * z[i][t]
		}
		scores[t] = s
	}

	if needsFlip(scores, z[0], loadings) {
		for i := range loadings {
			loadings[i] = -loadings[i]
		}
		for t := range scores {
			scores[t] = -scores[t]
		}
	}

	low := explained < minExplained
	out := make([]models.CompositeOFIRecord, n)
	for t, rec := range records {
		out[t] = models.CompositeOFIRecord{
			Symbol:            rec.Symbol,
			Timestamp:         rec.Timestamp,
			Score:             scores[t],
			Loadings:          loadings,
			ExplainedVariance: explained,
			LowFidelity:       low,
		}
	}
	return out, nil
}

// standardize returns the level series as rows, each centered and scaled by
// its sample standard deviation. A level with zero variance maps to an
// all-zero row.
func standardize(records []models.LevelOFIRecord) [models.BookLevels][]float64 {
	n := len(records)
	var z [models.BookLevels][]float64
	for i := 0; i < models.BookLevels; i++ {
		series := make([]float64, n)
		var sum float64
		for t, rec := range records {
			series[t] = rec.Levels[i]
			sum += rec.Levels[i]
		}
		mean := sum / float64(n)
		var ss float64
		for _, v := range series {
			d := v - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(n-1))
		if std == 0 {
			z[i] = make([]float64, n)
			continue
		}
		for t := range series {
			series[t] = (series[t] - mean) / std
		}
		z[i] = series
	}
	return z
}

func covariance(z [models.BookLevels][]float64, n int) *mat.SymDense {
	cov := mat.NewSymDense(models.BookLevels, nil)
	for i := 0; i < models.BookLevels; i++ {
		for j := i; j < models.BookLevels; j++ {
			var s float64
			for t := 0; t < n; t++ {
				s += z[i][t] * z[j][t]
			}
			cov.SetSym(i, j, s/float64(n-1))
		}
	}
	return cov
}

// principalComponent returns the unit eigenvector of the largest eigenvalue
// and the fraction of total variance it explains. A fully degenerate
// covariance (all levels constant) yields a zero explained fraction.
func principalComponent(cov *mat.SymDense) ([models.BookLevels]float64, float64) {
	var loadings [models.BookLevels]float64

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		// Symmetric factorization only fails on NaN/Inf input; fall back
		// to the raw level-1 signal.
		loadings[0] = 1
		return loadings, 0
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// gonum orders eigenvalues ascending.
	top := len(vals) - 1
	var total float64
	for _, v := range vals {
		total += v
	}
	for i := 0; i < models.BookLevels; i++ {
		loadings[i] = vecs.At(i, top)
	}
	if total <= 0 {
		return loadings, 0
	}
	return loadings, vals[top] / total
}

// needsFlip decides whether the eigenvector sign must be inverted. The sign
// of an eigenvector is mathematically arbitrary; it is pinned so the
// composite correlates non-negatively with level-1 OFI. When that
// correlation is exactly zero (level 1 degenerate) the largest-magnitude
// loading is made positive instead, keeping the result deterministic.
func needsFlip(scores, level1 []float64, loadings [models.BookLevels]float64) bool {
	var cov float64
	for t := range scores {
		cov += scores[t] * level1[t]
	}
	if cov != 0 {
		return cov < 0
	}

	maxIdx := 0
	for i := 1; i < models.BookLevels; i++ {
		if math.Abs(loadings[i]) > math.Abs(loadings[maxIdx]) {
			maxIdx = i
		}
	}
	return loadings[maxIdx] < 0
}
