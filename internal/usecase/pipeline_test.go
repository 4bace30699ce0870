package usecase

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"CrossImpact/internal/domain/models"
	"CrossImpact/pkg/logger"
)

type fakeSource struct {
	data map[string][]models.BookSnapshot
}

func (f *fakeSource) Load(context.Context) (map[string][]models.BookSnapshot, error) {
	return f.data, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	snapshots int
	rejected  int
	units     int
	failed    int
}

func (m *fakeMetrics) RecordSnapshots(_ string, n int) {
	m.mu.Lock()
	m.snapshots += n
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordRejected(string, string) {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordUnit(_ string, failed bool) {
	m.mu.Lock()
	m.units++
	if failed {
		m.failed++
	}
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordExplainedVariance(string, float64) {}

func (m *fakeMetrics) RecordStageDuration(string, float64) {}

// flatSnap has the same size on every level of both sides, so every level
// OFI series is identical and the composite explains all variance.
func flatSnap(sym string, ts time.Time, bidSize float64) models.BookSnapshot {
	bids := make([]models.PriceLevel, models.BookLevels)
	asks := make([]models.PriceLevel, models.BookLevels)
	for i := 0; i < models.BookLevels; i++ {
		bids[i] = models.PriceLevel{Price: 100 - float64(i), Size: bidSize}
		asks[i] = models.PriceLevel{Price: 101 + float64(i), Size: 50}
	}
	return models.BookSnapshot{Symbol: sym, Timestamp: ts, Bids: bids, Asks: asks}
}

func TestPipelineEndToEnd(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

	// Constant prices, varying bid sizes. With equal prices the level OFI
	// is the bid size delta: 100,200,150,150,170,150 gives +100,-50,0,+20,-20.
	sizes := []float64{100, 200, 150, 150, 170, 150}
	aaa := make([]models.BookSnapshot, len(sizes))
	for i, s := range sizes {
		aaa[i] = flatSnap("AAA", t0.Add(time.Duration(i)*time.Minute), s)
	}

	// Too short for the PCA minimum: the symbol must be skipped, not fatal.
	bbb := []models.BookSnapshot{
		flatSnap("BBB", t0, 10),
		flatSnap("BBB", t0.Add(time.Minute), 20),
		flatSnap("BBB", t0.Add(2*time.Minute), 15),
	}

	m := &fakeMetrics{}
	p := NewPipeline(
		&fakeSource{data: map[string][]models.BookSnapshot{"AAA": aaa, "BBB": bbb}},
		m,
		PipelineConfig{
			Bin:          time.Minute,
			Horizons:     []time.Duration{time.Minute, 2 * time.Minute},
			Modes:        []models.RegressionMode{models.ModeContemporaneous, models.ModeLagged},
			Workers:      2,
			MinObs:       4,
			MinExplained: 0.5,
		},
		logger.Nop(),
	)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}

	if len(report.Symbols) != 2 {
		t.Fatalf("want diagnostics for 2 symbols, got %d", len(report.Symbols))
	}
	var aaaDiag, bbbDiag models.SymbolDiagnostics
	for _, d := range report.Symbols {
		switch d.Symbol {
		case "AAA":
			aaaDiag = d
		case "BBB":
			bbbDiag = d
		}
	}

	if aaaDiag.Skipped {
		t.Fatalf("AAA skipped: %s", aaaDiag.SkipReason)
	}
	if aaaDiag.OFIPoints != 5 {
		t.Fatalf("AAA OFI points: want 5, got %d", aaaDiag.OFIPoints)
	}
	if math.Abs(aaaDiag.ExplainedVariance-1) > 1e-6 {
		t.Fatalf("identical level series must explain all variance, got %v", aaaDiag.ExplainedVariance)
	}

	if !bbbDiag.Skipped {
		t.Fatalf("BBB has 2 OFI points against minimum 4, must be skipped")
	}
	if !strings.Contains(bbbDiag.SkipReason, "observations") {
		t.Fatalf("skip reason should name the history shortfall, got %q", bbbDiag.SkipReason)
	}

	if len(report.Composite["AAA"]) != 5 {
		t.Fatalf("AAA composite length: want 5, got %d", len(report.Composite["AAA"]))
	}
	// The composite must preserve the ordering of the size deltas
	// +100, -50, 0, +20, -20 after standardization and sign pinning.
	scores := report.Composite["AAA"]
	if !(scores[0].Score > scores[3].Score && scores[3].Score > scores[2].Score) {
		t.Fatalf("composite order broken for positive deltas: %+v", scores)
	}
	if !(scores[2].Score > scores[4].Score && scores[4].Score > scores[1].Score) {
		t.Fatalf("composite order broken for negative deltas: %+v", scores)
	}
	if _, ok := report.Composite["BBB"]; ok {
		t.Fatalf("skipped symbol must not publish a composite series")
	}

	// Every requested unit is enumerated: 2 symbols x 2 horizons x 2 modes.
	if len(report.Regressions) != 8 {
		t.Fatalf("want 8 regression units, got %d", len(report.Regressions))
	}
	for _, res := range report.Regressions {
		if res.TargetSymbol == "BBB" && !res.Failed {
			t.Fatalf("skipped symbol's units must be failure markers: %+v", res)
		}
	}

	// Constant prices mean zero returns everywhere: contemporaneous fits
	// succeed with an undefined R2 rather than failing.
	for _, res := range report.Regressions {
		if res.TargetSymbol != "AAA" || res.Mode != models.ModeContemporaneous {
			continue
		}
		if res.Failed {
			t.Fatalf("AAA contemporaneous h=%s failed: %s", res.Horizon, res.FailReason)
		}
		if res.R2 != nil {
			t.Fatalf("zero-variance response must leave R2 undefined, got %v", *res.R2)
		}
	}

	if m.units != 8 {
		t.Fatalf("metrics must see every unit, got %d", m.units)
	}
	if m.snapshots != 9 {
		t.Fatalf("metrics snapshots: want 9, got %d", m.snapshots)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Fatalf("report window inverted")
	}
}

// shiftSnap keeps the bid side fixed in price while shifting every ask
// level by off, so the mid moves by off/2 and each ask level contributes a
// full-size tick in the direction of the shift.
func shiftSnap(sym string, ts time.Time, bidSize, off float64) models.BookSnapshot {
	bids := make([]models.PriceLevel, models.BookLevels)
	asks := make([]models.PriceLevel, models.BookLevels)
	for i := 0; i < models.BookLevels; i++ {
		bids[i] = models.PriceLevel{Price: 100 - float64(i), Size: bidSize}
		asks[i] = models.PriceLevel{Price: 101 + float64(i) + off, Size: 50}
	}
	return models.BookSnapshot{Symbol: sym, Timestamp: ts, Bids: bids, Asks: asks}
}

func TestPipelineRecoversSelfImpact(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

	// Ask shifts set AAA's mid path. The bid size deltas are chosen so that
	// after cancelling the 50-lot ask tick, the level OFI at minute k is
	// exactly twice the mid move over [k, k+1]. AAA's forward return is
	// then an exact affine function of its own composite OFI, and the
	// fitted unit must recover a self-dominant relationship.
	shifts := []float64{0, 0.2, -0.2, 0.4, 0.2, 0.6, 0, 0.2}
	sizes := []float64{200, 149.6, 200.2, 150, 200.4, 149.8, 200, 150.2}
	aaa := make([]models.BookSnapshot, len(shifts))
	for i := range shifts {
		aaa[i] = shiftSnap("AAA", t0.Add(time.Duration(i)*time.Minute), sizes[i], shifts[i])
	}

	// BBB trades at constant prices with size deltas unrelated to AAA's
	// flow, supplying a live but uninformative cross regressor.
	bbbSizes := []float64{100, 130, 90, 140, 80, 150, 70, 160}
	bbb := make([]models.BookSnapshot, len(bbbSizes))
	for i, s := range bbbSizes {
		bbb[i] = flatSnap("BBB", t0.Add(time.Duration(i)*time.Minute), s)
	}

	m := &fakeMetrics{}
	p := NewPipeline(
		&fakeSource{data: map[string][]models.BookSnapshot{"AAA": aaa, "BBB": bbb}},
		m,
		PipelineConfig{
			Bin:          time.Minute,
			Horizons:     []time.Duration{time.Minute},
			Modes:        []models.RegressionMode{models.ModeContemporaneous},
			Workers:      2,
			MinObs:       4,
			MinExplained: 0.5,
		},
		logger.Nop(),
	)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}
	for _, d := range report.Symbols {
		if d.Skipped {
			t.Fatalf("%s skipped: %s", d.Symbol, d.SkipReason)
		}
	}
	if len(report.Regressions) != 2 {
		t.Fatalf("want 2 regression units, got %d", len(report.Regressions))
	}

	var unit models.RegressionResult
	found := false
	for _, res := range report.Regressions {
		if res.TargetSymbol == "AAA" {
			unit = res
			found = true
		}
	}
	if !found {
		t.Fatalf("no unit for AAA in %+v", report.Regressions)
	}
	if unit.Failed {
		t.Fatalf("AAA unit failed: %s", unit.FailReason)
	}

	// Returns exist on minutes 0..6, composites on minutes 1..7; the dense
	// intersection is the 6 rows on minutes 1..6.
	if unit.NumObs != 6 {
		t.Fatalf("design rows: want 6, got %d", unit.NumObs)
	}
	if unit.SelfCoef <= 0 {
		t.Fatalf("self coefficient must be positive, got %v", unit.SelfCoef)
	}
	if _, ok := unit.CrossCoefs["BBB"]; !ok {
		t.Fatalf("cross coefficient for BBB missing: %+v", unit.CrossCoefs)
	}
	if unit.R2 == nil || *unit.R2 < 0.99 {
		t.Fatalf("exact affine relation must fit tightly, R2 = %v", unit.R2)
	}
	if unit.Dominance == nil || *unit.Dominance > 0.05 {
		t.Fatalf("self impact must dominate, dominance = %v", unit.Dominance)
	}
}

func TestPipelineRejectedSnapshotsCounted(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	snaps := []models.BookSnapshot{
		flatSnap("AAA", t0, 10),
		flatSnap("AAA", t0.Add(time.Minute), 20),
		flatSnap("AAA", t0.Add(time.Minute), 30), // duplicate timestamp
		flatSnap("AAA", t0.Add(2*time.Minute), 25),
		flatSnap("AAA", t0.Add(3*time.Minute), 40),
	}

	m := &fakeMetrics{}
	p := NewPipeline(
		&fakeSource{data: map[string][]models.BookSnapshot{"AAA": snaps}},
		m,
		PipelineConfig{
			Bin:          time.Minute,
			Horizons:     []time.Duration{time.Minute},
			Modes:        []models.RegressionMode{models.ModeContemporaneous},
			MinObs:       2,
			MinExplained: 0.5,
		},
		logger.Nop(),
	)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}
	if report.Symbols[0].SnapshotsRejected != 1 {
		t.Fatalf("want 1 rejected snapshot, got %d", report.Symbols[0].SnapshotsRejected)
	}
	if m.rejected != 1 {
		t.Fatalf("metrics rejected: want 1, got %d", m.rejected)
	}
	if report.Symbols[0].OFIPoints != 3 {
		t.Fatalf("OFI points: want 3, got %d", report.Symbols[0].OFIPoints)
	}
}
