package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"CrossImpact/internal/domain/models"
	drepo "CrossImpact/internal/domain/repository"
	"CrossImpact/internal/services/crossimpact"
	"CrossImpact/internal/services/ofi"
	"CrossImpact/internal/services/pca"
	"CrossImpact/internal/services/returns"
	"CrossImpact/pkg/logger"
	"CrossImpact/pkg/queue"
)

// PipelineConfig carries the analysis parameters for one batch run.
type PipelineConfig struct {
	Bin          time.Duration
	Horizons     []time.Duration
	Modes        []models.RegressionMode
	Workers      int
	MinObs       int
	MinExplained float64
}

// Pipeline turns pre-loaded book snapshots into composite OFI series,
// forward returns and cross-impact regression results. The per-symbol
// stage runs on a fixed worker pool; the cross-sectional stage starts only
// after every symbol has finished (explicit join). Failures are
// unit-scoped: a bad symbol or an unfittable regression is reported in the
// batch output and the rest of the run proceeds.
type Pipeline struct {
	source  drepo.SnapshotSource
	metrics drepo.Metrics
	cfg     PipelineConfig
	l       *logger.Logger
}

func NewPipeline(source drepo.SnapshotSource, metrics drepo.Metrics, cfg PipelineConfig, l *logger.Logger) *Pipeline {
	return &Pipeline{source: source, metrics: metrics, cfg: cfg, l: l}
}

// symbolOutput is what the per-symbol stage hands over the barrier.
type symbolOutput struct {
	diag      models.SymbolDiagnostics
	composite []models.CompositeOFIRecord
	returns   map[time.Duration][]models.PriceChangeRecord
}

// Run executes one batch and returns a report enumerating every requested
// (target, horizon, mode) unit with either a fit or a failure marker.
func (p *Pipeline) Run(ctx context.Context) (*models.BatchReport, error) {
	report := &models.BatchReport{
		StartedAt: time.Now().UTC(),
		Composite: make(map[string][]models.CompositeOFIRecord),
		Returns:   make(map[string][]models.PriceChangeRecord),
	}

	snapshots, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	symbols := make([]string, 0, len(snapshots))
	for sym := range snapshots {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	outputs := p.runSymbolStage(ctx, symbols, snapshots)

	for _, sym := range symbols {
		out := outputs[sym]
		report.Symbols = append(report.Symbols, out.diag)
		if out.diag.Skipped {
			continue
		}
		report.Composite[sym] = out.composite
		for _, h := range p.cfg.Horizons {
			report.Returns[sym] = append(report.Returns[sym], out.returns[h]...)
		}
	}

	report.Regressions = p.runCrossStage(symbols, outputs)
	report.FinishedAt = time.Now().UTC()

	p.l.Info("batch finished",
		logger.Int("symbols", len(symbols)),
		logger.Int("units", len(report.Regressions)),
		logger.Int("failed_units", len(report.FailedUnits())),
		logger.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// runSymbolStage computes level OFI, the PCA composite and forward returns
// for every symbol on the worker pool, then joins. Symbols are independent;
// nothing is shared between tasks except the result map guarded by the
// join.
func (p *Pipeline) runSymbolStage(ctx context.Context, symbols []string, snapshots map[string][]models.BookSnapshot) map[string]*symbolOutput {
	start := time.Now()
	outputs := make(map[string]*symbolOutput, len(symbols))
	for _, sym := range symbols {
		outputs[sym] = &symbolOutput{}
	}

	pool := queue.NewPool(ctx, p.cfg.Workers)
	defer pool.Close()

	for _, sym := range symbols {
		sym := sym
		snaps := snapshots[sym]
		out := outputs[sym]
		pool.Submit(func(ctx context.Context) {
			*out = p.processSymbol(sym, snaps)
		})
	}
	pool.Wait()

	p.metrics.RecordStageDuration("symbol", time.Since(start).Seconds())
	return outputs
}

func (p *Pipeline) processSymbol(sym string, snaps []models.BookSnapshot) symbolOutput {
	out := symbolOutput{
		diag: models.SymbolDiagnostics{Symbol: sym, SnapshotsRead: len(snaps)},
	}
	p.metrics.RecordSnapshots(sym, len(snaps))

	levelSeries, rejected := ofi.Series(snaps)
	out.diag.SnapshotsRejected = rejected
	out.diag.OFIPoints = len(levelSeries)
	if rejected > 0 {
		for i := 0; i < rejected; i++ {
			p.metrics.RecordRejected(sym, "non_monotonic_ts")
		}
		p.l.Warn("snapshots rejected",
			logger.String("symbol", sym),
			logger.Int("rejected", rejected),
			logger.Error(models.ErrNonMonotonicTimestamp),
		)
	}

	composite, err := pca.Reduce(levelSeries, p.cfg.MinObs, p.cfg.MinExplained)
	if err != nil {
		out.diag.Skipped = true
		out.diag.SkipReason = err.Error()
		p.l.Warn("symbol skipped",
			logger.String("symbol", sym),
			logger.Error(err),
		)
		return out
	}
	out.composite = composite
	out.diag.ExplainedVariance = composite[0].ExplainedVariance
	out.diag.LowFidelity = composite[0].LowFidelity
	p.metrics.RecordExplainedVariance(sym, composite[0].ExplainedVariance)
	if composite[0].LowFidelity {
		p.l.Warn("low-fidelity composite",
			logger.String("symbol", sym),
			logger.Float64("explained_variance", composite[0].ExplainedVariance),
		)
	}

	grid := returns.MidGrid(snaps, p.cfg.Bin)
	out.returns = make(map[time.Duration][]models.PriceChangeRecord, len(p.cfg.Horizons))
	for _, h := range p.cfg.Horizons {
		recs, err := returns.ForwardReturns(sym, grid, p.cfg.Bin, h)
		if err != nil {
			p.l.Warn("forward returns",
				logger.String("symbol", sym),
				logger.Duration("horizon", h),
				logger.Error(err),
			)
			continue
		}
		out.returns[h] = recs
	}
	return out
}

// runCrossStage builds and fits every requested unit. Symbols skipped in
// the per-symbol stage still get their units enumerated, as failures, so
// the batch output is complete. A skipped symbol has no composite series,
// so it is also removed from every other target's regressor set: the dense
// design covers the surviving symbols, not the requested universe, and its
// width can vary between runs.
func (p *Pipeline) runCrossStage(symbols []string, outputs map[string]*symbolOutput) []models.RegressionResult {
	start := time.Now()

	buckets := make(map[string]map[time.Time]float64, len(symbols))
	for _, sym := range symbols {
		if outputs[sym].diag.Skipped {
			continue
		}
		buckets[sym] = crossimpact.BucketComposite(outputs[sym].composite, p.cfg.Bin)
	}

	var results []models.RegressionResult
	for _, target := range symbols {
		for _, h := range p.cfg.Horizons {
			for _, mode := range p.cfg.Modes {
				res := p.fitUnit(target, h, mode, outputs, buckets)
				p.metrics.RecordUnit(string(mode), res.Failed)
				if res.Failed {
					p.l.Warn("regression unit failed",
						logger.String("target", target),
						logger.Duration("horizon", h),
						logger.String("mode", string(mode)),
						logger.String("reason", res.FailReason),
					)
				}
				results = append(results, res)
			}
		}
	}

	p.metrics.RecordStageDuration("cross", time.Since(start).Seconds())
	return results
}

func (p *Pipeline) fitUnit(
	target string,
	h time.Duration,
	mode models.RegressionMode,
	outputs map[string]*symbolOutput,
	buckets map[string]map[time.Time]float64,
) models.RegressionResult {
	out := outputs[target]
	if out.diag.Skipped {
		return models.RegressionResult{
			TargetSymbol: target,
			Horizon:      h,
			Mode:         mode,
			Failed:       true,
			FailReason:   out.diag.SkipReason,
		}
	}

	rows := crossimpact.BuildDesign(target, out.returns[h], buckets, mode, h)
	return crossimpact.Fit(target, h, mode, rows)
}
