package crossimpact

import (
	"time"

	"CrossImpact/internal/domain/models"
)

// BucketComposite folds a composite OFI event series onto the calendar grid
// used by the return series. OFI over an interval is the sum of the event
// scores inside it: an event at ts lands in the grid point labelling the
// end of its bin, so the value at grid point t only aggregates flow known
// at t (no look-ahead). Symbols trade at different moments; bucketing onto
// a shared grid is what makes exact timestamp alignment across symbols
// meaningful.
func BucketComposite(records []models.CompositeOFIRecord, bin time.Duration) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(records))
	for _, rec := range records {
		label := rec.Timestamp.Truncate(bin)
		if label.Before(rec.Timestamp) {
			label = label.Add(bin)
		}
		out[label] += rec.Score
	}
	return out
}

// BuildDesign assembles the regression design for one (target, horizon,
// mode) unit. Contemporaneous mode pairs every symbol's composite at t with
// the target's return over [t, t+h]; lagged mode uses the composites at
// t-h. A row is emitted only when the target return and every symbol's
// composite exist at the required timestamps; incomplete rows are dropped
// outright rather than imputed, keeping the design fully dense. The row
// count therefore equals the size of the timestamp intersection, not the
// union.
func BuildDesign(
	target string,
	targetReturns []models.PriceChangeRecord,
	composites map[string]map[time.Time]float64,
	mode models.RegressionMode,
	horizon time.Duration,
) []models.DesignRow {
	var rows []models.DesignRow
	for _, ret := range targetReturns {
		ts := ret.Timestamp
		if mode == models.ModeLagged {
			ts = ts.Add(-horizon)
		}

		self, ok := composites[target][ts]
		if !ok {
			continue
		}

		cross := make(map[string]float64, len(composites)-1)
		complete := true
		for sym, series := range composites {
			if sym == target {
				continue
			}
			v, ok := series[ts]
			if !ok {
				complete = false
				break
			}
			cross[sym] = v
		}
		if !complete {
			continue
		}

		rows = append(rows, models.DesignRow{
			Timestamp:    ret.Timestamp,
			TargetSymbol: target,
			TargetReturn: ret.Return,
			SelfOFI:      self,
			CrossOFI:     cross,
		})
	}
	return rows
}
