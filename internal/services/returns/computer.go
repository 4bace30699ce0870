package returns

import (
	"fmt"
	"time"

	"CrossImpact/internal/domain/models"
)

// GridPoint is the forward-filled mid-price at one calendar grid timestamp.
type GridPoint struct {
	Timestamp time.Time
	Mid       float64
}

// MidGrid samples a symbol's mid-price onto a fixed calendar grid. Snapshots
// are irregularly spaced, so the value at each grid point is the last
// observed mid at or before that point (forward-fill, never look-ahead).
// Grid points before the first observation produce no point at all.
// Snapshots with an empty side of the book or a non-increasing timestamp
// are skipped.
func MidGrid(snaps []models.BookSnapshot, bin time.Duration) []GridPoint {
	type obs struct {
		ts  time.Time
		mid float64
	}
	observations := make([]obs, 0, len(snaps))
	var lastTS time.Time
	for i := range snaps {
		mid, ok := snaps[i].Mid()
		if !ok {
			continue
		}
		if len(observations) > 0 && !snaps[i].Timestamp.After(lastTS) {
			continue
		}
		observations = append(observations, obs{ts: snaps[i].Timestamp, mid: mid})
		lastTS = snaps[i].Timestamp
	}
	if len(observations) == 0 {
		return nil
	}

	first := observations[0].ts
	last := observations[len(observations)-1].ts

	start := first.Truncate(bin)
	if start.Before(first) {
		start = start.Add(bin)
	}
	end := last.Truncate(bin)

	var grid []GridPoint
	idx := 0
	for t := start; !t.After(end); t = t.Add(bin) {
		for idx+1 < len(observations) && !observations[idx+1].ts.After(t) {
			idx++
		}
		if observations[idx].ts.After(t) {
			continue
		}
		grid = append(grid, GridPoint{Timestamp: t, Mid: observations[idx].mid})
	}
	return grid
}

// ForwardReturns derives forward mid-price returns at the given horizon from
// a sampled grid. The convention is a simple difference applied uniformly:
// return at grid point t = mid(t+h) - mid(t). Grid points whose t+h falls
// beyond the window produce no record. The horizon must be a whole multiple
// of the grid bin.
func ForwardReturns(symbol string, grid []GridPoint, bin, horizon time.Duration) ([]models.PriceChangeRecord, error) {
	if horizon <= 0 || horizon%bin != 0 {
		return nil, fmt.Errorf("horizon %s is not a positive multiple of bin %s", horizon, bin)
	}

	byTS := make(map[time.Time]float64, len(grid))
	for _, p := range grid {
		byTS[p.Timestamp] = p.Mid
	}

	out := make([]models.PriceChangeRecord, 0, len(grid))
	for _, p := range grid {
		future, ok := byTS[p.Timestamp.Add(horizon)]
		if !ok {
			continue
		}
		out = append(out, models.PriceChangeRecord{
			Symbol:    symbol,
			Timestamp: p.Timestamp,
			Horizon:   horizon,
			Return:    future - p.Mid,
		})
	}
	return out, nil
}
