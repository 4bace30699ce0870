package ofi

import (
	"CrossImpact/internal/domain/models"
)

// LevelOFI computes the per-level order flow imbalance between two
// consecutive snapshots of the same symbol, following Cont, Kukanov and
// Stoikov. For each level the bid contribution is +size(t) when the bid
// price improved, the size delta when it held, and -size(t-1) when it
// retreated; the ask side is mirrored. Level OFI is bid minus ask
// contribution. Levels beyond what either snapshot reports carry zero size
// and an unchanged price, so they contribute exactly 0.
func LevelOFI(prev, cur *models.BookSnapshot) [models.BookLevels]float64 {
	var out [models.BookLevels]float64
	for n := 0; n < models.BookLevels; n++ {
		bid := sideContribution(prev.BidAt(n), cur.BidAt(n), false)
		ask := sideContribution(prev.AskAt(n), cur.AskAt(n), true)
		out[n] = bid - ask
	}
	return out
}

// sideContribution applies the directional size rule for one side of one
// level. For asks the price comparison is inverted: a lower ask price is
// the aggressive move.
func sideContribution(prev, cur models.PriceLevel, ask bool) float64 {
	improved := cur.Price > prev.Price
	retreated := cur.Price < prev.Price
	if ask {
		improved, retreated = retreated, improved
	}
	switch {
	case improved:
		return cur.Size
	case retreated:
		return -prev.Size
	default:
		return cur.Size - prev.Size
	}
}

// Series converts a symbol's ordered snapshots into its level OFI series.
// The first snapshot has no predecessor and yields no record. Snapshots
// whose timestamp does not strictly increase are rejected, not reordered;
// the count of rejected snapshots is returned so the caller can log it.
// Gaps in the snapshot stream are not interpolated: a rejected snapshot
// simply yields one fewer OFI point.
func Series(snaps []models.BookSnapshot) ([]models.LevelOFIRecord, int) {
	if len(snaps) < 2 {
		return nil, 0
	}

	out := make([]models.LevelOFIRecord, 0, len(snaps)-1)
	rejected := 0
	prev := &snaps[0]
	for i := 1; i < len(snaps); i++ {
		cur := &snaps[i]
		if !cur.Timestamp.After(prev.Timestamp) {
			rejected++
			continue
		}
		out = append(out, models.LevelOFIRecord{
			Symbol:    cur.Symbol,
			Timestamp: cur.Timestamp,
			Levels:    LevelOFI(prev, cur),
		})
		prev = cur
	}
	return out, rejected
}
