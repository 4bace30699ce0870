package ofi

import (
	"testing"
	"time"

	"CrossImpact/internal/domain/models"
)

func snap(ts time.Time, bids, asks []models.PriceLevel) models.BookSnapshot {
	return models.BookSnapshot{Symbol: "TEST", Timestamp: ts, Bids: bids, Asks: asks}
}

func fullBook(bidSize, askSize float64) ([]models.PriceLevel, []models.PriceLevel) {
	bids := make([]models.PriceLevel, models.BookLevels)
	asks := make([]models.PriceLevel, models.BookLevels)
	for i := 0; i < models.BookLevels; i++ {
		bids[i] = models.PriceLevel{Price: 100 - float64(i), Size: bidSize}
		asks[i] = models.PriceLevel{Price: 101 + float64(i), Size: askSize}
	}
	return bids, asks
}

func TestLevelOFIUnchangedBook(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bids, asks := fullBook(50, 50)
	prev := snap(t0, bids, asks)
	cur := snap(t0.Add(time.Second), bids, asks)

	out := LevelOFI(&prev, &cur)
	for n, v := range out {
		if v != 0 {
			t.Fatalf("level %d: want 0 for unchanged book, got %v", n, v)
		}
	}
}

func TestLevelOFIEqualPricesUsesSizeDelta(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bids, asks := fullBook(100, 40)
	prev := snap(t0, bids, asks)

	bids2, asks2 := fullBook(130, 40)
	asks2[0].Size = 55 // ask size up at equal price subtracts
	cur := snap(t0.Add(time.Second), bids2, asks2)

	out := LevelOFI(&prev, &cur)
	if out[0] != 30-15 {
		t.Fatalf("level 0: want %v, got %v", 30.0-15.0, out[0])
	}
	for n := 1; n < models.BookLevels; n++ {
		if out[n] != 30 {
			t.Fatalf("level %d: want 30, got %v", n, out[n])
		}
	}
}

func TestLevelOFIBidPriceMoves(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bids, asks := fullBook(100, 40)
	prev := snap(t0, bids, asks)

	// Bid improves at level 0: full new size counts.
	bidsUp, _ := fullBook(80, 40)
	bidsUp[0].Price = 100.5
	cur := snap(t0.Add(time.Second), bidsUp, asks)
	out := LevelOFI(&prev, &cur)
	if out[0] != 80 {
		t.Fatalf("improved bid: want 80, got %v", out[0])
	}

	// Bid retreats at level 0: previous size is withdrawn.
	bidsDown, _ := fullBook(80, 40)
	bidsDown[0].Price = 99.5
	cur = snap(t0.Add(time.Second), bidsDown, asks)
	out = LevelOFI(&prev, &cur)
	if out[0] != -100 {
		t.Fatalf("retreated bid: want -100, got %v", out[0])
	}
}

func TestLevelOFIAskMirrored(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bids, asks := fullBook(40, 100)
	prev := snap(t0, bids, asks)

	// Ask price drops (aggressive): its new size subtracts in full.
	_, asksDown := fullBook(40, 60)
	asksDown[0].Price = 100.5
	cur := snap(t0.Add(time.Second), bids, asksDown)
	out := LevelOFI(&prev, &cur)
	if out[0] != -60 {
		t.Fatalf("aggressive ask: want -60, got %v", out[0])
	}

	// Ask price rises (retreat): previous size comes back as positive flow.
	_, asksUp := fullBook(40, 60)
	asksUp[0].Price = 101.5
	cur = snap(t0.Add(time.Second), bids, asksUp)
	out = LevelOFI(&prev, &cur)
	if out[0] != 100 {
		t.Fatalf("retreating ask: want 100, got %v", out[0])
	}
}

func TestLevelOFIMissingLevelsContributeZero(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	// Both snapshots report only 2 levels per side.
	shallow := func(ts time.Time, bidSize float64) models.BookSnapshot {
		return snap(ts,
			[]models.PriceLevel{{Price: 100, Size: bidSize}, {Price: 99, Size: 10}},
			[]models.PriceLevel{{Price: 101, Size: 20}, {Price: 102, Size: 10}},
		)
	}
	prev := shallow(t0, 50)
	cur := shallow(t0.Add(time.Second), 70)

	out := LevelOFI(&prev, &cur)
	if out[0] != 20 {
		t.Fatalf("level 0: want 20, got %v", out[0])
	}
	for n := 2; n < models.BookLevels; n++ {
		if out[n] != 0 {
			t.Fatalf("padded level %d: want 0, got %v", n, out[n])
		}
	}
}

func TestSeriesRejectsNonMonotonicTimestamps(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bids, asks := fullBook(10, 10)
	snaps := []models.BookSnapshot{
		snap(t0, bids, asks),
		snap(t0.Add(time.Second), bids, asks),
		snap(t0.Add(time.Second), bids, asks),            // duplicate ts
		snap(t0.Add(500 * time.Millisecond), bids, asks), // goes backwards
		snap(t0.Add(2*time.Second), bids, asks),
	}

	records, rejected := Series(snaps)
	if rejected != 2 {
		t.Fatalf("want 2 rejected snapshots, got %d", rejected)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
	if !records[1].Timestamp.After(records[0].Timestamp) {
		t.Fatalf("records must be strictly increasing in time")
	}
}

func TestSeriesSingleSnapshot(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bids, asks := fullBook(10, 10)
	records, rejected := Series([]models.BookSnapshot{snap(t0, bids, asks)})
	if records != nil || rejected != 0 {
		t.Fatalf("single snapshot must yield no records, got %d (%d rejected)", len(records), rejected)
	}
}
