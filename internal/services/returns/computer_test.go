package returns

import (
	"testing"
	"time"

	"CrossImpact/internal/domain/models"
)

func midSnap(ts time.Time, mid float64) models.BookSnapshot {
	return models.BookSnapshot{
		Symbol:    "TEST",
		Timestamp: ts,
		Bids:      []models.PriceLevel{{Price: mid - 0.5, Size: 1}},
		Asks:      []models.PriceLevel{{Price: mid + 0.5, Size: 1}},
	}
}

func TestMidGridForwardFill(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	snaps := []models.BookSnapshot{
		midSnap(t0.Add(10*time.Second), 100),
		midSnap(t0.Add(70*time.Second), 101),
		// gap over the 2m and 3m grid points
		midSnap(t0.Add(200*time.Second), 104),
	}

	grid := MidGrid(snaps, time.Minute)
	if len(grid) != 3 {
		t.Fatalf("want 3 grid points, got %d: %+v", len(grid), grid)
	}

	// The 9:31:10 update is after the 9:31:00 grid point, so 9:31 must
	// still hold the 9:30:10 mid.
	if !grid[0].Timestamp.Equal(t0.Add(time.Minute)) || grid[0].Mid != 100 {
		t.Fatalf("grid[0]: want (9:31, 100), got (%s, %v)", grid[0].Timestamp, grid[0].Mid)
	}
	if grid[1].Mid != 101 {
		t.Fatalf("grid[1] must forward-fill the 9:31:10 mid, got %v", grid[1].Mid)
	}
	if grid[2].Mid != 101 {
		t.Fatalf("grid[2] must not look ahead to the 9:33:20 mid, got %v", grid[2].Mid)
	}
}

func TestMidGridBeforeFirstObservation(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 30, 0, time.UTC)
	grid := MidGrid([]models.BookSnapshot{midSnap(t0, 100), midSnap(t0.Add(2*time.Minute), 102)}, time.Minute)
	for _, p := range grid {
		if p.Timestamp.Before(t0) {
			t.Fatalf("grid point %s precedes the first observation", p.Timestamp)
		}
	}
}

func TestMidGridSkipsEmptyBook(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	empty := models.BookSnapshot{Symbol: "TEST", Timestamp: t0.Add(30 * time.Second)}
	grid := MidGrid([]models.BookSnapshot{
		midSnap(t0, 100),
		empty,
		midSnap(t0.Add(2*time.Minute), 102),
	}, time.Minute)
	for _, p := range grid {
		if p.Mid == 0 {
			t.Fatalf("one-sided snapshot leaked into the grid at %s", p.Timestamp)
		}
	}
}

func TestForwardReturnsSimpleDifference(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	grid := []GridPoint{
		{Timestamp: t0, Mid: 100},
		{Timestamp: t0.Add(time.Minute), Mid: 102},
		{Timestamp: t0.Add(2 * time.Minute), Mid: 101},
		{Timestamp: t0.Add(3 * time.Minute), Mid: 105},
	}

	out, err := ForwardReturns("TEST", grid, time.Minute, 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 records (last two have no t+h), got %d", len(out))
	}
	if out[0].Return != 1 {
		t.Fatalf("return[0]: want 101-100=1, got %v", out[0].Return)
	}
	if out[1].Return != 3 {
		t.Fatalf("return[1]: want 105-102=3, got %v", out[1].Return)
	}
	if out[0].Horizon != 2*time.Minute {
		t.Fatalf("horizon not carried: %v", out[0].Horizon)
	}
}

func TestForwardReturnsHorizonValidation(t *testing.T) {
	grid := []GridPoint{{Timestamp: time.Now(), Mid: 1}}
	if _, err := ForwardReturns("TEST", grid, time.Minute, 90*time.Second); err == nil {
		t.Fatalf("non-multiple horizon must be rejected")
	}
	if _, err := ForwardReturns("TEST", grid, time.Minute, -time.Minute); err == nil {
		t.Fatalf("negative horizon must be rejected")
	}
}
