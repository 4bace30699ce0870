package models

import "time"

// BookLevels is the maximum order book depth the pipeline works with.
// Venues reporting fewer levels are padded (zero size, unchanged price).
const BookLevels = 5

// PriceLevel is one side of one depth level of the book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// BookSnapshot is one observation of the limit order book for a symbol.
// Bids and Asks are ranked best-to-worst and hold at most BookLevels entries.
type BookSnapshot struct {
	Symbol    string
	Timestamp time.Time // UTC, microsecond resolution
	Bids      []PriceLevel
	Asks      []PriceLevel
}

// Mid returns the mid-price from the best bid and ask, and whether both
// sides of the top of book are present.
func (s *BookSnapshot) Mid() (float64, bool) {
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return 0, false
	}
	return (s.Bids[0].Price + s.Asks[0].Price) / 2, true
}

// BidAt returns the level-n bid (0-based). Missing levels carry zero size and
// the price of the deepest reported level so their OFI contribution is 0.
func (s *BookSnapshot) BidAt(n int) PriceLevel {
	return levelAt(s.Bids, n)
}

// AskAt returns the level-n ask (0-based), padded like BidAt.
func (s *BookSnapshot) AskAt(n int) PriceLevel {
	return levelAt(s.Asks, n)
}

func levelAt(side []PriceLevel, n int) PriceLevel {
	if n < len(side) {
		return side[n]
	}
	if len(side) == 0 {
		return PriceLevel{}
	}
	return PriceLevel{Price: side[len(side)-1].Price, Size: 0}
}
