package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"CrossImpact/internal/domain/models"
	"CrossImpact/pkg/logger"
	"CrossImpact/pkg/util"
)

// CSVSource loads per-symbol MBP-style book snapshot files from a directory.
// One file per symbol, named <SYMBOL>.csv, with a header row naming at least
// ts_event and per-level columns bid_px_00..bid_px_04, bid_sz_00.., and the
// ask equivalents (the column layout of the upstream historical data dump).
// Fewer than five reported levels is fine; missing columns are treated as
// unreported depth.
type CSVSource struct {
	dir     string
	symbols []string
	l       *logger.Logger
}

func NewCSVSource(dir string, symbols []string, l *logger.Logger) *CSVSource {
	return &CSVSource{dir: dir, symbols: symbols, l: l}
}

// Load reads every configured symbol's file. A missing or unreadable file
// is an error: the cross-sectional stage needs all symbols, so a silently
// absent one would distort every regression.
func (s *CSVSource) Load(ctx context.Context) (map[string][]models.BookSnapshot, error) {
	out := make(map[string][]models.BookSnapshot, len(s.symbols))
	for _, sym := range s.symbols {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := filepath.Join(s.dir, sym+".csv")
		snaps, err := s.loadFile(path, sym)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", sym, err)
		}
		s.l.Info("snapshots loaded",
			logger.String("symbol", sym),
			logger.Int("rows", len(snaps)),
		)
		out[sym] = snaps
	}
	return out, nil
}

func (s *CSVSource) loadFile(path, symbol string) ([]models.BookSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var snaps []models.BookSnapshot
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		line++

		snap, err := parseRow(rec, cols, symbol)
		if err != nil {
			// Malformed rows are dropped, never interpolated.
			s.l.Warn("snapshot row dropped",
				logger.String("symbol", symbol),
				logger.Int("row", line),
				logger.Error(err),
			)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// columnMap indexes the fields we consume. A level is present only when all
// four of its columns are.
type columnMap struct {
	ts     int
	bidPx  [models.BookLevels]int
	bidSz  [models.BookLevels]int
	askPx  [models.BookLevels]int
	askSz  [models.BookLevels]int
	levels int
}

func mapColumns(header []string) (*columnMap, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}

	cols := &columnMap{ts: -1}
	if i, ok := idx["ts_event"]; ok {
		cols.ts = i
	} else if i, ok := idx["timestamp"]; ok {
		cols.ts = i
	}
	if cols.ts < 0 {
		return nil, fmt.Errorf("no ts_event or timestamp column")
	}

	for n := 0; n < models.BookLevels; n++ {
		suffix := fmt.Sprintf("_%02d", n)
		bp, ok1 := idx["bid_px"+suffix]
		bs, ok2 := idx["bid_sz"+suffix]
		ap, ok3 := idx["ask_px"+suffix]
		as, ok4 := idx["ask_sz"+suffix]
		if !(ok1 && ok2 && ok3 && ok4) {
			break
		}
		cols.bidPx[n], cols.bidSz[n] = bp, bs
		cols.askPx[n], cols.askSz[n] = ap, as
		cols.levels = n + 1
	}
	if cols.levels == 0 {
		return nil, fmt.Errorf("no book level columns (bid_px_00 etc)")
	}
	return cols, nil
}

func parseRow(rec []string, cols *columnMap, symbol string) (models.BookSnapshot, error) {
	ts, ok := util.ParseTime(rec[cols.ts])
	if !ok {
		return models.BookSnapshot{}, fmt.Errorf("bad timestamp %q", rec[cols.ts])
	}

	snap := models.BookSnapshot{
		Symbol:    symbol,
		Timestamp: ts.UTC(),
		Bids:      make([]models.PriceLevel, 0, cols.levels),
		Asks:      make([]models.PriceLevel, 0, cols.levels),
	}
	for n := 0; n < cols.levels; n++ {
		bp, err := parseFloat(rec[cols.bidPx[n]])
		if err != nil {
			return models.BookSnapshot{}, fmt.Errorf("bid_px_%02d: %w", n, err)
		}
		bs, err := parseFloat(rec[cols.bidSz[n]])
		if err != nil {
			return models.BookSnapshot{}, fmt.Errorf("bid_sz_%02d: %w", n, err)
		}
		ap, err := parseFloat(rec[cols.askPx[n]])
		if err != nil {
			return models.BookSnapshot{}, fmt.Errorf("ask_px_%02d: %w", n, err)
		}
		as, err := parseFloat(rec[cols.askSz[n]])
		if err != nil {
			return models.BookSnapshot{}, fmt.Errorf("ask_sz_%02d: %w", n, err)
		}
		snap.Bids = append(snap.Bids, models.PriceLevel{Price: bp, Size: bs})
		snap.Asks = append(snap.Asks, models.PriceLevel{Price: ap, Size: as})
	}
	return snap, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}
