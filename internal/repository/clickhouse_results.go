package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"CrossImpact/internal/domain/models"
	drepo "CrossImpact/internal/domain/repository"
	applogger "CrossImpact/pkg/logger"
)

// ClickHouseResults implements ResultSink on ClickHouse MergeTree tables.
type ClickHouseResults struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

// NewClickHouseResults creates the ClickHouse result sink.
func NewClickHouseResults(db *sql.DB, database string, l *applogger.Logger) drepo.ResultSink {
	return &ClickHouseResults{db: db, database: database, l: l}
}

// Schema returns the idempotent DDL for the result tables, to be run by
// the client's InitSchema at startup.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.composite_ofi (
			symbol String,
			ts DateTime64(6, 'UTC'),
			score Float64,
			loadings Array(Float64),
			explained_variance Float64,
			low_fidelity UInt8
		) ENGINE=MergeTree ORDER BY (symbol, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.price_changes (
			symbol String,
			ts DateTime64(6, 'UTC'),
			horizon_seconds Float64,
			ret Float64
		) ENGINE=MergeTree ORDER BY (symbol, horizon_seconds, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.regressions (
			target String,
			horizon_seconds Float64,
			mode String,
			intercept Float64,
			self_coef Float64,
			cross_coefs String,
			r2 Nullable(Float64),
			dominance Nullable(Float64),
			num_obs UInt32,
			failed UInt8,
			fail_reason String,
			created_at DateTime DEFAULT now()
		) ENGINE=MergeTree ORDER BY (target, horizon_seconds, mode)`, database),
	}
}

const insertChunk = 2000

func (s *ClickHouseResults) StoreComposite(ctx context.Context, records []models.CompositeOFIRecord) error {
	if len(records) == 0 {
		return nil
	}
	table := s.database + ".composite_ofi"
	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, rec := range records[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				rec.Symbol,
				rec.Timestamp,
				rec.Score,
				rec.Loadings[:],
				rec.ExplainedVariance,
				boolToUInt8(rec.LowFidelity),
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, score, loadings, explained_variance, low_fidelity) VALUES %s",
			table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert composite", applogger.Error(err))
			return fmt.Errorf("insert composite: %w", err)
		}
	}
	s.l.Info("composite stored", applogger.Int("rows", len(records)))
	return nil
}

func (s *ClickHouseResults) StorePriceChanges(ctx context.Context, records []models.PriceChangeRecord) error {
	if len(records) == 0 {
		return nil
	}
	table := s.database + ".price_changes"
	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, rec := range records[start:end] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args,
				rec.Symbol,
				rec.Timestamp,
				rec.Horizon.Seconds(),
				rec.Return,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, horizon_seconds, ret) VALUES %s",
			table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert price changes", applogger.Error(err))
			return fmt.Errorf("insert price changes: %w", err)
		}
	}
	s.l.Info("price changes stored", applogger.Int("rows", len(records)))
	return nil
}

func (s *ClickHouseResults) StoreRegressions(ctx context.Context, results []models.RegressionResult) error {
	if len(results) == 0 {
		return nil
	}
	table := s.database + ".regressions"
	values := make([]string, 0, len(results))
	args := make([]interface{}, 0, len(results)*11)
	for _, res := range results {
		cross, err := json.Marshal(res.CrossCoefs)
		if err != nil {
			return fmt.Errorf("marshal cross coefficients: %w", err)
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			res.TargetSymbol,
			res.Horizon.Seconds(),
			string(res.Mode),
			res.Intercept,
			res.SelfCoef,
			string(cross),
			nullableFloat(res.R2),
			nullableFloat(res.Dominance),
			uint32(res.NumObs),
			boolToUInt8(res.Failed),
			res.FailReason,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (target, horizon_seconds, mode, intercept, self_coef, cross_coefs, r2, dominance, num_obs, failed, fail_reason) VALUES %s",
		table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.l.Error("clickhouse insert regressions", applogger.Error(err))
		return fmt.Errorf("insert regressions: %w", err)
	}
	s.l.Info("regressions stored", applogger.Int("rows", len(results)))
	return nil
}

func (s *ClickHouseResults) Close() error {
	return nil // connection pool owned by pkg/clickhouse client
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
