package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/momentum/internal/contracts"
)

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS momentum;

	CREATE TABLE IF NOT EXISTS momentum.reports (
		trading_date  DATE        NOT NULL,
		period        TEXT        NOT NULL,
		source        TEXT        NOT NULL,
		generated_at  TIMESTAMPTZ NOT NULL,
		result        JSONB       NOT NULL,
		PRIMARY KEY (trading_date, period, source)
	);
`

// ReportRepository persists reconciled reports, one per trading day, period and source
// ⭐ SSOT: 리포트 저장/조회는 여기서만
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// EnsureSchema creates the reports table if it does not exist
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create report schema: %w", err)
	}
	return nil
}

// SaveReport upserts report; a rerun for the same day replaces the earlier result
func (r *ReportRepository) SaveReport(ctx context.Context, report *contracts.Report) error {
	date, err := report.TradingDate.Time()
	if err != nil {
		return fmt.Errorf("report trading date %q: %v: %w", report.TradingDate, err, contracts.ErrInvalidArgument)
	}

	resultJSON, err := json.Marshal(report.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO momentum.reports (
			trading_date, period, source, generated_at, result
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (trading_date, period, source) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			result = EXCLUDED.result
	`

	_, err = r.pool.Exec(ctx, query,
		date, string(report.Period), report.Source, report.GeneratedAt, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// LatestReport returns the most recent report of period, or nil when none is stored
func (r *ReportRepository) LatestReport(ctx context.Context, period contracts.Period) (*contracts.Report, error) {
	query := `
		SELECT to_char(trading_date, 'YYYYMMDD'), source, generated_at, result
		FROM momentum.reports
		WHERE period = $1
		ORDER BY trading_date DESC, generated_at DESC
		LIMIT 1
	`

	report := contracts.Report{Period: period}
	var (
		tradingDate string
		resultJSON  []byte
	)

	err := r.pool.QueryRow(ctx, query, string(period)).Scan(
		&tradingDate, &report.Source, &report.GeneratedAt, &resultJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	if err := json.Unmarshal(resultJSON, &report.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	report.TradingDate = contracts.TradingDate(tradingDate)

	return &report, nil
}
