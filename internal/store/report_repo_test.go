package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/database"
)

func TestSaveReportRejectsBadDate(t *testing.T) {
	repo := NewReportRepository(nil)

	err := repo.SaveReport(context.Background(), &contracts.Report{TradingDate: "2024-01-15"})
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestReportRepository(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{URL: url})
	require.NoError(t, err)
	defer db.Close()

	repo := NewReportRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	_, err = db.Pool.Exec(ctx, `DELETE FROM momentum.reports WHERE source = 'test'`)
	require.NoError(t, err)

	report := &contracts.Report{
		Period:      contracts.Period3Months,
		Source:      "test",
		TradingDate: "20240115",
		GeneratedAt: time.Date(2024, 1, 15, 7, 30, 0, 0, time.UTC),
		Result: contracts.ReconciliationResult{
			Increase: []contracts.ReconciledGroupEntry{{
				Group:  "X",
				Stocks: []contracts.PriceRecord{{Code: "3105", Name: "穩懋", ClosingPrice: contracts.Float(11), Matched: true}},
			}},
			Reduce: []contracts.ReconciledGroupEntry{},
		},
	}
	require.NoError(t, repo.SaveReport(ctx, report))

	// rerun replaces
	report.GeneratedAt = report.GeneratedAt.Add(time.Hour)
	require.NoError(t, repo.SaveReport(ctx, report))

	latest, err := repo.LatestReport(ctx, contracts.Period3Months)
	require.NoError(t, err)
	require.NotNil(t, latest)

	assert.Equal(t, contracts.TradingDate("20240115"), latest.TradingDate)
	assert.True(t, report.GeneratedAt.Equal(latest.GeneratedAt))
	assert.Equal(t, report.Result, latest.Result)
}
