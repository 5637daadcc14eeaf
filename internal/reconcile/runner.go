package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/pricecatalog"
	"github.com/wonny/momentum/pkg/logger"
)

// SnapshotFetcher provides one day's price catalogs
type SnapshotFetcher interface {
	Fetch(ctx context.Context) (*pricecatalog.Snapshot, error)
}

// Runner executes one full report: prices, ranking, resolution and reconciliation
type Runner struct {
	source  contracts.RankingSource
	fetcher SnapshotFetcher
	store   contracts.ReportStore
	opts    Options
	logger  *logger.Logger
	now     func() time.Time
}

// NewRunner creates a Runner. store may be nil to skip persistence.
func NewRunner(source contracts.RankingSource, fetcher SnapshotFetcher, store contracts.ReportStore, opts Options, log *logger.Logger) *Runner {
	return &Runner{
		source:  source,
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		logger:  log.Module("reconcile"),
		now:     time.Now,
	}
}

// Run produces the report for period
func (r *Runner) Run(ctx context.Context, period contracts.Period) (*contracts.Report, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	start := r.now()
	log := r.logger.WithFields(map[string]interface{}{
		"period": period,
		"source": r.source.Name(),
	})
	log.Info("Report run started")

	snapshot, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", period, err)
	}

	ranking, err := r.source.GetGroups(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("rank groups for %s: %w", period, err)
	}

	result, err := Reconcile(ctx, r.source, ranking, snapshot.Listed, snapshot.OTC, r.opts)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", period, err)
	}

	report := &contracts.Report{
		Period:      period,
		Source:      r.source.Name(),
		TradingDate: snapshot.TradingDate,
		GeneratedAt: r.now(),
		Result:      *result,
	}

	if r.store != nil {
		if err := r.store.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("save report %s: %w", period, err)
		}
	}

	log.WithFields(map[string]interface{}{
		"trading_date": report.TradingDate,
		"increase":     len(result.Increase),
		"reduce":       len(result.Reduce),
		"unmatched":    Unmatched(result),
		"duration":     time.Since(start),
	}).Info("Report run completed")

	return report, nil
}

// Unmatched counts placeholder records in result
func Unmatched(result *contracts.ReconciliationResult) int {
	count := 0
	for _, entries := range [][]contracts.ReconciledGroupEntry{result.Increase, result.Reduce} {
		for _, entry := range entries {
			for _, stock := range entry.Stocks {
				if !stock.Matched {
					count++
				}
			}
		}
	}
	return count
}
