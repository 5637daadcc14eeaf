package contracts

import "context"

// RankingSource produces industry-group rankings and resolves each group to
// its representative stocks.
// ⭐ SSOT: 랭킹 소스 인터페이스는 여기서만 정의
type RankingSource interface {
	// Name identifies the source in logs and stored reports
	Name() string

	// GetGroups returns the top-N and bottom-N groups for period
	GetGroups(ctx context.Context, period Period) (*RankingResult, error)

	GroupStockResolver
}

// GroupStockResolver extracts up to limit stock identities from a group detail page
type GroupStockResolver interface {
	GetGroupStocks(ctx context.Context, url, group string, limit int) (*GroupStocks, error)
}

// PriceLookup finds a stock's quote by code
type PriceLookup interface {
	Lookup(code string) (PriceRecord, bool)
}

// ReportStore persists reconciled reports for later runs
type ReportStore interface {
	SaveReport(ctx context.Context, report *Report) error
	LatestReport(ctx context.Context, period Period) (*Report, error)
}
