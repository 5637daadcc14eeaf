package pricecatalog

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/external/tpex"
	"github.com/wonny/momentum/internal/external/twse"
	"github.com/wonny/momentum/pkg/logger"
	"github.com/wonny/momentum/pkg/redis"
)

// Snapshot is one day's price data from both feeds
type Snapshot struct {
	Listed      *Catalog
	OTC         *Catalog
	Merged      *Catalog
	TradingDate contracts.TradingDate
}

// Fetcher pulls both exchange feeds and builds catalogs from them
// ⭐ SSOT: 가격 카탈로그 생성은 이 패키지에서만
type Fetcher struct {
	listed *twse.Client
	otc    *tpex.Client
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// NewFetcher creates a Fetcher. cache may be nil.
func NewFetcher(listed *twse.Client, otc *tpex.Client, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *Fetcher {
	return &Fetcher{
		listed: listed,
		otc:    otc,
		cache:  cache,
		ttl:    ttl,
		logger: log.Module("pricecatalog"),
		now:    time.Now,
	}
}

// Fetch downloads both feeds (or reuses today's cached copies) and builds the catalogs
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	today := f.now()

	var listedFeed twse.DailyQuotes
	err := f.cache.GetOrSet(ctx, redis.QuotesKey("twse", today), &listedFeed, f.ttl, func() (interface{}, error) {
		return f.listed.FetchDailyQuotes(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("listed feed: %w", err)
	}

	var otcFeed []tpex.Quote
	err = f.cache.GetOrSet(ctx, redis.QuotesKey("tpex", today), &otcFeed, f.ttl, func() (interface{}, error) {
		return f.otc.FetchDailyQuotes(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("otc feed: %w", err)
	}

	listed, tradingDate, err := ParseListed(&listedFeed)
	if err != nil {
		return nil, fmt.Errorf("listed catalog: %w", err)
	}

	otc, err := ParseOTC(otcFeed)
	if err != nil {
		return nil, fmt.Errorf("otc catalog: %w", err)
	}

	merged, _, err := Build(&listedFeed, otcFeed)
	if err != nil {
		return nil, fmt.Errorf("merged catalog: %w", err)
	}

	f.logger.WithFields(map[string]interface{}{
		"trading_date": tradingDate,
		"listed":       listed.Len(),
		"otc":          otc.Len(),
		"merged":       merged.Len(),
	}).Info("Price catalog built")

	return &Snapshot{
		Listed:      listed,
		OTC:         otc,
		Merged:      merged,
		TradingDate: tradingDate,
	}, nil
}
