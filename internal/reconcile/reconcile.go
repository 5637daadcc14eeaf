package reconcile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/momentum/internal/contracts"
)

// DefaultLimit is the number of stocks kept per group, and the upper bound
const DefaultLimit = 3

// Options controls group resolution
type Options struct {
	Limit   int // stocks per group, 1..3, default 3
	Workers int // concurrent resolutions, default 1 (sequential)
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 || o.Limit > DefaultLimit {
		o.Limit = DefaultLimit
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// job is one group to resolve and the slot its entry lands in
type job struct {
	group contracts.GroupRanking
	slot  *contracts.ReconciledGroupEntry
}

// Reconcile resolves every ranked group to its stocks and prices each stock:
// listed feed first, then OTC, else a placeholder keeping code and name.
// Group order follows the ranking and stock order follows the resolver.
// The first failure aborts the whole call; no partial result is returned.
// ⭐ SSOT: 그룹-시세 결합 규칙은 여기서만
func Reconcile(ctx context.Context, resolver contracts.GroupStockResolver, ranking *contracts.RankingResult, listed, otc contracts.PriceLookup, opts Options) (*contracts.ReconciliationResult, error) {
	if ranking == nil {
		return nil, fmt.Errorf("reconcile: nil ranking: %w", contracts.ErrInvalidArgument)
	}
	opts = opts.withDefaults()

	result := &contracts.ReconciliationResult{
		Increase: make([]contracts.ReconciledGroupEntry, len(ranking.Increase)),
		Reduce:   make([]contracts.ReconciledGroupEntry, len(ranking.Reduce)),
	}

	jobs := make([]job, 0, len(ranking.Increase)+len(ranking.Reduce))
	for i, group := range ranking.Increase {
		jobs = append(jobs, job{group: group, slot: &result.Increase[i]})
	}
	for i, group := range ranking.Reduce {
		jobs = append(jobs, job{group: group, slot: &result.Reduce[i]})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			resolved, err := resolver.GetGroupStocks(gctx, j.group.URL, j.group.Name, opts.Limit)
			if err != nil {
				return fmt.Errorf("resolve group %s: %w", j.group.Name, err)
			}

			*j.slot = PriceGroup(j.group.Name, resolved.Stocks, opts.Limit, listed, otc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// PriceGroup prices up to limit identities in order. limit outside 1..DefaultLimit means DefaultLimit.
func PriceGroup(group string, stocks []contracts.StockIdentity, limit int, listed, otc contracts.PriceLookup) contracts.ReconciledGroupEntry {
	limit = Options{Limit: limit}.withDefaults().Limit
	if len(stocks) > limit {
		stocks = stocks[:limit]
	}

	entry := contracts.ReconciledGroupEntry{
		Group:  group,
		Stocks: make([]contracts.PriceRecord, 0, len(stocks)),
	}
	for _, id := range stocks {
		entry.Stocks = append(entry.Stocks, Price(id, listed, otc))
	}
	return entry
}

// Price looks id up in the listed feed, then the OTC feed
func Price(id contracts.StockIdentity, listed, otc contracts.PriceLookup) contracts.PriceRecord {
	for _, lookup := range []contracts.PriceLookup{listed, otc} {
		if lookup == nil {
			continue
		}
		if record, ok := lookup.Lookup(id.Code); ok {
			return record
		}
	}
	return contracts.Placeholder(id)
}
