package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/pricecatalog"
)

type fakeResolver struct {
	mu     sync.Mutex
	stocks map[string][]contracts.StockIdentity
	errs   map[string]error
	delay  map[string]time.Duration
	calls  []string
	limits []int
}

func (f *fakeResolver) GetGroupStocks(ctx context.Context, url, group string, limit int) (*contracts.GroupStocks, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.limits = append(f.limits, limit)
	f.mu.Unlock()

	if d := f.delay[url]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return &contracts.GroupStocks{Group: group, Stocks: f.stocks[url]}, nil
}

func catalogOf(records ...contracts.PriceRecord) *pricecatalog.Catalog {
	c := pricecatalog.New()
	for _, r := range records {
		c.Add(r)
	}
	return c
}

func TestReconcileOTCMatch(t *testing.T) {
	resolver := &fakeResolver{stocks: map[string][]contracts.StockIdentity{
		"u": {{Code: "3105", Name: "穩懋"}},
	}}
	ranking := &contracts.RankingResult{Increase: []contracts.GroupRanking{{Name: "X", URL: "u"}}}
	otc := catalogOf(contracts.PriceRecord{
		Code:         "3105",
		Name:         "穩懋",
		OpeningPrice: contracts.Float(10),
		HighestPrice: contracts.Float(12),
		LowestPrice:  contracts.Float(9),
		ClosingPrice: contracts.Float(11),
	})

	result, err := Reconcile(context.Background(), resolver, ranking, pricecatalog.New(), otc, Options{})
	require.NoError(t, err)

	require.Len(t, result.Increase, 1)
	assert.Empty(t, result.Reduce)

	entry := result.Increase[0]
	assert.Equal(t, "X", entry.Group)
	require.Len(t, entry.Stocks, 1)
	assert.Equal(t, "3105", entry.Stocks[0].Code)
	assert.True(t, entry.Stocks[0].Matched)
	assert.Equal(t, 10.0, *entry.Stocks[0].OpeningPrice)
	assert.Equal(t, 12.0, *entry.Stocks[0].HighestPrice)
	assert.Equal(t, 9.0, *entry.Stocks[0].LowestPrice)
	assert.Equal(t, 11.0, *entry.Stocks[0].ClosingPrice)
}

func TestReconcilePlaceholder(t *testing.T) {
	resolver := &fakeResolver{stocks: map[string][]contracts.StockIdentity{
		"u": {{Code: "9999", Name: "未知"}},
	}}
	ranking := &contracts.RankingResult{Reduce: []contracts.GroupRanking{{Name: "Y", URL: "u"}}}

	result, err := Reconcile(context.Background(), resolver, ranking, pricecatalog.New(), pricecatalog.New(), Options{})
	require.NoError(t, err)

	require.Len(t, result.Reduce, 1)
	stock := result.Reduce[0].Stocks[0]
	assert.Equal(t, contracts.PriceRecord{Code: "9999", Name: "未知"}, stock)
	assert.False(t, stock.Matched)
	assert.Nil(t, stock.ClosingPrice)
	assert.Equal(t, 1, Unmatched(result))
}

func TestReconcileListedBeforeOTC(t *testing.T) {
	resolver := &fakeResolver{stocks: map[string][]contracts.StockIdentity{
		"u": {{Code: "2330", Name: "台積電"}},
	}}
	ranking := &contracts.RankingResult{Increase: []contracts.GroupRanking{{Name: "半導體", URL: "u"}}}
	listed := catalogOf(contracts.PriceRecord{Code: "2330", ClosingPrice: contracts.Float(580)})
	otc := catalogOf(contracts.PriceRecord{Code: "2330", ClosingPrice: contracts.Float(1)})

	result, err := Reconcile(context.Background(), resolver, ranking, listed, otc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 580.0, *result.Increase[0].Stocks[0].ClosingPrice)
}

func TestReconcileCapsStocksAndPassesLimit(t *testing.T) {
	resolver := &fakeResolver{stocks: map[string][]contracts.StockIdentity{
		"u": {{Code: "1"}, {Code: "2"}, {Code: "3"}, {Code: "4"}},
	}}
	ranking := &contracts.RankingResult{Increase: []contracts.GroupRanking{{Name: "g", URL: "u"}}}

	result, err := Reconcile(context.Background(), resolver, ranking, nil, nil, Options{})
	require.NoError(t, err)

	codes := []string{}
	for _, s := range result.Increase[0].Stocks {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"1", "2", "3"}, codes)
	assert.Equal(t, []int{DefaultLimit}, resolver.limits)
}

func TestReconcileLimitNeverExceedsThree(t *testing.T) {
	resolver := &fakeResolver{stocks: map[string][]contracts.StockIdentity{
		"u": {{Code: "1"}, {Code: "2"}, {Code: "3"}, {Code: "4"}, {Code: "5"}},
	}}
	ranking := &contracts.RankingResult{
		Increase: []contracts.GroupRanking{{Name: "g", URL: "u"}},
		Reduce:   []contracts.GroupRanking{{Name: "h", URL: "u"}},
	}

	result, err := Reconcile(context.Background(), resolver, ranking, nil, nil, Options{Limit: 5})
	require.NoError(t, err)

	assert.Len(t, result.Increase[0].Stocks, DefaultLimit)
	assert.Len(t, result.Reduce[0].Stocks, DefaultLimit)
	assert.Equal(t, []int{DefaultLimit, DefaultLimit}, resolver.limits)
}

func TestPriceGroupLimit(t *testing.T) {
	stocks := []contracts.StockIdentity{{Code: "1"}, {Code: "2"}, {Code: "3"}, {Code: "4"}}

	tests := []struct {
		limit int
		want  int
	}{
		{1, 1},
		{2, 2},
		{3, 3},
		{0, DefaultLimit},
		{-1, DefaultLimit},
		{10, DefaultLimit},
	}

	for _, tt := range tests {
		entry := PriceGroup("g", stocks, tt.limit, nil, nil)
		assert.Len(t, entry.Stocks, tt.want, "limit %d", tt.limit)
	}
}

func TestReconcileOrderWithWorkers(t *testing.T) {
	resolver := &fakeResolver{
		stocks: map[string][]contracts.StockIdentity{},
		delay: map[string]time.Duration{
			"i0": 30 * time.Millisecond,
			"i1": 10 * time.Millisecond,
			"r0": 20 * time.Millisecond,
		},
	}
	ranking := &contracts.RankingResult{
		Increase: []contracts.GroupRanking{{Name: "I0", URL: "i0"}, {Name: "I1", URL: "i1"}, {Name: "I2", URL: "i2"}},
		Reduce:   []contracts.GroupRanking{{Name: "R0", URL: "r0"}, {Name: "R1", URL: "r1"}},
	}

	result, err := Reconcile(context.Background(), resolver, ranking, nil, nil, Options{Workers: 4})
	require.NoError(t, err)

	var increase, reduce []string
	for _, e := range result.Increase {
		increase = append(increase, e.Group)
	}
	for _, e := range result.Reduce {
		reduce = append(reduce, e.Group)
	}
	assert.Equal(t, []string{"I0", "I1", "I2"}, increase)
	assert.Equal(t, []string{"R0", "R1"}, reduce)
}

func TestReconcileSequentialStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	resolver := &fakeResolver{errs: map[string]error{"i1": boom}}
	ranking := &contracts.RankingResult{
		Increase: []contracts.GroupRanking{{Name: "I0", URL: "i0"}, {Name: "I1", URL: "i1"}, {Name: "I2", URL: "i2"}},
		Reduce:   []contracts.GroupRanking{{Name: "R0", URL: "r0"}},
	}

	result, err := Reconcile(context.Background(), resolver, ranking, nil, nil, Options{Workers: 1})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "I1")
	assert.Equal(t, []string{"i0", "i1"}, resolver.calls)
}

func TestReconcileParallelError(t *testing.T) {
	var started int32
	resolver := &countingResolver{started: &started, failOn: "r0"}
	ranking := &contracts.RankingResult{
		Increase: []contracts.GroupRanking{{Name: "I0", URL: "i0"}},
		Reduce:   []contracts.GroupRanking{{Name: "R0", URL: "r0"}},
	}

	result, err := Reconcile(context.Background(), resolver, ranking, nil, nil, Options{Workers: 2})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, contracts.ErrTimeout)
}

type countingResolver struct {
	started *int32
	failOn  string
}

func (c *countingResolver) GetGroupStocks(_ context.Context, url, group string, _ int) (*contracts.GroupStocks, error) {
	atomic.AddInt32(c.started, 1)
	if url == c.failOn {
		return nil, contracts.ErrTimeout
	}
	return &contracts.GroupStocks{Group: group}, nil
}

func TestReconcileNilRanking(t *testing.T) {
	_, err := Reconcile(context.Background(), &fakeResolver{}, nil, nil, nil, Options{})
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestReconcileCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := &fakeResolver{}
	ranking := &contracts.RankingResult{Increase: []contracts.GroupRanking{{Name: "I0", URL: "i0"}}}

	_, err := Reconcile(ctx, resolver, ranking, nil, nil, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, resolver.calls)
}
