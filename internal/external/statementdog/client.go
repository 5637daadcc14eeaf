package statementdog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// SourceName identifies this source in logs and stored reports
const SourceName = "statementdog"

// Group page selectors
const (
	tickerBodySelector = "tbody#stock-tags-list-body"
	tickerCellSelector = "td.stock-tags-list-item.ticker-name"
)

// Source ranks industry groups with the market-trend JSON API and resolves
// groups by scraping their tag pages.
// ⭐ SSOT: StatementDog 호출은 이 클라이언트에서만
type Source struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	country    string
	topN       int
	filter     contracts.TickerFilter
}

// NewSource creates the API ranking source
func NewSource(httpClient *httputil.Client, log *logger.Logger, cfg config.StatementDogConfig, topN int, filter contracts.TickerFilter) *Source {
	country := cfg.Country
	if country == "" {
		country = "tw"
	}

	return &Source{
		httpClient: httpClient,
		logger:     log.Module(SourceName),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		country:    country,
		topN:       topN,
		filter:     filter,
	}
}

// Name implements contracts.RankingSource
func (s *Source) Name() string {
	return SourceName
}

// trendResponse is the market-trend payload
type trendResponse struct {
	Data []trendItem `json:"data"`
}

type trendItem struct {
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	DiffPercentage float64 `json:"diff_percentage"`
}

// GetGroups returns the strongest and weakest groups of period
func (s *Source) GetGroups(ctx context.Context, period contracts.Period) (*contracts.RankingResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/api/v1/market-trend/%s/%s", s.baseURL, s.country, period)

	body, err := s.httpClient.GetBody(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("fetch market trend %s: %w", period, err)
	}

	var resp trendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode market trend %s: %v: %w", period, err, contracts.ErrParse)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("market trend %s has no groups: %w", period, contracts.ErrEmptyResult)
	}

	groups := make([]contracts.GroupRanking, 0, len(resp.Data))
	for _, item := range resp.Data {
		groups = append(groups, contracts.GroupRanking{
			Name:          item.Name,
			URL:           s.resolveURL(item.URL),
			ChangePercent: contracts.Float(item.DiffPercentage),
		})
	}

	result := Rank(groups, s.topN)

	s.logger.WithFields(map[string]interface{}{
		"period":   period,
		"groups":   len(groups),
		"increase": len(result.Increase),
		"reduce":   len(result.Reduce),
	}).Info("Fetched group ranking")

	return result, nil
}

// Rank stable-sorts groups by change percent descending and returns the first
// n as Increase and the last n, weakest first, as Reduce. With fewer than n
// groups both lists hold every group. A negative n yields empty lists.
func Rank(groups []contracts.GroupRanking, n int) *contracts.RankingResult {
	sorted := make([]contracts.GroupRanking, len(groups))
	copy(sorted, groups)

	sort.SliceStable(sorted, func(i, j int) bool {
		return changeOf(sorted[i]) > changeOf(sorted[j])
	})

	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}

	increase := make([]contracts.GroupRanking, n)
	copy(increase, sorted[:n])

	reduce := make([]contracts.GroupRanking, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		reduce = append(reduce, sorted[i])
	}

	return &contracts.RankingResult{Increase: increase, Reduce: reduce}
}

func changeOf(g contracts.GroupRanking) float64 {
	if g.ChangePercent == nil {
		return 0
	}
	return *g.ChangePercent
}

// GetGroupStocks scrapes up to limit tickers from a group's tag page
func (s *Source) GetGroupStocks(ctx context.Context, groupURL, group string, limit int) (*contracts.GroupStocks, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("group %s: limit must be positive, got %d: %w", group, limit, contracts.ErrInvalidArgument)
	}

	pageURL, err := withQuery(groupURL, "country", s.country)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", group, err)
	}

	body, err := s.httpClient.GetBody(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch group %s: %w", group, err)
	}

	stocks, err := ParseGroupPage(body, s.filter, limit)
	if err != nil {
		return nil, fmt.Errorf("group %s (%s): %w", group, pageURL, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"group":  group,
		"stocks": len(stocks),
	}).Debug("Resolved group stocks")

	return &contracts.GroupStocks{Group: group, Stocks: stocks}, nil
}

// ParseGroupPage extracts ticker identities from a tag page in page order
func ParseGroupPage(body []byte, filter contracts.TickerFilter, limit int) ([]contracts.StockIdentity, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse group page: %v: %w", err, contracts.ErrParse)
	}

	tbody := doc.Find(tickerBodySelector)
	if tbody.Length() == 0 {
		return nil, fmt.Errorf("%s not found: %w", tickerBodySelector, contracts.ErrParse)
	}

	cells := tbody.Find(tickerCellSelector).Map(func(_ int, cell *goquery.Selection) string {
		return cell.Text()
	})

	return filter.Collect(cells, limit), nil
}

// resolveURL makes a group link absolute against the API base
func (s *Source) resolveURL(ref string) string {
	base, err := url.Parse(s.baseURL + "/")
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

// withQuery sets key=value on rawURL, keeping any existing parameters
func withQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid group url %q: %v: %w", rawURL, err, contracts.ErrInvalidArgument)
	}

	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
