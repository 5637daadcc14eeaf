package sectorpage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/momentum/internal/browser"
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

// SourceName identifies this source in logs and stored reports
const SourceName = "sectorpage"

// Ranking page directions; each doubles as the page's ready marker class
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// fixedColumns is the trailing column count of a ranking row:
// name, close index, change, change percent
const fixedColumns = 4

// Source ranks industry groups from script-rendered ranking pages
// ⭐ SSOT: 브라우저 기반 랭킹 페이지 파싱은 이 패키지에서만
type Source struct {
	page   browser.Page
	cfg    config.SectorConfig
	topN   int
	filter contracts.TickerFilter
	logger *logger.Logger
}

// NewSource creates the browser ranking source over page
func NewSource(page browser.Page, cfg config.SectorConfig, topN int, filter contracts.TickerFilter, log *logger.Logger) *Source {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 10
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Source{
		page:   page,
		cfg:    cfg,
		topN:   topN,
		filter: filter,
		logger: log.Module(SourceName),
	}
}

// Name implements contracts.RankingSource
func (s *Source) Name() string {
	return SourceName
}

// GetGroups reads the rising and falling ranking pages of period
func (s *Source) GetGroups(ctx context.Context, period contracts.Period) (*contracts.RankingResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	increase, err := s.ranking(ctx, DirectionUp, period)
	if err != nil {
		return nil, err
	}

	reduce, err := s.ranking(ctx, DirectionDown, period)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"period":   period,
		"increase": len(increase),
		"reduce":   len(reduce),
	}).Info("Fetched group ranking")

	return &contracts.RankingResult{Increase: increase, Reduce: reduce}, nil
}

// RankingURL builds the ranking page address for direction and period
func (s *Source) RankingURL(direction string, period contracts.Period) string {
	return s.cfg.BaseURL + fmt.Sprintf(s.cfg.RankingPath, direction, period.Index())
}

func (s *Source) ranking(ctx context.Context, direction string, period contracts.Period) ([]contracts.GroupRanking, error) {
	pageURL := s.RankingURL(direction, period)

	html, err := s.page.Load(ctx, pageURL, "."+direction)
	if err != nil {
		return nil, fmt.Errorf("load %s ranking %s: %w", direction, period, err)
	}

	groups, err := s.ParseRanking(html)
	if err != nil {
		return nil, fmt.Errorf("%s ranking %s: %w", direction, period, err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%s ranking %s has no groups: %w", direction, period, contracts.ErrEmptyResult)
	}

	if len(groups) > s.topN {
		groups = groups[:s.topN]
	}
	return groups, nil
}

// ParseRanking reads up to MaxRows data rows of the ranking table, in page order
func (s *Source) ParseRanking(html string) ([]contracts.GroupRanking, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse ranking page: %v: %w", err, contracts.ErrParse)
	}

	table := doc.Find("#" + s.cfg.TableID)
	if table.Length() == 0 {
		return nil, fmt.Errorf("table #%s not found: %w", s.cfg.TableID, contracts.ErrParse)
	}

	var groups []contracts.GroupRanking
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true // header
		}
		if len(groups) >= s.cfg.MaxRows {
			return false
		}

		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return cell.Text()
		})
		name, ok := rowName(strings.Join(cells, " "))
		if !ok {
			return true
		}

		// a group without a detail link cannot be resolved
		href, _ := row.Find("a[href]").First().Attr("href")
		if strings.TrimSpace(href) == "" {
			return true
		}
		groups = append(groups, contracts.GroupRanking{
			Name: name,
			URL:  s.resolve(href),
		})
		return true
	})

	return groups, nil
}

// rowName recovers the group name from a ranking row. Names may contain
// spaces, so every token before the fixed trailing columns belongs to it.
func rowName(text string) (string, bool) {
	tokens := strings.Fields(text)
	if len(tokens) < fixedColumns {
		return "", false
	}
	return strings.Join(tokens[:len(tokens)-fixedColumns+1], " "), true
}

func (s *Source) resolve(href string) string {
	if href == "" {
		return ""
	}

	base, err := url.Parse(s.cfg.BaseURL + "/")
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// GetGroupStocks reads up to limit tickers from a rendered group page
func (s *Source) GetGroupStocks(ctx context.Context, groupURL, group string, limit int) (*contracts.GroupStocks, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("group %s: limit must be positive, got %d: %w", group, limit, contracts.ErrInvalidArgument)
	}

	html, err := s.page.Load(ctx, groupURL, "."+s.cfg.ResultClass)
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", group, err)
	}

	stocks, err := s.ParseGroupPage(html, limit)
	if err != nil {
		return nil, fmt.Errorf("group %s (%s): %w", group, groupURL, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"group":  group,
		"stocks": len(stocks),
	}).Debug("Resolved group stocks")

	return &contracts.GroupStocks{Group: group, Stocks: stocks}, nil
}

// ParseGroupPage takes the first cell of each body row of the result table
func (s *Source) ParseGroupPage(html string, limit int) ([]contracts.StockIdentity, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse group page: %v: %w", err, contracts.ErrParse)
	}

	table := doc.Find("#" + s.cfg.ResultTableID)
	if table.Length() == 0 {
		return nil, fmt.Errorf("table #%s not found: %w", s.cfg.ResultTableID, contracts.ErrParse)
	}

	var cells []string
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return
		}
		cells = append(cells, cell.Text())
	})

	return s.filter.Collect(cells, limit), nil
}
