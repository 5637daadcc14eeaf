package twse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// Client fetches the listed-market daily quotes feed (STOCK_DAY_ALL)
// ⭐ SSOT: 상장 시장 일별 시세 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a new TWSE client for the given feed URL
func NewClient(httpClient *httputil.Client, log *logger.Logger, url string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Module("twse"),
		url:        url,
	}
}

// statOK is the stat value of a populated feed
const statOK = "OK"

// DailyQuotes is the listed-market feed. Each row of Data is positional:
// 證券代號, 證券名稱, 成交股數, 成交金額, 開盤價, 最高價, 最低價, 收盤價, 漲跌價差, 成交筆數
type DailyQuotes struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"` // YYYYMMDD settlement date
	Title  string     `json:"title,omitempty"`
	Fields []string   `json:"fields,omitempty"`
	Data   [][]string `json:"data"`
}

// FetchDailyQuotes fetches all listed stocks' quotes for the latest trading day
func (c *Client) FetchDailyQuotes(ctx context.Context) (*DailyQuotes, error) {
	body, err := c.httpClient.GetBody(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch listed quotes: %w", err)
	}

	quotes, err := ParseDailyQuotes(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"date": quotes.Date,
		"rows": len(quotes.Data),
	}).Debug("Fetched listed quotes")

	return quotes, nil
}

// ParseDailyQuotes decodes a STOCK_DAY_ALL payload
func ParseDailyQuotes(body []byte) (*DailyQuotes, error) {
	var quotes DailyQuotes
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("decode listed quotes: %v: %w", err, contracts.ErrParse)
	}

	if quotes.Stat != "" && quotes.Stat != statOK {
		return nil, fmt.Errorf("listed quotes stat %q: %w", quotes.Stat, contracts.ErrEmptyResult)
	}

	if quotes.Date == "" {
		return nil, fmt.Errorf("listed quotes missing date: %w", contracts.ErrParse)
	}

	return &quotes, nil
}
