package tpex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// Client fetches the over-the-counter daily quotes feed
// ⭐ SSOT: 장외 시장 일별 시세 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a new TPEx client for the given feed URL
func NewClient(httpClient *httputil.Client, log *logger.Logger, url string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Module("tpex"),
		url:        url,
	}
}

// NoTrade is the sentinel the feed uses for an absent price
const NoTrade = "----"

// Quote is one keyed record of the OTC feed. Prices are strings; NoTrade marks absence.
type Quote struct {
	Date                  string `json:"Date"`
	SecuritiesCompanyCode string `json:"SecuritiesCompanyCode"`
	CompanyName           string `json:"CompanyName"`
	Close                 string `json:"Close"`
	Change                string `json:"Change,omitempty"`
	Open                  string `json:"Open"`
	High                  string `json:"High"`
	Low                   string `json:"Low"`
}

// FetchDailyQuotes fetches all OTC mainboard quotes for the latest trading day
func (c *Client) FetchDailyQuotes(ctx context.Context) ([]Quote, error) {
	body, err := c.httpClient.GetBody(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch otc quotes: %w", err)
	}

	quotes, err := ParseDailyQuotes(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("rows", len(quotes)).Debug("Fetched otc quotes")
	return quotes, nil
}

// ParseDailyQuotes decodes the OTC feed payload
func ParseDailyQuotes(body []byte) ([]Quote, error) {
	var quotes []Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("decode otc quotes: %v: %w", err, contracts.ErrParse)
	}
	return quotes, nil
}
