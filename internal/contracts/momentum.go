package contracts

import "time"

// GroupRanking is one industry group produced by a ranking source
type GroupRanking struct {
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	ChangePercent *float64 `json:"change_percent,omitempty"` // nil for browser-rendered sources
}

// RankingResult holds the strongest and weakest groups of a period.
// Increase is strongest first; Reduce is weakest (most negative) first.
type RankingResult struct {
	Increase []GroupRanking `json:"increase"`
	Reduce   []GroupRanking `json:"reduce"`
}

// StockIdentity is a (code, name) pair taken from a group detail page
type StockIdentity struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GroupStocks is the resolver output for one group, in source (rank) order
type GroupStocks struct {
	Group  string          `json:"group"`
	Stocks []StockIdentity `json:"stocks"`
}

// PriceRecord is one stock's same-day quote. Nil prices mean no trade or
// no data. Matched is false for placeholder records.
type PriceRecord struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	OpeningPrice *float64 `json:"opening_price"`
	HighestPrice *float64 `json:"highest_price"`
	LowestPrice  *float64 `json:"lowest_price"`
	ClosingPrice *float64 `json:"closing_price"`
	Matched      bool     `json:"matched"`
}

// Placeholder returns the record used for an identity found in neither feed.
// It keeps the code and name so the report stays traceable.
func Placeholder(id StockIdentity) PriceRecord {
	return PriceRecord{Code: id.Code, Name: id.Name}
}

// ReconciledGroupEntry is one group with at most 3 priced stocks in resolver order
type ReconciledGroupEntry struct {
	Group  string        `json:"group"`
	Stocks []PriceRecord `json:"stocks"`
}

// ReconciliationResult is the output contract consumed by report writers
type ReconciliationResult struct {
	Increase []ReconciledGroupEntry `json:"increase"`
	Reduce   []ReconciledGroupEntry `json:"reduce"`
}

// TradingDate is the settlement date reported by the listed-market feed (YYYYMMDD)
type TradingDate string

// Time parses the date in Asia/Taipei
func (d TradingDate) Time() (time.Time, error) {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return time.ParseInLocation("20060102", string(d), loc)
}

// Report is one reconciled run
type Report struct {
	Period      Period               `json:"period"`
	Source      string               `json:"source"`
	TradingDate TradingDate          `json:"trading_date"`
	GeneratedAt time.Time            `json:"generated_at"`
	Result      ReconciliationResult `json:"result"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
