package pricecatalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/external/tpex"
	"github.com/wonny/momentum/internal/external/twse"
)

// Listed feed column positions
const (
	colCode    = 0
	colName    = 1
	colOpening = 4
	colHighest = 5
	colLowest  = 6
	colClosing = 7

	listedRowWidth = colClosing + 1
)

// Catalog maps stock code to its same-day quote. Codes are unique: the
// first record inserted for a code is kept.
type Catalog struct {
	records map[string]contracts.PriceRecord
	order   []string
}

// New returns an empty catalog
func New() *Catalog {
	return &Catalog{records: make(map[string]contracts.PriceRecord)}
}

// Add inserts record unless its code is already present; reports whether it was inserted
func (c *Catalog) Add(record contracts.PriceRecord) bool {
	if _, exists := c.records[record.Code]; exists {
		return false
	}
	record.Matched = true
	c.records[record.Code] = record
	c.order = append(c.order, record.Code)
	return true
}

// Lookup returns the quote for code. A nil catalog never matches.
func (c *Catalog) Lookup(code string) (contracts.PriceRecord, bool) {
	if c == nil {
		return contracts.PriceRecord{}, false
	}
	record, ok := c.records[code]
	return record, ok
}

// Len returns the number of codes
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Codes returns codes in insertion order
func (c *Catalog) Codes() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// ParseListed builds a catalog from the listed-market feed and returns the
// feed's trading date alongside it
func ParseListed(feed *twse.DailyQuotes) (*Catalog, contracts.TradingDate, error) {
	if feed == nil {
		return nil, "", fmt.Errorf("listed feed is nil: %w", contracts.ErrInvalidArgument)
	}

	catalog := New()
	for i, row := range feed.Data {
		if len(row) < listedRowWidth {
			continue
		}

		record, err := listedRecord(row)
		if err != nil {
			return nil, "", fmt.Errorf("listed row %d (%s): %w", i, row[colCode], err)
		}
		catalog.Add(record)
	}

	return catalog, contracts.TradingDate(feed.Date), nil
}

func listedRecord(row []string) (contracts.PriceRecord, error) {
	record := contracts.PriceRecord{
		Code: strings.TrimSpace(row[colCode]),
		Name: strings.TrimSpace(row[colName]),
	}

	prices := []struct {
		dst **float64
		raw string
	}{
		{&record.OpeningPrice, row[colOpening]},
		{&record.HighestPrice, row[colHighest]},
		{&record.LowestPrice, row[colLowest]},
		{&record.ClosingPrice, row[colClosing]},
	}
	for _, p := range prices {
		v, err := parseListedPrice(p.raw)
		if err != nil {
			return record, err
		}
		*p.dst = v
	}

	return record, nil
}

// ParseOTC builds a catalog from the OTC feed
func ParseOTC(quotes []tpex.Quote) (*Catalog, error) {
	catalog := New()
	for _, q := range quotes {
		record, err := otcRecord(q)
		if err != nil {
			return nil, fmt.Errorf("otc record %s: %w", q.SecuritiesCompanyCode, err)
		}
		catalog.Add(record)
	}
	return catalog, nil
}

func otcRecord(q tpex.Quote) (contracts.PriceRecord, error) {
	record := contracts.PriceRecord{
		Code: strings.TrimSpace(q.SecuritiesCompanyCode),
		Name: strings.TrimSpace(q.CompanyName),
	}

	prices := []struct {
		dst **float64
		raw string
	}{
		{&record.OpeningPrice, q.Open},
		{&record.HighestPrice, q.High},
		{&record.LowestPrice, q.Low},
		{&record.ClosingPrice, q.Close},
	}
	for _, p := range prices {
		v, err := parseOTCPrice(p.raw)
		if err != nil {
			return record, err
		}
		*p.dst = v
	}

	return record, nil
}

// Build merges both feeds into one catalog. Listed records are inserted
// first and OTC records never overwrite them.
func Build(listed *twse.DailyQuotes, otc []tpex.Quote) (*Catalog, contracts.TradingDate, error) {
	merged, date, err := ParseListed(listed)
	if err != nil {
		return nil, "", err
	}

	otcCatalog, err := ParseOTC(otc)
	if err != nil {
		return nil, "", err
	}

	merged.merge(otcCatalog)
	return merged, date, nil
}

func (c *Catalog) merge(other *Catalog) {
	for _, code := range other.order {
		c.Add(other.records[code])
	}
}

// parseListedPrice maps "" and the "--" no-trade marker to nil and strips thousands separators
func parseListedPrice(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.Trim(s, "-") == "" {
		return nil, nil
	}
	return parseNumber(s)
}

// parseOTCPrice maps the "----" sentinel and "" to nil
func parseOTCPrice(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == tpex.NoTrade {
		return nil, nil
	}
	return parseNumber(s)
}

func parseNumber(s string) (*float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", s, contracts.ErrParse)
	}
	return &v, nil
}
