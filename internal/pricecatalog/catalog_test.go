package pricecatalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/external/tpex"
	"github.com/wonny/momentum/internal/external/twse"
)

func listedFeed(rows ...[]string) *twse.DailyQuotes {
	return &twse.DailyQuotes{Stat: "OK", Date: "20240115", Data: rows}
}

func row(code, name, open, high, low, close string) []string {
	return []string{code, name, "1,000", "100,000", open, high, low, close, "+0.00", "10"}
}

func TestParseListedPrices(t *testing.T) {
	feed := listedFeed(
		row("2330", "台積電", "1,234.5", "1,240.00", "1,230.00", "1,238.00"),
		row("1101", "台泥", "", "", "", ""),
		row("2002", "中鋼", "--", "--", "--", "--"),
	)

	catalog, date, err := ParseListed(feed)
	require.NoError(t, err)
	assert.Equal(t, contracts.TradingDate("20240115"), date)
	assert.Equal(t, 3, catalog.Len())

	tsmc, ok := catalog.Lookup("2330")
	require.True(t, ok)
	assert.Equal(t, "台積電", tsmc.Name)
	assert.True(t, tsmc.Matched)
	require.NotNil(t, tsmc.OpeningPrice)
	assert.Equal(t, 1234.5, *tsmc.OpeningPrice)
	assert.Equal(t, 1240.0, *tsmc.HighestPrice)
	assert.Equal(t, 1230.0, *tsmc.LowestPrice)
	assert.Equal(t, 1238.0, *tsmc.ClosingPrice)

	for _, code := range []string{"1101", "2002"} {
		record, ok := catalog.Lookup(code)
		require.True(t, ok, code)
		assert.Nil(t, record.OpeningPrice, code)
		assert.Nil(t, record.HighestPrice, code)
		assert.Nil(t, record.LowestPrice, code)
		assert.Nil(t, record.ClosingPrice, code)
	}
}

func TestParseListedSkipsShortRows(t *testing.T) {
	feed := listedFeed(
		[]string{"2330", "台積電", "1,000"},
		row("1101", "台泥", "32.85", "33.00", "32.75", "32.85"),
	)

	catalog, _, err := ParseListed(feed)
	require.NoError(t, err)
	assert.Equal(t, []string{"1101"}, catalog.Codes())
}

func TestParseListedInvalidPrice(t *testing.T) {
	feed := listedFeed(row("2330", "台積電", "abc", "1", "1", "1"))

	_, _, err := ParseListed(feed)
	assert.ErrorIs(t, err, contracts.ErrParse)
	assert.Contains(t, err.Error(), "2330")
}

func TestParseListedNilFeed(t *testing.T) {
	_, _, err := ParseListed(nil)
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestParseOTC(t *testing.T) {
	quotes := []tpex.Quote{
		{SecuritiesCompanyCode: "3105", CompanyName: "穩懋", Open: "10", High: "12", Low: "9", Close: "11"},
		{SecuritiesCompanyCode: "6999", CompanyName: "停牌股", Open: "----", High: "----", Low: "----", Close: "----"},
		{SecuritiesCompanyCode: "8069", CompanyName: "元太", Open: "1,234.5", High: "", Low: "200.5", Close: "201"},
	}

	catalog, err := ParseOTC(quotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"3105", "6999", "8069"}, catalog.Codes())

	win, ok := catalog.Lookup("3105")
	require.True(t, ok)
	assert.Equal(t, 10.0, *win.OpeningPrice)
	assert.Equal(t, 12.0, *win.HighestPrice)
	assert.Equal(t, 9.0, *win.LowestPrice)
	assert.Equal(t, 11.0, *win.ClosingPrice)

	halted, _ := catalog.Lookup("6999")
	assert.Nil(t, halted.OpeningPrice)
	assert.Nil(t, halted.ClosingPrice)

	eink, _ := catalog.Lookup("8069")
	assert.Equal(t, 1234.5, *eink.OpeningPrice)
	assert.Nil(t, eink.HighestPrice)
}

func TestParseOTCInvalidPrice(t *testing.T) {
	_, err := ParseOTC([]tpex.Quote{{SecuritiesCompanyCode: "3105", Open: "n/a", High: "1", Low: "1", Close: "1"}})
	assert.ErrorIs(t, err, contracts.ErrParse)
}

func TestBuildListedPrecedence(t *testing.T) {
	listed := listedFeed(row("2330", "台積電", "580.00", "582.00", "577.00", "580.00"))
	otc := []tpex.Quote{
		{SecuritiesCompanyCode: "2330", CompanyName: "台積電OTC", Open: "1", High: "1", Low: "1", Close: "1"},
		{SecuritiesCompanyCode: "3105", CompanyName: "穩懋", Open: "10", High: "12", Low: "9", Close: "11"},
	}

	catalog, date, err := Build(listed, otc)
	require.NoError(t, err)
	assert.Equal(t, contracts.TradingDate("20240115"), date)
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, []string{"2330", "3105"}, catalog.Codes())

	tsmc, ok := catalog.Lookup("2330")
	require.True(t, ok)
	assert.Equal(t, "台積電", tsmc.Name)
	assert.Equal(t, 580.0, *tsmc.ClosingPrice)

	win, ok := catalog.Lookup("3105")
	require.True(t, ok)
	assert.Equal(t, 11.0, *win.ClosingPrice)
}

func TestCatalogFirstEntryWins(t *testing.T) {
	catalog := New()
	assert.True(t, catalog.Add(contracts.PriceRecord{Code: "2330", ClosingPrice: contracts.Float(1)}))
	assert.False(t, catalog.Add(contracts.PriceRecord{Code: "2330", ClosingPrice: contracts.Float(2)}))

	record, _ := catalog.Lookup("2330")
	assert.Equal(t, 1.0, *record.ClosingPrice)
}

func TestNilCatalog(t *testing.T) {
	var catalog *Catalog
	_, ok := catalog.Lookup("2330")
	assert.False(t, ok)
	assert.Equal(t, 0, catalog.Len())
	assert.Nil(t, catalog.Codes())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (*float64, error)
		input   string
		want    *float64
		wantErr bool
	}{
		{"listed thousands", parseListedPrice, "1,234.5", contracts.Float(1234.5), false},
		{"listed empty", parseListedPrice, "", nil, false},
		{"listed no trade", parseListedPrice, "--", nil, false},
		{"listed spaces", parseListedPrice, " 32.85 ", contracts.Float(32.85), false},
		{"otc sentinel", parseOTCPrice, "----", nil, false},
		{"otc empty", parseOTCPrice, "", nil, false},
		{"otc plain", parseOTCPrice, "144.00", contracts.Float(144), false},
		{"otc thousands", parseOTCPrice, "1,234.5", contracts.Float(1234.5), false},
		{"otc garbage", parseOTCPrice, "X", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, contracts.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
