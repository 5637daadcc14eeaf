package contracts

import (
	"strconv"
	"strings"
)

// SplitTicker parses a ticker cell such as "3105 穩懋" into an identity.
// Newlines are removed before splitting on whitespace. When a stock name
// itself contains spaces ("1111 iphone 12") every token after the code is
// collapsed into the name ("iphone12"). ok is false for an empty cell.
func SplitTicker(text string) (id StockIdentity, ok bool) {
	text = strings.NewReplacer("\r", "", "\n", "").Replace(text)
	tokens := strings.Fields(text)

	switch len(tokens) {
	case 0:
		return StockIdentity{}, false
	case 1:
		return StockIdentity{Code: tokens[0]}, true
	default:
		return StockIdentity{Code: tokens[0], Name: strings.Join(tokens[1:], "")}, true
	}
}

// IsNumericCode reports whether code is an integer exchange ticker
func IsNumericCode(code string) bool {
	if code == "" {
		return false
	}
	_, err := strconv.ParseUint(code, 10, 64)
	return err == nil
}

// TickerFilter applies the code validation policy to parsed identities.
// Strict mode drops identities whose code is not numeric; lenient keeps them verbatim.
type TickerFilter struct {
	Lenient bool
}

// Accept reports whether id passes the policy
func (f TickerFilter) Accept(id StockIdentity) bool {
	return f.Lenient || IsNumericCode(id.Code)
}

// Collect parses cells in order, applies the policy and stops at limit
func (f TickerFilter) Collect(cells []string, limit int) []StockIdentity {
	stocks := make([]StockIdentity, 0, limit)
	for _, cell := range cells {
		if len(stocks) >= limit {
			break
		}

		id, ok := SplitTicker(cell)
		if !ok || !f.Accept(id) {
			continue
		}
		stocks = append(stocks, id)
	}
	return stocks
}
