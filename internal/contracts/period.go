package contracts

import "fmt"

// Period is the lookback window of a momentum ranking
type Period string

const (
	Period1Day    Period = "1day"
	Period1Week   Period = "1week"
	Period1Month  Period = "1month"
	Period3Months Period = "3months"
)

// Periods lists every supported period in ascending length
var Periods = []Period{Period1Day, Period1Week, Period1Month, Period3Months}

// ParsePeriod validates s as a Period
func ParsePeriod(s string) (Period, error) {
	for i, p := range Periods {
		if string(p) == s {
			return Periods[i], nil
		}
	}
	return "", fmt.Errorf("unknown period %q (valid: 1day, 1week, 1month, 3months): %w", s, ErrInvalidArgument)
}

// Index returns the 0-based position of p in Periods, or -1
func (p Period) Index() int {
	for i, candidate := range Periods {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Validate reports ErrInvalidArgument for an unknown period
func (p Period) Validate() error {
	_, err := ParsePeriod(string(p))
	return err
}
