package domain

import (
	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal amount, returning zero for empty or
// invalid input. Provider CSVs leave fields blank or malformed where no
// figure applies; zero is the sentinel the rest of the system expects.
func ParseAmount(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds a reporting-currency amount to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
