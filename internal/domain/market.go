package domain

import (
	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
)

// RateSample is one raw reference-rate row as published by the rate
// provider. Date is kept verbatim; it may carry a time suffix that the
// rate table truncates away. A zero Rate is the provider's sentinel for
// "no usable quote", not a valid rate.
type RateSample struct {
	Date string          `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// Bar is one daily OHLC bar of an instrument in its trading currency.
type Bar struct {
	Date  dates.Date      `json:"date"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Close decimal.Decimal `json:"close"`
}

// ValueMeta records how a reporting-currency figure was obtained: the
// foreign-currency price, the day it was quoted for, and the exchange
// rate applied together with the day that rate was published.
type ValueMeta struct {
	Price    decimal.Decimal `json:"price"`
	Date     dates.Date      `json:"date"`
	Rate     decimal.Decimal `json:"rate"`
	RateDate dates.Date      `json:"rateDate"`
}
