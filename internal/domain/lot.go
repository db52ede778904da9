package domain

import (
	"github.com/shopspring/decimal"
)

// Lot is a discrete parcel of shares tracked independently for tax
// purposes. InvestedAmount and InvestedMeta are fixed at purchase;
// Balance changes on sales and split rescaling; PeakValue, PeakMeta and
// GrossProceeds are per-calendar-year running figures that the
// simulator resets at each year boundary. A lot is never deleted, even
// at zero balance: exited positions stay disclosed in later years.
type Lot struct {
	Stock          string          `json:"stock"`
	LotID          string          `json:"lotId"`
	Balance        decimal.Decimal `json:"balance"`
	InvestedAmount decimal.Decimal `json:"investedAmount"`
	InvestedMeta   ValueMeta       `json:"investedMeta"`
	PeakValue      decimal.Decimal `json:"peakValue"`
	PeakMeta       ValueMeta       `json:"peakMeta"`
	GrossProceeds  decimal.Decimal `json:"grossProceeds"`
}
