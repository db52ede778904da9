package domain

import (
	"github.com/shopspring/decimal"
)

// Report is the per-year, per-lot valuation disclosure: what was
// invested, the year's peak reporting-currency value, the closing
// balance at year end and the gross proceeds collected from the lot
// within the year. Each figure carries the metadata of the quote and
// rate that produced it.
type Report struct {
	InvestedAmount decimal.Decimal `json:"investedAmount"`
	InvestedMeta   ValueMeta       `json:"investedMeta"`
	PeakValue      decimal.Decimal `json:"peakValue"`
	PeakMeta       ValueMeta       `json:"peakMeta"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	ClosingMeta    ValueMeta       `json:"closingMeta"`
	GrossProceeds  decimal.Decimal `json:"grossProceeds"`
}

// CapitalGain is one realized disposal: a DEBIT matched against its
// lot. Both legs are stated in the foreign currency and in the
// reporting currency, each converted at the reference rate for the
// last day of the month preceding its own date.
type CapitalGain struct {
	LotID               string          `json:"lotId"`
	Stock               string          `json:"stock"`
	Units               int64           `json:"units"`
	CostOfAcquisition   decimal.Decimal `json:"costOfAcquisition"`
	CostOfAcquisitionRC decimal.Decimal `json:"costOfAcquisitionRc"`
	Consideration       decimal.Decimal `json:"consideration"`
	ConsiderationRC     decimal.Decimal `json:"considerationRc"`
	BuyMeta             ValueMeta       `json:"buyMeta"`
	SellMeta            ValueMeta       `json:"sellMeta"`
	Gain                decimal.Decimal `json:"gain"`
}
