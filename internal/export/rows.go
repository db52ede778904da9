// Package export renders a finished simulation run into spreadsheet
// destinations: a local XLSX workbook or a Google Sheets spreadsheet.
package export

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/domain"
	"github.com/schedulefa/fareport/internal/valuation"
)

// RunWriter writes a finished run to some spreadsheet destination.
type RunWriter interface {
	Write(ctx context.Context, run *valuation.Run) error
}

var reportHeader = []any{
	"Year", "Lot", "Invested", "Buy Price", "Buy Date", "Buy Rate", "Buy Rate Date",
	"Peak Value", "Peak Price", "Peak Date", "Peak Rate", "Peak Rate Date",
	"Closing Balance", "Close Price", "Close Date", "Close Rate", "Close Rate Date",
	"Gross Proceeds",
}

var gainHeader = []any{
	"FY", "Stock", "Lot", "Units",
	"Cost", "Cost (reporting)", "Consideration", "Consideration (reporting)",
	"Buy Price", "Buy Date", "Buy Rate", "Buy Rate Date",
	"Sell Price", "Sell Date", "Sell Rate", "Sell Rate Date",
	"Gain",
}

// buildReportRows flattens the per-year reports, years ascending and
// lot ids sorted within a year.
func buildReportRows(run *valuation.Run) [][]any {
	rows := [][]any{reportHeader}

	years := lo.Keys(run.Reports)
	sort.Ints(years)

	for _, year := range years {
		lotIDs := lo.Keys(run.Reports[year])
		sort.Strings(lotIDs)

		for _, lotID := range lotIDs {
			r := run.Reports[year][lotID]
			rows = append(rows, []any{
				year, lotID,
				toFloat(r.InvestedAmount), toFloat(r.InvestedMeta.Price), r.InvestedMeta.Date.String(),
				toFloat(r.InvestedMeta.Rate), r.InvestedMeta.RateDate.String(),
				toFloat(r.PeakValue), toFloat(r.PeakMeta.Price), r.PeakMeta.Date.String(),
				toFloat(r.PeakMeta.Rate), r.PeakMeta.RateDate.String(),
				toFloat(r.ClosingBalance), toFloat(r.ClosingMeta.Price), r.ClosingMeta.Date.String(),
				toFloat(r.ClosingMeta.Rate), r.ClosingMeta.RateDate.String(),
				toFloat(r.GrossProceeds),
			})
		}
	}
	return rows
}

// buildGainRows flattens one gains bucket, fiscal years ascending.
// Entries within a fiscal year keep their processing order.
func buildGainRows(bucket map[string][]domain.CapitalGain) [][]any {
	rows := [][]any{gainHeader}

	fys := lo.Keys(bucket)
	sort.Strings(fys)

	for _, fy := range fys {
		for _, cg := range bucket[fy] {
			rows = append(rows, []any{
				fy, cg.Stock, cg.LotID, cg.Units,
				toFloat(cg.CostOfAcquisition), toFloat(cg.CostOfAcquisitionRC),
				toFloat(cg.Consideration), toFloat(cg.ConsiderationRC),
				toFloat(cg.BuyMeta.Price), cg.BuyMeta.Date.String(),
				toFloat(cg.BuyMeta.Rate), cg.BuyMeta.RateDate.String(),
				toFloat(cg.SellMeta.Price), cg.SellMeta.Date.String(),
				toFloat(cg.SellMeta.Rate), cg.SellMeta.RateDate.String(),
				toFloat(cg.Gain),
			})
		}
	}
	return rows
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
