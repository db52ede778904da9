// Package gains classifies realized disposals into long- and
// short-term capital gains bucketed by fiscal year.
package gains

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
	"github.com/schedulefa/fareport/internal/fx"
)

// longTermYears is the holding threshold: strictly more than this many
// whole calendar years makes a disposal long-term.
const longTermYears = 3

// FiscalYear labels the April-March tax year containing d by its
// ending calendar year: January-March belong to the year ending that
// same year, everything else to the year ending next year.
func FiscalYear(d dates.Date) string {
	y := d.Year()
	if d.Month() <= 3 {
		return strconv.Itoa(y)
	}
	return strconv.Itoa(y + 1)
}

// Classifier accumulates capital gains per fiscal year. The per-year
// slices keep processing order; nothing downstream sorts them.
type Classifier struct {
	rates     *fx.Table
	LongTerm  map[string][]domain.CapitalGain
	ShortTerm map[string][]domain.CapitalGain
}

// New returns a Classifier converting through the given rate table.
func New(rates *fx.Table) *Classifier {
	return &Classifier{
		rates:     rates,
		LongTerm:  make(map[string][]domain.CapitalGain),
		ShortTerm: make(map[string][]domain.CapitalGain),
	}
}

// Record computes the capital gain realized by a DEBIT against its lot
// and appends it to the matching fiscal-year bucket. Cost and
// consideration are stated in the foreign currency and converted
// independently: each leg at the reference rate for the last day of
// the month preceding its own date, acquisition from the lot's
// metadata and sale from the transaction.
func (c *Classifier) Record(tx domain.Transaction, lot *domain.Lot) error {
	units := decimal.NewFromInt(tx.Units)
	cost := lot.InvestedMeta.Price.Mul(units)
	consideration := tx.SellPrice.Mul(units)

	buyRate, buyRateDate, err := c.rates.ResolveLastDayOfPreviousMonth(lot.InvestedMeta.Date)
	if err != nil {
		return fmt.Errorf("acquisition leg for %s/%s: %w", tx.Stock, tx.LotID, err)
	}
	sellRate, sellRateDate, err := c.rates.ResolveLastDayOfPreviousMonth(tx.Date)
	if err != nil {
		return fmt.Errorf("sale leg for %s/%s: %w", tx.Stock, tx.LotID, err)
	}

	costRC := cost.Mul(buyRate)
	considerationRC := consideration.Mul(sellRate)

	cg := domain.CapitalGain{
		LotID:               lot.LotID,
		Stock:               tx.Stock,
		Units:               tx.Units,
		CostOfAcquisition:   cost,
		CostOfAcquisitionRC: costRC,
		Consideration:       consideration,
		ConsiderationRC:     considerationRC,
		BuyMeta: domain.ValueMeta{
			Price:    lot.InvestedMeta.Price,
			Date:     lot.InvestedMeta.Date,
			Rate:     buyRate,
			RateDate: buyRateDate,
		},
		SellMeta: domain.ValueMeta{
			Price:    tx.SellPrice,
			Date:     tx.Date,
			Rate:     sellRate,
			RateDate: sellRateDate,
		},
		Gain: domain.Round2(considerationRC.Sub(costRC)),
	}

	fy := FiscalYear(tx.Date)
	held := dates.Diff(lot.InvestedMeta.Date, tx.Date)
	if held.Years > longTermYears {
		c.LongTerm[fy] = append(c.LongTerm[fy], cg)
	} else {
		c.ShortTerm[fy] = append(c.ShortTerm[fy], cg)
	}
	return nil
}
