// Package fx resolves historical daily reference exchange rates for
// converting foreign-currency amounts into the reporting currency.
package fx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
)

// ErrDataUnavailable indicates that no usable rate exists on or before
// the requested date within the table's lower bound.
var ErrDataUnavailable = errors.New("exchange rate data unavailable")

// Table is a date-keyed reference-rate lookup built once from provider
// samples. It is append-only after construction: a simulation run owns
// exactly one Table and never mutates it.
//
// A recorded zero rate is the provider's "no usable quote" sentinel. It
// is stored verbatim and visible through Lookup, but Resolve treats it
// as absent and falls back to an earlier day.
type Table struct {
	rates      map[dates.Date]decimal.Decimal
	lowerBound dates.Date
}

// NewTable builds a Table from unordered provider samples. Sample dates
// may carry a time suffix ("2023-06-15 10:00"); only the day component
// is kept. Later samples for the same day overwrite earlier ones, which
// matches the provider publishing intraday revisions in file order.
func NewTable(samples []domain.RateSample, lowerBound dates.Date) (*Table, error) {
	t := &Table{
		rates:      make(map[dates.Date]decimal.Decimal, len(samples)),
		lowerBound: lowerBound,
	}
	for _, s := range samples {
		day, _, _ := strings.Cut(s.Date, " ")
		d, err := dates.Parse(day)
		if err != nil {
			return nil, fmt.Errorf("rate sample: %w", err)
		}
		t.rates[d] = s.Rate
	}
	return t, nil
}

// Lookup returns the rate recorded for exactly d, including a recorded
// zero. Callers that cannot handle the zero sentinel must use Resolve.
func (t *Table) Lookup(d dates.Date) (decimal.Decimal, bool) {
	r, ok := t.rates[d]
	return r, ok
}

// Resolve returns the rate in effect on d and the day it was published.
// An exact non-zero entry wins; otherwise the scan walks backward one
// day at a time, skipping days with no entry or a zero entry, until it
// finds a usable rate or passes the table's lower bound. A published
// rate applies to its own date and every following non-trading day up
// to the next publication, so the scan never looks forward.
func (t *Table) Resolve(d dates.Date) (decimal.Decimal, dates.Date, error) {
	for cur := d; !cur.Before(t.lowerBound); cur = cur.Add(-1) {
		if r, ok := t.rates[cur]; ok && !r.IsZero() {
			return r, cur, nil
		}
	}
	return decimal.Zero, dates.Date{}, fmt.Errorf("no rate on or before %s: %w", d, ErrDataUnavailable)
}

// ResolveLastDayOfPreviousMonth resolves the rate for the final
// calendar day of the month preceding d's month. Capital-gains
// conversion uses the previous month-end rate by convention; same-day
// valuation uses Resolve directly.
func (t *Table) ResolveLastDayOfPreviousMonth(d dates.Date) (decimal.Decimal, dates.Date, error) {
	return t.Resolve(d.LastDayOfPreviousMonth())
}
