// Package price builds per-instrument daily price series with
// reporting-currency conversion baked in at construction time.
package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
	"github.com/schedulefa/fareport/internal/fx"
)

// ErrNoData indicates that the provider returned no bars, or that a
// peak scan exhausted the lookback cushion without finding one.
var ErrNoData = errors.New("no price data available")

// ErrOutOfRange indicates a query date outside the series window.
var ErrOutOfRange = errors.New("date out of series range")

// lookbackDays is the fetch cushion before the window start. Providers
// routinely miss the first days of a window (holidays, listing gaps);
// the cushion keeps the backward peak scan inside fetched data.
const lookbackDays = 30

// BarProvider supplies raw daily bars for an instrument over an
// inclusive date window.
type BarProvider interface {
	DailyBars(ctx context.Context, symbol string, from, to dates.Date) ([]domain.Bar, error)
}

// point is one converted daily quote.
type point struct {
	local    decimal.Decimal // reporting currency
	foreign  decimal.Decimal
	rate     decimal.Decimal
	rateDate dates.Date
}

// Series holds one instrument's converted daily highs and opens over an
// inclusive [start, end] window, plus the precomputed closing quote for
// the window end. It is immutable after construction.
type Series struct {
	symbol       string
	start        dates.Date
	end          dates.Date
	cutoff       dates.Date
	peaks        map[dates.Date]point
	opens        map[dates.Date]point
	closing      domain.ValueMeta
	closingLocal decimal.Decimal
}

// NewSeries fetches bars for [start-30d, end] and converts every bar's
// high and open into the reporting currency at the rate resolved for
// the bar's own date. The closing quote is the final bar's close
// converted at the rate resolved for exactly `end`, which may itself be
// a fallback. Fails with ErrNoData when the provider returns nothing;
// any rate resolution failure is fatal.
func NewSeries(ctx context.Context, provider BarProvider, rates *fx.Table, symbol string, start, end dates.Date) (*Series, error) {
	cutoff := start.Add(-lookbackDays)
	bars, err := provider.DailyBars(ctx, symbol, cutoff, end)
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s in [%s, %s]: %w", symbol, cutoff, end, ErrNoData)
	}

	s := &Series{
		symbol: symbol,
		start:  start,
		end:    end,
		cutoff: cutoff,
		peaks:  make(map[dates.Date]point, len(bars)),
		opens:  make(map[dates.Date]point, len(bars)),
	}

	for _, bar := range bars {
		rate, rateDate, err := rates.Resolve(bar.Date)
		if err != nil {
			return nil, fmt.Errorf("converting %s bar %s: %w", symbol, bar.Date, err)
		}
		s.peaks[bar.Date] = point{
			local:    bar.High.Mul(rate),
			foreign:  bar.High,
			rate:     rate,
			rateDate: rateDate,
		}
		// Open quotes are only ever requested for confirmed trading
		// days, so the bar date doubles as the rate date here.
		s.opens[bar.Date] = point{
			local:    bar.Open.Mul(rate),
			foreign:  bar.Open,
			rate:     rate,
			rateDate: bar.Date,
		}
	}

	last := bars[len(bars)-1]
	rate, rateDate, err := rates.Resolve(end)
	if err != nil {
		return nil, fmt.Errorf("closing rate for %s: %w", symbol, err)
	}
	s.closingLocal = last.Close.Mul(rate)
	s.closing = domain.ValueMeta{
		Price:    last.Close,
		Date:     last.Date,
		Rate:     rate,
		RateDate: rateDate,
	}

	return s, nil
}

// Symbol returns the instrument this series covers.
func (s *Series) Symbol() string { return s.symbol }

// Peak returns the reporting-currency daily high for d: the exact bar
// if one exists, otherwise the nearest earlier bar down to the 30-day
// cushion cutoff. Fails with ErrOutOfRange when d lies outside
// [start, end] and with ErrNoData when the scan exhausts the cutoff.
func (s *Series) Peak(d dates.Date) (decimal.Decimal, domain.ValueMeta, error) {
	if d.Before(s.start) || d.After(s.end) {
		return decimal.Zero, domain.ValueMeta{}, fmt.Errorf("%s on %s outside [%s, %s]: %w",
			s.symbol, d, s.start, s.end, ErrOutOfRange)
	}
	for cur := d; !cur.Before(s.cutoff); cur = cur.Add(-1) {
		if p, ok := s.peaks[cur]; ok {
			meta := domain.ValueMeta{Price: p.foreign, Date: cur, Rate: p.rate, RateDate: p.rateDate}
			return p.local, meta, nil
		}
	}
	return decimal.Zero, domain.ValueMeta{}, fmt.Errorf("no %s bar on or before %s: %w", s.symbol, d, ErrNoData)
}

// Open returns the reporting-currency opening price for exactly d. No
// fallback: callers only ask for dates already known to be trading
// days, so a miss is a data failure.
func (s *Series) Open(d dates.Date) (decimal.Decimal, domain.ValueMeta, error) {
	p, ok := s.opens[d]
	if !ok {
		return decimal.Zero, domain.ValueMeta{}, fmt.Errorf("no %s open on %s: %w", s.symbol, d, ErrNoData)
	}
	meta := domain.ValueMeta{Price: p.foreign, Date: d, Rate: p.rate, RateDate: p.rateDate}
	return p.local, meta, nil
}

// Closing returns the precomputed closing quote for the window end.
func (s *Series) Closing() (decimal.Decimal, domain.ValueMeta) {
	return s.closingLocal, s.closing
}
