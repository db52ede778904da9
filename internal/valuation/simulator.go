// Package valuation drives the day-by-day simulation that turns a
// transaction ledger into per-year valuation reports and fiscal-year
// capital-gains buckets.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
	"github.com/schedulefa/fareport/internal/fx"
	"github.com/schedulefa/fareport/internal/gains"
	"github.com/schedulefa/fareport/internal/lotbook"
	"github.com/schedulefa/fareport/internal/price"
)

// ErrEmptyLedger indicates there are no transactions to simulate.
var ErrEmptyLedger = errors.New("empty ledger")

// peakSentinel resets a lot's running peak at each year boundary. Any
// real valuation, including zero, beats it.
var peakSentinel = decimal.NewFromInt(-1)

// Run is the complete output of one simulation: valuation reports per
// calendar year and lot, and capital gains per fiscal-year label.
type Run struct {
	Reports   map[int]map[string]domain.Report `json:"reports"`
	LongTerm  map[string][]domain.CapitalGain  `json:"longTerm"`
	ShortTerm map[string][]domain.CapitalGain  `json:"shortTerm"`
}

// Simulator sweeps the ledger one calendar year at a time, from the
// year of the first transaction through FinalYear. It exclusively owns
// its lot book, rate table reference and per-year series caches for
// the duration of Generate.
type Simulator struct {
	rates *fx.Table
	bars  price.BarProvider
	txs   []domain.Transaction

	// FinalYear is the last simulated year, the current calendar year
	// by default. Tests pin it for reproducibility.
	FinalYear int

	// PrefetchWorkers bounds the concurrent series builds at each year
	// boundary. Zero disables prefetching; series then build lazily on
	// first reference, which is the behavior everything downstream is
	// allowed to assume.
	PrefetchWorkers int
}

// New returns a Simulator over a chronologically ordered transaction
// stream. The stream's (date, stock, SPLIT<CREDIT<DEBIT) ordering is
// trusted, not re-sorted.
func New(rates *fx.Table, bars price.BarProvider, txs []domain.Transaction) *Simulator {
	return &Simulator{
		rates:     rates,
		bars:      bars,
		txs:       txs,
		FinalYear: time.Now().UTC().Year(),
	}
}

// Generate runs the simulation. Any rate or price resolution failure
// aborts the whole run; no partial-year reports are returned.
func (s *Simulator) Generate(ctx context.Context) (*Run, error) {
	if len(s.txs) == 0 {
		return nil, ErrEmptyLedger
	}

	book := lotbook.New()
	book.PrecomputeMultipliers(s.txs)
	classifier := gains.New(s.rates)

	run := &Run{
		Reports:   make(map[int]map[string]domain.Report),
		LongTerm:  classifier.LongTerm,
		ShortTerm: classifier.ShortTerm,
	}

	txIdx := 0
	for year := s.txs[0].Date.Year(); year <= s.FinalYear; year++ {
		start := dates.New(year, 1, 1)
		end := dates.New(year, 12, 31)

		// A fresh series cache per year keeps each series' 30-day
		// cushion anchored to this year's window.
		series := make(map[string]*price.Series)
		if err := s.prefetch(ctx, book, series, start, end); err != nil {
			return nil, err
		}

		slog.Info("simulating year", "year", year, "lots", book.Len())

		for day := start; !day.After(end); day = day.Add(1) {
			for txIdx < len(s.txs) && s.txs[txIdx].Date == day {
				if err := s.apply(book, classifier, s.txs[txIdx]); err != nil {
					return nil, err
				}
				txIdx++
			}

			for _, key := range book.Keys() {
				lot, _ := book.Get(key)
				ser, err := s.seriesFor(ctx, series, lot.Stock, start, end)
				if err != nil {
					return nil, err
				}
				local, meta, err := ser.Peak(day)
				if err != nil {
					return nil, err
				}
				quote := local.Mul(book.Multiplier(lot.Stock))
				todaysPeak := domain.Round2(lot.Balance.Mul(quote))
				if todaysPeak.GreaterThan(lot.PeakValue) {
					lot.PeakValue = todaysPeak
					lot.PeakMeta = meta
				}
			}
		}

		yearReports := make(map[string]domain.Report, book.Len())
		for _, key := range book.Keys() {
			lot, _ := book.Get(key)
			ser, err := s.seriesFor(ctx, series, lot.Stock, start, end)
			if err != nil {
				return nil, err
			}
			local, meta := ser.Closing()
			quote := local.Mul(book.Multiplier(lot.Stock))

			yearReports[lot.LotID] = domain.Report{
				InvestedAmount: lot.InvestedAmount,
				InvestedMeta:   lot.InvestedMeta,
				PeakValue:      lot.PeakValue,
				PeakMeta:       lot.PeakMeta,
				ClosingBalance: domain.Round2(lot.Balance.Mul(quote)),
				ClosingMeta:    meta,
				GrossProceeds:  lot.GrossProceeds,
			}

			// Year rollover: peak and proceeds restart, balance and
			// invested figures persist.
			lot.PeakValue = peakSentinel
			lot.PeakMeta = domain.ValueMeta{}
			lot.GrossProceeds = decimal.Zero
		}
		run.Reports[year] = yearReports
	}

	return run, nil
}

// apply dispatches one transaction against the book.
func (s *Simulator) apply(book *lotbook.Book, classifier *gains.Classifier, tx domain.Transaction) error {
	switch tx.Type {
	case domain.TxCredit:
		rate, rateDate, err := s.rates.Resolve(tx.Date)
		if err != nil {
			return fmt.Errorf("credit %s/%s: %w", tx.Stock, tx.LotID, err)
		}
		book.Credit(tx, rate, rateDate)
	case domain.TxDebit:
		rate, _, err := s.rates.Resolve(tx.Date)
		if err != nil {
			return fmt.Errorf("debit %s/%s: %w", tx.Stock, tx.LotID, err)
		}
		lot, err := book.Debit(tx, rate)
		if err != nil {
			return err
		}
		if err := classifier.Record(tx, lot); err != nil {
			return err
		}
	case domain.TxSplit:
		book.Split(tx.Stock, tx.Units)
	}
	return nil
}

// seriesFor returns the year's series for a stock, building it on
// first reference.
func (s *Simulator) seriesFor(ctx context.Context, cache map[string]*price.Series, stock string, start, end dates.Date) (*price.Series, error) {
	if ser, ok := cache[stock]; ok {
		return ser, nil
	}
	ser, err := price.NewSeries(ctx, s.bars, s.rates, stock, start, end)
	if err != nil {
		return nil, err
	}
	cache[stock] = ser
	return ser, nil
}

// prefetch builds series for the stocks already held at the year
// boundary with bounded concurrency. Fetch failures are left for the
// lazy path to surface so error behavior is identical either way;
// stocks first credited mid-year are also picked up lazily.
func (s *Simulator) prefetch(ctx context.Context, book *lotbook.Book, cache map[string]*price.Series, start, end dates.Date) error {
	if s.PrefetchWorkers <= 0 {
		return nil
	}

	stocks := make(map[string]bool)
	for _, key := range book.Keys() {
		stocks[key.Stock] = true
	}
	if len(stocks) == 0 {
		return nil
	}

	type result struct {
		stock  string
		series *price.Series
	}
	results := make(chan result, len(stocks))
	sem := make(chan struct{}, s.PrefetchWorkers)

	for stock := range stocks {
		go func(stock string) {
			sem <- struct{}{}
			defer func() { <-sem }()

			ser, err := price.NewSeries(ctx, s.bars, s.rates, stock, start, end)
			if err != nil {
				slog.Warn("prefetch failed, deferring to lazy build", "stock", stock, "error", err)
				results <- result{stock: stock}
				return
			}
			results <- result{stock: stock, series: ser}
		}(stock)
	}

	for range stocks {
		r := <-results
		if r.series != nil {
			cache[r.stock] = r.series
		}
	}
	return nil
}
