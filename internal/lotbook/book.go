// Package lotbook tracks the lifecycle of stock lots: creation on
// purchase, balance and proceeds mutation on sale, and rescaling on
// splits. One Book is owned by one simulation run.
package lotbook

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
)

// ErrUnknownLot indicates a DEBIT against a lot that was never created.
var ErrUnknownLot = errors.New("unknown lot")

// Key identifies a lot. Lot IDs are user-assigned and only unique
// within a stock, so the stock is part of the identity.
type Key struct {
	Stock string
	LotID string
}

// Book is an arena of lots plus the per-stock split multipliers needed
// to reconcile historical pre-split quotes with post-split balances.
// Lots are never removed, even at zero balance.
type Book struct {
	lots        map[Key]*domain.Lot
	order       []Key
	multipliers map[string]decimal.Decimal
}

// New returns an empty Book.
func New() *Book {
	return &Book{
		lots:        make(map[Key]*domain.Lot),
		multipliers: make(map[string]decimal.Decimal),
	}
}

// PrecomputeMultipliers seeds every stock's split multiplier from the
// full transaction stream before the simulation starts: the product of
// all SPLIT ratios for the stock. Split divides the ratio back out as
// each split is reached chronologically, so the multiplier always
// rescales historical quotes to the share counts the book is carrying
// at that point in simulated time.
func (b *Book) PrecomputeMultipliers(txs []domain.Transaction) {
	for _, tx := range txs {
		if _, ok := b.multipliers[tx.Stock]; !ok {
			b.multipliers[tx.Stock] = decimal.NewFromInt(1)
		}
		if tx.Type == domain.TxSplit {
			b.multipliers[tx.Stock] = b.multipliers[tx.Stock].Mul(decimal.NewFromInt(tx.Units))
		}
	}
}

// Multiplier returns the stock's current split multiplier, 1 if the
// stock has never been seen.
func (b *Book) Multiplier(stock string) decimal.Decimal {
	if m, ok := b.multipliers[stock]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// Credit creates the lot for a purchase transaction. The invested
// amount is units x buy price converted at the given rate, rounded to
// two decimals; the peak starts out equal to it. A credit reusing an
// existing key replaces the lot, matching ledger semantics where lot
// IDs are the user's responsibility.
func (b *Book) Credit(tx domain.Transaction, rate decimal.Decimal, rateDate dates.Date) *domain.Lot {
	invested := domain.Round2(decimal.NewFromInt(tx.Units).Mul(tx.BuyPrice).Mul(rate))
	meta := domain.ValueMeta{
		Price:    tx.BuyPrice,
		Date:     tx.Date,
		Rate:     rate,
		RateDate: rateDate,
	}
	lot := &domain.Lot{
		Stock:          tx.Stock,
		LotID:          tx.LotID,
		Balance:        decimal.NewFromInt(tx.Units),
		InvestedAmount: invested,
		InvestedMeta:   meta,
		PeakValue:      invested,
		PeakMeta:       meta,
		GrossProceeds:  decimal.Zero,
	}
	key := Key{Stock: tx.Stock, LotID: tx.LotID}
	if _, exists := b.lots[key]; !exists {
		b.order = append(b.order, key)
	}
	b.lots[key] = lot
	return lot
}

// Debit applies a sale against its lot: gross proceeds accrue at the
// given rate and the balance decreases. A debit that would drive the
// balance negative means the upstream ledger is malformed; it fails
// rather than clamping.
func (b *Book) Debit(tx domain.Transaction, rate decimal.Decimal) (*domain.Lot, error) {
	lot, ok := b.lots[Key{Stock: tx.Stock, LotID: tx.LotID}]
	if !ok {
		return nil, fmt.Errorf("debit %s/%s: %w", tx.Stock, tx.LotID, ErrUnknownLot)
	}
	proceeds := domain.Round2(decimal.NewFromInt(tx.Units).Mul(tx.SellPrice).Mul(rate))
	lot.GrossProceeds = lot.GrossProceeds.Add(proceeds)
	lot.Balance = lot.Balance.Sub(decimal.NewFromInt(tx.Units))
	if lot.Balance.IsNegative() {
		return nil, fmt.Errorf("debit %s/%s: balance driven negative (%s)", tx.Stock, tx.LotID, lot.Balance)
	}
	return lot, nil
}

// Split rescales every existing lot of the stock by the ratio and
// divides the stock's running multiplier by it, keeping quote x
// multiplier x balance invariant across the split.
func (b *Book) Split(stock string, ratio int64) {
	r := decimal.NewFromInt(ratio)
	for _, key := range b.order {
		if key.Stock != stock {
			continue
		}
		lot := b.lots[key]
		lot.Balance = lot.Balance.Mul(r)
	}
	b.multipliers[stock] = b.Multiplier(stock).Div(r)
}

// Get returns the lot for a key, if present.
func (b *Book) Get(key Key) (*domain.Lot, bool) {
	lot, ok := b.lots[key]
	return lot, ok
}

// Keys returns lot keys in creation order, giving the simulator a
// deterministic iteration order.
func (b *Book) Keys() []Key {
	return b.order
}

// Len returns the number of lots ever created.
func (b *Book) Len() int { return len(b.lots) }
