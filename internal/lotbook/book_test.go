package lotbook

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func creditTx(stock, lotID string, units int64, buyPrice, day string) domain.Transaction {
	return domain.Transaction{
		Date:     dates.MustParse(day),
		Stock:    stock,
		LotID:    lotID,
		Type:     domain.TxCredit,
		Units:    units,
		BuyPrice: dec(buyPrice),
	}
}

func debitTx(stock, lotID string, units int64, sellPrice, day string) domain.Transaction {
	return domain.Transaction{
		Date:      dates.MustParse(day),
		Stock:     stock,
		LotID:     lotID,
		Type:      domain.TxDebit,
		Units:     units,
		SellPrice: dec(sellPrice),
	}
}

func TestCreditInvestedAmount(t *testing.T) {
	b := New()
	lot := b.Credit(creditTx("VTI", "1", 100, "150.0", "2023-06-15"), dec("82.5"), dates.MustParse("2023-06-15"))

	if !lot.InvestedAmount.Equal(dec("1237500")) {
		t.Errorf("invested = %v, want 1237500", lot.InvestedAmount)
	}
	if !lot.PeakValue.Equal(lot.InvestedAmount) {
		t.Errorf("initial peak = %v, want invested amount", lot.PeakValue)
	}
	if lot.InvestedMeta != lot.PeakMeta {
		t.Error("invested and peak metadata must start identical")
	}
	if !lot.InvestedMeta.Price.Equal(dec("150.0")) || lot.InvestedMeta.Date != dates.MustParse("2023-06-15") {
		t.Errorf("invested meta = %+v", lot.InvestedMeta)
	}
}

func TestDebitAccruesProceedsAndDecrementsBalance(t *testing.T) {
	b := New()
	b.Credit(creditTx("VTI", "1", 100, "150.0", "2023-01-10"), dec("82"), dates.MustParse("2023-01-10"))

	lot, err := b.Debit(debitTx("VTI", "1", 40, "160.0", "2023-06-15"), dec("82.5"))
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if !lot.Balance.Equal(dec("60")) {
		t.Errorf("balance = %v, want 60", lot.Balance)
	}
	if !lot.GrossProceeds.Equal(dec("528000")) { // 40 * 160 * 82.5
		t.Errorf("proceeds = %v, want 528000", lot.GrossProceeds)
	}

	// Invested figures never move on a debit.
	if !lot.InvestedAmount.Equal(dec("1230000")) {
		t.Errorf("invested mutated to %v", lot.InvestedAmount)
	}
}

func TestDebitUnknownLot(t *testing.T) {
	b := New()
	_, err := b.Debit(debitTx("VTI", "9", 10, "160.0", "2023-06-15"), dec("82.5"))
	if !errors.Is(err, ErrUnknownLot) {
		t.Errorf("err = %v, want ErrUnknownLot", err)
	}
}

func TestDebitNeverClampsNegativeBalance(t *testing.T) {
	b := New()
	b.Credit(creditTx("VTI", "1", 10, "150.0", "2023-01-10"), dec("82"), dates.MustParse("2023-01-10"))

	if _, err := b.Debit(debitTx("VTI", "1", 11, "160.0", "2023-06-15"), dec("82.5")); err == nil {
		t.Error("expected error for over-debit")
	}
}

func TestSplitScalesBalancesAndMultiplier(t *testing.T) {
	b := New()
	txs := []domain.Transaction{
		creditTx("VTI", "1", 100, "150.0", "2023-01-10"),
		{Date: dates.MustParse("2023-06-01"), Stock: "VTI", Type: domain.TxSplit, Units: 2},
	}
	b.PrecomputeMultipliers(txs)

	if !b.Multiplier("VTI").Equal(dec("2")) {
		t.Fatalf("precomputed multiplier = %v, want 2", b.Multiplier("VTI"))
	}

	lot := b.Credit(txs[0], dec("82"), dates.MustParse("2023-01-10"))
	other := b.Credit(creditTx("AMZN", "1", 5, "120.0", "2023-01-10"), dec("82"), dates.MustParse("2023-01-10"))

	b.Split("VTI", 2)

	if !lot.Balance.Equal(dec("200")) {
		t.Errorf("balance after split = %v, want 200", lot.Balance)
	}
	if !other.Balance.Equal(dec("5")) {
		t.Errorf("unrelated stock balance = %v, want 5", other.Balance)
	}
	if !b.Multiplier("VTI").Equal(dec("1")) {
		t.Errorf("multiplier after split = %v, want 1", b.Multiplier("VTI"))
	}
}

func TestSplitInvariance(t *testing.T) {
	// balance x (quote x multiplier) is the same before and after the
	// split is applied.
	b := New()
	txs := []domain.Transaction{
		creditTx("VTI", "1", 100, "150.0", "2023-01-10"),
		{Date: dates.MustParse("2023-06-01"), Stock: "VTI", Type: domain.TxSplit, Units: 2},
	}
	b.PrecomputeMultipliers(txs)
	lot := b.Credit(txs[0], dec("82"), dates.MustParse("2023-01-10"))

	quote := dec("12300") // reporting-currency quote for some pre-split day
	before := lot.Balance.Mul(quote.Mul(b.Multiplier("VTI")))

	b.Split("VTI", 2)
	after := lot.Balance.Mul(quote.Mul(b.Multiplier("VTI")))

	if !before.Equal(after) {
		t.Errorf("valuation changed across split: %v -> %v", before, after)
	}
}

func TestKeysPreserveCreationOrder(t *testing.T) {
	b := New()
	b.Credit(creditTx("VTI", "2", 1, "10", "2023-01-10"), dec("82"), dates.MustParse("2023-01-10"))
	b.Credit(creditTx("AMZN", "1", 1, "10", "2023-01-11"), dec("82"), dates.MustParse("2023-01-11"))
	b.Credit(creditTx("VTI", "1", 1, "10", "2023-01-12"), dec("82"), dates.MustParse("2023-01-12"))

	want := []Key{{"VTI", "2"}, {"AMZN", "1"}, {"VTI", "1"}}
	got := b.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
