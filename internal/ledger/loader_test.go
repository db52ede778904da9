package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

const accountsCSV = `account_id,account_no,broker,address,zip_code,country,currency
acc1,12345,Charles Schwab,"1 Main St, NYC",10001,USA,USD
acc2,67890,Interactive Brokers,"2 High St, London",EC1,UK,USD
`

func TestLoadDirAccountsAndTransactions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "accounts.csv", accountsCSV)
	writeFile(t, dir, "transactions.csv", `account_id,date,stock,lot_id,transaction_type,units,buy_price,sell_price
acc1,2023-01-10,VTI,1,credit,100,150.5,
acc1,2023-06-15,VTI,1,debit,40,,160.25
`)

	l, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if len(l.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(l.Accounts))
	}
	if len(l.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(l.Transactions))
	}

	tx := l.Transactions[0]
	if tx.Type != domain.TxCredit || tx.Units != 100 || tx.Date != dates.MustParse("2023-01-10") {
		t.Errorf("first transaction = %+v", tx)
	}
	if tx.BuyPrice.String() != "150.5" {
		t.Errorf("buy price = %v, want 150.5", tx.BuyPrice)
	}
	// Blank sell price parses to the zero sentinel.
	if !tx.SellPrice.IsZero() {
		t.Errorf("sell price = %v, want 0", tx.SellPrice)
	}

	acc, ok := l.AccountFor(tx)
	if !ok || acc.Broker != "Charles Schwab" {
		t.Errorf("AccountFor = (%+v, %v)", acc, ok)
	}
}

func TestLoadDirSortsSameDayByStockAndType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "transactions.csv", `account_id,date,stock,lot_id,transaction_type,units,buy_price,sell_price
acc1,2023-06-01,VTI,2,debit,10,,160
acc1,2023-06-01,VTI,3,credit,20,150,
acc1,2023-06-01,VTI,,split,2,,
acc1,2023-06-01,AMZN,1,credit,5,120,
acc1,2023-05-31,VTI,1,credit,10,149,
`)

	l, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	type key struct {
		day   string
		stock string
		tt    domain.TxType
	}
	var got []key
	for _, tx := range l.Transactions {
		got = append(got, key{tx.Date.String(), tx.Stock, tx.Type})
	}

	want := []key{
		{"2023-05-31", "VTI", domain.TxCredit},
		{"2023-06-01", "AMZN", domain.TxCredit},
		{"2023-06-01", "VTI", domain.TxSplit},
		{"2023-06-01", "VTI", domain.TxCredit},
		{"2023-06-01", "VTI", domain.TxDebit},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tx[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadDirSkipsUnknownFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "accounts.csv", accountsCSV)
	writeFile(t, dir, "notes.csv", "title,body\nhello,world\n")
	writeFile(t, dir, "readme.txt", "not a csv at all")

	l, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(l.Accounts) != 2 || len(l.Transactions) != 0 {
		t.Errorf("loaded %d accounts, %d transactions", len(l.Accounts), len(l.Transactions))
	}
}

func TestLoadDirRejectsBadRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "transactions.csv", `account_id,date,stock,lot_id,transaction_type,units,buy_price,sell_price
acc1,2023-13-45,VTI,1,credit,100,150,
`)
	if _, err := LoadDir(dir); err == nil {
		t.Error("expected error for malformed date")
	}

	dir2 := t.TempDir()
	writeFile(t, dir2, "transactions.csv", `account_id,date,stock,lot_id,transaction_type,units,buy_price,sell_price
acc1,2023-06-01,VTI,1,transfer,100,150,
`)
	if _, err := LoadDir(dir2); err == nil {
		t.Error("expected error for unknown transaction type")
	}
}
