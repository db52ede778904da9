// Package ledger loads brokerage accounts and transactions from a
// directory of CSV files. File roles are detected from headers, so
// accounts and transactions can be spread across files in any mix.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
)

var accountHeader = []string{"account_id", "account_no", "broker", "address", "zip_code", "country", "currency"}
var transactionHeader = []string{"account_id", "date", "stock", "lot_id", "transaction_type", "units", "buy_price", "sell_price"}

// Ledger is the loaded input: accounts, the chronologically sorted
// transaction stream, and a non-owning account index for reporting.
type Ledger struct {
	Accounts     []domain.Account
	Transactions []domain.Transaction

	byID map[string]domain.Account
}

// AccountFor resolves a transaction's account by id.
func (l *Ledger) AccountFor(tx domain.Transaction) (domain.Account, bool) {
	acc, ok := l.byID[tx.AccountID]
	return acc, ok
}

// LoadDir reads every .csv file under dir, classifies each by its
// header row and assembles the ledger. Files with an unrecognized
// header are skipped with a warning. Transactions are sorted by
// (date, stock, SPLIT<CREDIT<DEBIT); within one key they keep file
// order.
func LoadDir(dir string) (*Ledger, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ledger dir: %w", err)
	}

	l := &Ledger{byID: make(map[string]domain.Account)}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := l.loadFile(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", entry.Name(), err)
		}
	}

	sort.SliceStable(l.Transactions, func(i, j int) bool {
		a, b := l.Transactions[i], l.Transactions[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Stock != b.Stock {
			return a.Stock < b.Stock
		}
		return a.Type < b.Type
	})

	return l, nil
}

func (l *Ledger) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		slog.Warn("skipping empty csv file", "file", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	switch {
	case headerEquals(header, accountHeader):
		return l.readAccounts(r)
	case headerEquals(header, transactionHeader):
		return l.readTransactions(r)
	default:
		slog.Warn("skipping csv file with unknown header", "file", path)
		return nil
	}
}

func headerEquals(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func (l *Ledger) readAccounts(r *csv.Reader) error {
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading account row: %w", err)
		}
		acc := domain.Account{
			AccountID: row[0],
			AccountNo: row[1],
			Broker:    row[2],
			Address:   row[3],
			ZipCode:   row[4],
			Country:   row[5],
			Currency:  row[6],
		}
		l.byID[acc.AccountID] = acc
		l.Accounts = append(l.Accounts, acc)
	}
}

func (l *Ledger) readTransactions(r *csv.Reader) error {
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading transaction row: %w", err)
		}

		day, err := dates.Parse(row[1])
		if err != nil {
			return fmt.Errorf("transaction date: %w", err)
		}
		txType, err := domain.ParseTxType(row[4])
		if err != nil {
			return err
		}
		units, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
		if err != nil {
			return fmt.Errorf("transaction units %q: %w", row[5], err)
		}

		l.Transactions = append(l.Transactions, domain.Transaction{
			AccountID: row[0],
			Date:      day,
			Stock:     row[2],
			LotID:     row[3],
			Type:      txType,
			Units:     units,
			BuyPrice:  domain.ParseAmount(row[6]),
			SellPrice: domain.ParseAmount(row[7]),
		})
	}
}
