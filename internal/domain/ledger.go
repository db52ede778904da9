package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
)

// TxType is the kind of a ledger transaction. The numeric order is the
// same-day application order: splits first, then purchases, then sales.
type TxType int

const (
	TxSplit TxType = iota
	TxCredit
	TxDebit
)

// ParseTxType parses a transaction type name, case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "split":
		return TxSplit, nil
	case "credit":
		return TxCredit, nil
	case "debit":
		return TxDebit, nil
	}
	return 0, fmt.Errorf("unknown transaction type %q", s)
}

// String returns the lowercase name of the type.
func (t TxType) String() string {
	switch t {
	case TxSplit:
		return "split"
	case TxCredit:
		return "credit"
	case TxDebit:
		return "debit"
	}
	return fmt.Sprintf("TxType(%d)", int(t))
}

// Account identifies one brokerage account. AccountID is the key other
// records reference; it is assigned by the user, not the broker.
type Account struct {
	AccountID string `json:"accountId"`
	AccountNo string `json:"accountNo"`
	Broker    string `json:"broker"`
	Address   string `json:"address"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Currency  string `json:"currency"`
}

// Transaction is a single ledger entry against a lot of a stock.
// For a SPLIT, Units carries the split ratio and LotID is ignored.
type Transaction struct {
	AccountID string          `json:"accountId"`
	Date      dates.Date      `json:"date"`
	Stock     string          `json:"stock"`
	LotID     string          `json:"lotId"`
	Type      TxType          `json:"type"`
	Units     int64           `json:"units"`
	BuyPrice  decimal.Decimal `json:"buyPrice"`
	SellPrice decimal.Decimal `json:"sellPrice"`
}
