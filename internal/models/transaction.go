package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnKind marks a transaction as money in or money out.
type TxnKind string

const (
	KindCredit TxnKind = "CREDIT"
	KindDebit  TxnKind = "DEBIT"
)

// KindForAmount derives the transaction kind from the signed amount.
// Positive means credit; zero and negative mean debit.
func KindForAmount(amount decimal.Decimal) TxnKind {
	if amount.IsPositive() {
		return KindCredit
	}
	return KindDebit
}

// Transaction is a single movement extracted from a bank statement.
type Transaction struct {
	Date                  time.Time       `json:"date"`
	Amount                decimal.Decimal `json:"amount"`
	Memo                  string          `json:"memo"`
	Counterparty          string          `json:"counterparty"`
	CounterpartyExtracted bool            `json:"counterpartyExtracted"`
	TaxID                 string          `json:"taxId,omitempty"`
	Kind                  TxnKind         `json:"kind"`
}

// InformationalEntry is a statement line that announces a balance or
// position rather than a movement. Kept for audit, excluded from all
// aggregation.
type InformationalEntry struct {
	Memo   string          `json:"memo"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}
