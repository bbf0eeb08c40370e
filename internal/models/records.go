package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense category labels. Categorization rules map counterparty names
// onto these; CategoryMiscellaneous is the bucket for unmatched names.
const (
	CategoryRent             = "Rent"
	CategoryUtilities        = "Utilities"
	CategoryPhysiotherapists = "Physiotherapists"
	CategoryCleaning         = "Cleaning"
	CategoryAccounting       = "Accounting"
	CategoryTaxes            = "Taxes"
	CategoryOwnerDraw        = "Owner Draw"
	CategoryMiscellaneous    = "Miscellaneous"
)

// OperatingCategories are the expense categories that count against the
// gross result of a monthly close. Owner draw is deducted separately.
var OperatingCategories = []string{
	CategoryRent,
	CategoryUtilities,
	CategoryPhysiotherapists,
	CategoryCleaning,
	CategoryAccounting,
	CategoryTaxes,
	CategoryMiscellaneous,
}

// ExpenseRecord is a categorized debit. Amount is stored as a positive
// magnitude.
type ExpenseRecord struct {
	Date         time.Time       `json:"date"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty"`
	SourceFile   string          `json:"sourceFile"`
	ProcessedAt  time.Time       `json:"processedAt"`
}

// FillKind records how the patient/payment-source pair of a revenue was
// determined.
type FillKind string

const (
	FillCard         FillKind = "card"          // card acquirer: source known, patient pending
	FillManualList   FillKind = "manual-list"   // payer on the manual-fill list
	FillAuto         FillKind = "auto"          // patient auto-filled from the cleaned name
	FillManualFilled FillKind = "manual-filled" // completed later by hand
	FillCardSplit    FillKind = "card-split"    // per-patient slice of a card settlement
)

// Payment sources.
const (
	SourceCreditCard = "Credit Card"
	SourcePrivate    = "Private"
)

// RevenueRecord is a categorized credit.
type RevenueRecord struct {
	Date              time.Time       `json:"date"`
	CounterpartyRaw   string          `json:"counterpartyRaw"`
	CounterpartyClean string          `json:"counterpartyClean"`
	Amount            decimal.Decimal `json:"amount"`
	Patient           string          `json:"patient"`
	PaymentSource     string          `json:"paymentSource"`
	FillKind          FillKind        `json:"fillKind"`
	NeedsManualFill   bool            `json:"needsManualFill"`
	Reason            string          `json:"reason"`
	SourceFile        string          `json:"sourceFile"`
	ProcessedAt       time.Time       `json:"processedAt"`
}

// MonthlyResult is a monthly close-out over the persisted tables.
// Month is "MM/YYYY".
type MonthlyResult struct {
	Month          string                     `json:"month"`
	GrossRevenue   decimal.Decimal            `json:"grossRevenue"`
	Operating      map[string]decimal.Decimal `json:"operating"`
	TotalOperating decimal.Decimal            `json:"totalOperating"`
	GrossResult    decimal.Decimal            `json:"grossResult"`
	OwnerDraw      decimal.Decimal            `json:"ownerDraw"`
	NetResult      decimal.Decimal            `json:"netResult"`
	ClosedAt       time.Time                  `json:"closedAt"`
	Notes          string                     `json:"notes"`
}
