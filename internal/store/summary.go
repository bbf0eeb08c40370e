package store

import (
	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
)

// ExpenseSummary aggregates expenses per category and per month.
type ExpenseSummary struct {
	Count      int                        `json:"count"`
	Total      decimal.Decimal            `json:"total"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
	ByMonth    map[string]decimal.Decimal `json:"by_month"`
}

// SummarizeExpenses builds totals from a record slice.
func SummarizeExpenses(records []models.ExpenseRecord) ExpenseSummary {
	summary := ExpenseSummary{
		ByCategory: make(map[string]decimal.Decimal),
		ByMonth:    make(map[string]decimal.Decimal),
	}
	for _, rec := range records {
		summary.Count++
		summary.Total = summary.Total.Add(rec.Amount)
		summary.ByCategory[rec.Category] = summary.ByCategory[rec.Category].Add(rec.Amount)
		month := rec.Date.Format("01/2006")
		summary.ByMonth[month] = summary.ByMonth[month].Add(rec.Amount)
	}
	return summary
}

// RevenueSummary aggregates revenues per payment source, patient and
// month, and counts the rows still awaiting a manual fill.
type RevenueSummary struct {
	Count     int                        `json:"count"`
	Total     decimal.Decimal            `json:"total"`
	Pending   int                        `json:"pending"`
	BySource  map[string]decimal.Decimal `json:"by_source"`
	ByPatient map[string]decimal.Decimal `json:"by_patient"`
	ByMonth   map[string]decimal.Decimal `json:"by_month"`
}

// SummarizeRevenues builds totals from a record slice. Rows without a
// patient yet are grouped under their cleaned counterparty name.
func SummarizeRevenues(records []models.RevenueRecord) RevenueSummary {
	summary := RevenueSummary{
		BySource:  make(map[string]decimal.Decimal),
		ByPatient: make(map[string]decimal.Decimal),
		ByMonth:   make(map[string]decimal.Decimal),
	}
	for _, rec := range records {
		summary.Count++
		summary.Total = summary.Total.Add(rec.Amount)
		if rec.NeedsManualFill {
			summary.Pending++
		}
		if rec.PaymentSource != "" {
			summary.BySource[rec.PaymentSource] = summary.BySource[rec.PaymentSource].Add(rec.Amount)
		}
		name := rec.Patient
		if name == "" {
			name = rec.CounterpartyClean
		}
		summary.ByPatient[name] = summary.ByPatient[name].Add(rec.Amount)
		month := rec.Date.Format("01/2006")
		summary.ByMonth[month] = summary.ByMonth[month].Add(rec.Amount)
	}
	return summary
}
