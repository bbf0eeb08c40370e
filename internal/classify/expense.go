package classify

import (
	"strings"
	"time"

	"github.com/humaniza/clinic-ledger/internal/models"
)

// ExpenseRule maps a category label to the keywords that select it.
// Rules are evaluated in slice order and the first keyword hit wins.
type ExpenseRule struct {
	Category string   `mapstructure:"category"`
	Keywords []string `mapstructure:"keywords"`
}

// DefaultExpenseRules returns the clinic's curated rule table. The
// keywords are counterparty names as they appear on Itaú statements.
func DefaultExpenseRules() []ExpenseRule {
	return []ExpenseRule{
		{Category: models.CategoryOwnerDraw, Keywords: []string{"CAISSA", "FILIPE DE SOUZA RIBEIRO"}},
		{Category: models.CategoryCleaning, Keywords: []string{"GISELE CRISTINA DA SILVA"}},
		{Category: models.CategoryUtilities, Keywords: []string{"LIGHT"}},
		{Category: models.CategoryRent, Keywords: []string{"PJBANK"}},
		{Category: models.CategoryPhysiotherapists, Keywords: []string{"BEATRIZ PRETA RICART", "RAFAELA MAGALHAES DE FRANCA"}},
		{Category: models.CategoryAccounting, Keywords: []string{"ELISANGELA VIANNA BARRETO"}},
	}
}

// ExpenseClassifier assigns expense categories by case-insensitive
// substring match. It is immutable after construction and safe for
// concurrent use.
type ExpenseClassifier struct {
	rules []ExpenseRule
}

// NewExpenseClassifier builds a classifier over the given ordered rules.
func NewExpenseClassifier(rules []ExpenseRule) *ExpenseClassifier {
	return &ExpenseClassifier{rules: append([]ExpenseRule(nil), rules...)}
}

// Categorize returns the category for a counterparty name, or
// CategoryMiscellaneous when no rule matches.
func (c *ExpenseClassifier) Categorize(name string) string {
	if name == "" {
		return models.CategoryMiscellaneous
	}
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(upper, strings.ToUpper(keyword)) {
				return rule.Category
			}
		}
	}
	return models.CategoryMiscellaneous
}

// ProcessDebits categorizes every debit transaction into an expense
// record. Amounts are stored as positive magnitudes.
func (c *ExpenseClassifier) ProcessDebits(txns []models.Transaction, sourceFile string, now time.Time) []models.ExpenseRecord {
	var records []models.ExpenseRecord
	for _, txn := range txns {
		if !txn.Amount.IsNegative() {
			continue
		}
		records = append(records, models.ExpenseRecord{
			Date:         txn.Date,
			Category:     c.Categorize(txn.Counterparty),
			Amount:       txn.Amount.Abs(),
			Counterparty: txn.Counterparty,
			SourceFile:   sourceFile,
			ProcessedAt:  now,
		})
	}
	return records
}
