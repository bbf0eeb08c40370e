package classify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
)

func TestExpenseCategorize(t *testing.T) {
	c := NewExpenseClassifier(DefaultExpenseRules())

	tests := []struct {
		name     string
		expected string
	}{
		{"LIGHT SERVICOS DE ELETRICIDADE", models.CategoryUtilities},
		{"PJBANK PAGAMENTOS SA", models.CategoryRent},
		{"GISELE CRISTINA DA SILVA", models.CategoryCleaning},
		{"BEATRIZ PRETA RICART", models.CategoryPhysiotherapists},
		{"RAFAELA MAGALHAES DE FRANCA", models.CategoryPhysiotherapists},
		{"ELISANGELA VIANNA BARRETO", models.CategoryAccounting},
		{"CAISSA RIBEIRO", models.CategoryOwnerDraw},
		{"FILIPE DE SOUZA RIBEIRO", models.CategoryOwnerDraw},
		{"caissa ribeiro", models.CategoryOwnerDraw},
		{"PADARIA DO BAIRRO LTDA", models.CategoryMiscellaneous},
		{"", models.CategoryMiscellaneous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Categorize(tt.name); got != tt.expected {
				t.Errorf("Categorize(%q): got %s, want %s", tt.name, got, tt.expected)
			}
		})
	}
}

// Rule order decides ties: a counterparty matching both the owner-draw
// and a later rule must land on owner draw.
func TestExpenseRuleOrderWins(t *testing.T) {
	c := NewExpenseClassifier([]ExpenseRule{
		{Category: models.CategoryOwnerDraw, Keywords: []string{"RIBEIRO"}},
		{Category: models.CategoryCleaning, Keywords: []string{"RIBEIRO"}},
	})
	if got := c.Categorize("FILIPE RIBEIRO"); got != models.CategoryOwnerDraw {
		t.Errorf("expected first rule to win, got %s", got)
	}
}

func TestProcessDebits(t *testing.T) {
	c := NewExpenseClassifier(DefaultExpenseRules())
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		{Date: day("2025-03-01"), Amount: dec("-1200.00"), Counterparty: "PJBANK PAGAMENTOS SA"},
		{Date: day("2025-03-05"), Amount: dec("-310.55"), Counterparty: "LIGHT SERVICOS"},
		{Date: day("2025-03-07"), Amount: dec("500.00"), Counterparty: "PIX RECEBIDO FULANO"},
		{Date: day("2025-03-09"), Amount: dec("-80.00"), Counterparty: "PADARIA DO BAIRRO"},
	}

	records := c.ProcessDebits(txns, "extrato-marco.ofx", now)
	if len(records) != 3 {
		t.Fatalf("expected 3 expense records, got %d", len(records))
	}

	if records[0].Category != models.CategoryRent {
		t.Errorf("expected Rent, got %s", records[0].Category)
	}
	if !records[0].Amount.Equal(dec("1200.00")) {
		t.Errorf("expected positive magnitude 1200.00, got %s", records[0].Amount)
	}
	if records[2].Category != models.CategoryMiscellaneous {
		t.Errorf("expected Miscellaneous, got %s", records[2].Category)
	}
	for _, rec := range records {
		if rec.Amount.IsNegative() {
			t.Errorf("expense amount must be positive, got %s", rec.Amount)
		}
		if rec.SourceFile != "extrato-marco.ofx" {
			t.Errorf("unexpected source file %q", rec.SourceFile)
		}
		if !rec.ProcessedAt.Equal(now) {
			t.Errorf("unexpected processed-at %s", rec.ProcessedAt)
		}
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
