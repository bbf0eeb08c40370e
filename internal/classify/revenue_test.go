package classify

import (
	"testing"
	"time"

	"github.com/humaniza/clinic-ledger/internal/models"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PIX RECEBIDO MARIA DA SILVA 98765432100", "MARIA DA SILVA"},
		{"PIX QRS JOAO P. COSTA", "JOAO P COSTA"},
		{"maria   da  silva", "MARIA DA SILVA"},
		{"ANA-CLARA SOUZA", "ANA CLARA SOUZA"},
		{"FULANO DE TAL 12345678901", "FULANO DE TAL"},
		{"  REDECARD S.A.  ", "REDECARD S A"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanName(tt.input); got != tt.expected {
				t.Errorf("CleanName(%q): got %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRevenueCategorize(t *testing.T) {
	c := NewRevenueClassifier(DefaultRevenueRules())

	t.Run("card settlement", func(t *testing.T) {
		got := c.Categorize("REDECARD S A")
		if got.PaymentSource != models.SourceCreditCard {
			t.Errorf("expected Credit Card source, got %q", got.PaymentSource)
		}
		if got.Patient != "" {
			t.Errorf("expected empty patient, got %q", got.Patient)
		}
		if !got.NeedsManualFill || got.FillKind != models.FillCard {
			t.Errorf("expected pending card fill, got %+v", got)
		}
	})

	t.Run("card marker beats alias table", func(t *testing.T) {
		rules := DefaultRevenueRules()
		rules.Aliases = append(rules.Aliases, Alias{Match: "REDE", Patient: "NOT A PATIENT"})
		got := NewRevenueClassifier(rules).Categorize("REDE RECEBIMENTOS")
		if got.FillKind != models.FillCard {
			t.Errorf("expected card outcome, got %+v", got)
		}
	})

	t.Run("manual-list payer", func(t *testing.T) {
		got := c.Categorize("KAREN SILVA DE MELO")
		if !got.NeedsManualFill || got.FillKind != models.FillManualList {
			t.Errorf("expected manual-list outcome, got %+v", got)
		}
		if got.Patient != "" || got.PaymentSource != "" {
			t.Errorf("expected empty patient and source, got %+v", got)
		}
	})

	t.Run("alias with canonical patient auto-fills", func(t *testing.T) {
		rules := RevenueRules{
			CardMarker: "REDE",
			Aliases:    []Alias{{Match: "GPBR PARTICIPACOES", Patient: "CARLA MENDES"}},
		}
		got := NewRevenueClassifier(rules).Categorize("GPBR PARTICIPACOES LTDA")
		if got.Patient != "CARLA MENDES" {
			t.Errorf("expected mapped patient, got %q", got.Patient)
		}
		if got.NeedsManualFill || got.FillKind != models.FillAuto {
			t.Errorf("expected completed auto outcome, got %+v", got)
		}
		if got.PaymentSource != models.SourcePrivate {
			t.Errorf("expected Private source, got %q", got.PaymentSource)
		}
	})

	t.Run("unknown payer becomes the patient", func(t *testing.T) {
		got := c.Categorize("MARIA DA SILVA")
		if got.Patient != "MARIA DA SILVA" {
			t.Errorf("expected payer as patient, got %q", got.Patient)
		}
		if got.NeedsManualFill || got.FillKind != models.FillAuto {
			t.Errorf("expected auto outcome, got %+v", got)
		}
	})
}

func TestProcessCredits(t *testing.T) {
	c := NewRevenueClassifier(DefaultRevenueRules())
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		{Date: day("2025-03-03"), Amount: dec("890.00"), Counterparty: "REDECARD S.A."},
		{Date: day("2025-03-04"), Amount: dec("250.00"), Counterparty: "PIX RECEBIDO MARIA DA SILVA 98765432100"},
		{Date: day("2025-03-05"), Amount: dec("250.00"), Counterparty: "KAREN SILVA DE MELO"},
		{Date: day("2025-03-06"), Amount: dec("-99.00"), Counterparty: "LIGHT SERVICOS"},
	}

	records, stats := c.ProcessCredits(txns, "extrato-marco.ofx", now)
	if len(records) != 3 {
		t.Fatalf("expected 3 revenue records, got %d", len(records))
	}
	if stats.Total != 3 || stats.Card != 1 || stats.Manual != 1 || stats.Auto != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if records[0].PaymentSource != models.SourceCreditCard {
		t.Errorf("expected card settlement first, got %+v", records[0])
	}
	if records[1].Patient != "MARIA DA SILVA" {
		t.Errorf("expected auto-filled patient, got %q", records[1].Patient)
	}
	if records[1].CounterpartyClean != "MARIA DA SILVA" {
		t.Errorf("unexpected cleaned name %q", records[1].CounterpartyClean)
	}
	if !records[2].NeedsManualFill {
		t.Error("expected manual-list payer to stay pending")
	}
}
