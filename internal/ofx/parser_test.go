package ofx

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func block(date, amount, memo string) string {
	return "<STMTTRN>\n<TRNTYPE>OTHER\n<DTPOSTED>" + date +
		"\n<TRNAMT>" + amount + "\n<MEMO>" + memo + "\n</STMTTRN>\n"
}

func TestParseBasicStatement(t *testing.T) {
	content := "OFXHEADER:100\n<OFX><BANKTRANLIST>\n" +
		block("20250315100000", "-150.00", "PIX TRANSF 12345678901234 ACME SERVICOS LTDA 000123") +
		block("20250316", "350.00", "PIX RECEBIDO MARIA DA SILVA 98765432100") +
		"</BANKTRANLIST></OFX>"

	res := Parse(content)
	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(res.Transactions))
	}
	if res.Skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", res.Skipped)
	}

	debit := res.Transactions[0]
	if debit.Kind != models.KindDebit {
		t.Errorf("expected DEBIT, got %s", debit.Kind)
	}
	if got := debit.Date.Format("2006-01-02"); got != "2025-03-15" {
		t.Errorf("expected date 2025-03-15, got %s", got)
	}
	if debit.Counterparty != "ACME SERVICOS LTDA" {
		t.Errorf("expected counterparty ACME SERVICOS LTDA, got %q", debit.Counterparty)
	}
	if debit.TaxID != "12345678901234" {
		t.Errorf("expected CNPJ tax id, got %q", debit.TaxID)
	}

	credit := res.Transactions[1]
	if credit.Kind != models.KindCredit {
		t.Errorf("expected CREDIT, got %s", credit.Kind)
	}
	if !credit.Amount.Equal(dec("350.00")) {
		t.Errorf("expected amount 350.00, got %s", credit.Amount)
	}
}

func TestParseFiltersBalanceLines(t *testing.T) {
	content := block("20250301", "-100.00", "TED 11222333000144 FORNECEDOR LTDA") +
		block("20250301", "5432.10", "SALDO TOTAL DISPONÍVEL DIA") +
		block("20250302", "1000.00", "SALDO ANTERIOR") +
		block("20250303", "200.00", "POSICAO DO DIA 03/03")

	res := Parse(content)
	if len(res.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(res.Transactions))
	}
	if len(res.Filtered) != 3 {
		t.Fatalf("expected 3 filtered entries, got %d", len(res.Filtered))
	}
	if res.Filtered[0].Reason != "balance announcement" {
		t.Errorf("unexpected reason %q", res.Filtered[0].Reason)
	}
	if res.Filtered[2].Reason != "daily position line" {
		t.Errorf("unexpected reason %q", res.Filtered[2].Reason)
	}
	// filtered entries keep their amounts for audit
	if !res.Filtered[0].Amount.Equal(dec("5432.10")) {
		t.Errorf("expected filtered amount 5432.10, got %s", res.Filtered[0].Amount)
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		skipped int
		parsed  int
	}{
		{
			name:    "missing amount",
			content: "<STMTTRN>\n<DTPOSTED>20250301\n<MEMO>PIX RECEBIDO FULANO\n</STMTTRN>",
			skipped: 1,
		},
		{
			name:    "missing memo",
			content: "<STMTTRN>\n<DTPOSTED>20250301\n<TRNAMT>10.00\n</STMTTRN>",
			skipped: 1,
		},
		{
			name:    "unparseable amount",
			content: block("20250301", "12,50", "PIX RECEBIDO FULANO"),
			skipped: 1,
		},
		{
			name:    "short date",
			content: block("2025030", "10.00", "PIX RECEBIDO FULANO"),
			skipped: 1,
		},
		{
			name:    "alphabetic date",
			content: block("2025MAR1", "10.00", "PIX RECEBIDO FULANO"),
			skipped: 1,
		},
		{
			name:    "impossible calendar date",
			content: block("20251335", "10.00", "PIX RECEBIDO FULANO"),
			skipped: 1,
		},
		{
			name: "bad block does not poison good ones",
			content: block("garbage", "10.00", "PIX RECEBIDO FULANO") +
				block("20250301", "10.00", "PIX RECEBIDO BELTRANO"),
			skipped: 1,
			parsed:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.content)
			if res.Skipped != tt.skipped {
				t.Errorf("skipped: got %d, want %d", res.Skipped, tt.skipped)
			}
			if len(res.Transactions) != tt.parsed {
				t.Errorf("parsed: got %d, want %d", len(res.Transactions), tt.parsed)
			}
		})
	}
}

func TestParseDatePrefixWithTimezoneNoise(t *testing.T) {
	res := Parse(block("20250310120000[-3:BRT]", "42.00", "PIX RECEBIDO CICLANO"))
	if len(res.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d (skipped %d)", len(res.Transactions), res.Skipped)
	}
	if got := res.Transactions[0].Date.Format("2006-01-02"); got != "2025-03-10" {
		t.Errorf("expected 2025-03-10, got %s", got)
	}
}

func TestParseEmptyInput(t *testing.T) {
	res := Parse("")
	if len(res.Transactions) != 0 || len(res.Filtered) != 0 || res.Skipped != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestKindMatchesSign(t *testing.T) {
	content := block("20250301", "-0.01", "TAR PIX PGTO TRANSF") +
		block("20250301", "0.01", "PIX RECEBIDO FULANO")

	res := Parse(content)
	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(res.Transactions))
	}
	for _, txn := range res.Transactions {
		want := models.KindDebit
		if txn.Amount.IsPositive() {
			want = models.KindCredit
		}
		if txn.Kind != want {
			t.Errorf("amount %s: got kind %s, want %s", txn.Amount, txn.Kind, want)
		}
	}
}
