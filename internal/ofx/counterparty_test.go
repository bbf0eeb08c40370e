package ofx

import (
	"testing"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		name      string
		memo      string
		expected  string
		extracted bool
	}{
		{
			name:      "pix transfer with cnpj and sequence code",
			memo:      "PIX TRANSF 12345678901234 ACME SERVICOS LTDA 000123",
			expected:  "ACME SERVICOS LTDA",
			extracted: true,
		},
		{
			name:      "ted with cnpj",
			memo:      "TED 11222333000144 FORNECEDOR DE EQUIPAMENTOS LTDA",
			expected:  "FORNECEDOR DE EQUIPAMENTOS LTDA",
			extracted: true,
		},
		{
			name:      "pix sent with cpf",
			memo:      "PIX ENVIADO 98765432100 MARIA DA SILVA",
			expected:  "MARIA DA SILVA",
			extracted: true,
		},
		{
			name:      "no tax id strips day-month fragment",
			memo:      "BOLETO  PAGO CONDOMINIO EDIFICIO 15/03",
			expected:  "CONDOMINIO EDIFICIO",
			extracted: true,
		},
		{
			name:      "no tax id strips long trailing code",
			memo:      "PIX TRANSF JOAO PEREIRA 202503159999",
			expected:  "JOAO PEREIRA",
			extracted: true,
		},
		{
			name:      "plain name passes through",
			memo:      "DEV PIX ANA BEATRIZ COSTA",
			expected:  "ANA BEATRIZ COSTA",
			extracted: true,
		},
		{
			name:      "only one prefix is stripped",
			memo:      "PIX TRANSF TED EVENTOS LTDA",
			expected:  "TED EVENTOS LTDA",
			extracted: true,
		},
		{
			name:      "tax id with nothing after keeps the remainder",
			memo:      "PIX TRANSF 12345678901234",
			expected:  "12345678901234",
			extracted: true,
		},
		{
			name:      "memo reduced to nothing falls back verbatim",
			memo:      "TED 01/02",
			expected:  "TED 01/02",
			extracted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, extracted := ExtractName(tt.memo)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
			if extracted != tt.extracted {
				t.Errorf("extracted: got %v, want %v", extracted, tt.extracted)
			}
		})
	}
}

func TestExtractTaxID(t *testing.T) {
	tests := []struct {
		name     string
		memo     string
		expected string
	}{
		{"cnpj", "PIX TRANSF 12345678901234 ACME LTDA", "12345678901234"},
		{"cpf", "PIX ENVIADO 98765432100 MARIA", "98765432100"},
		{"cnpj wins over cpf", "PAG 98765432100 VIA 12345678901234", "12345678901234"},
		{"embedded digits are not a document", "REF 123456789012345 PAGTO", ""},
		{"no digits", "PIX RECEBIDO FULANO DE TAL", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTaxID(tt.memo); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
