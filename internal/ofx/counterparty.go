package ofx

import (
	"regexp"
	"strings"
)

// Transport markers that Brazilian bank exports prepend to the memo.
// Order matters: only the first matching prefix is stripped.
var transportPrefixes = []string{
	"PIX TRANSF ",
	"PIX ENVIADO ",
	"TED ",
	"SISPAG PIX QR-CODE ",
	"REDE  VISA ",
	"REDE  MAST ",
	"BOLETO  PAGO ",
	"DEV PIX ",
	"TAR PIX PGTO TRANSF",
}

var (
	// CNPJ is 14 digits, CPF is 11; both must be bounded by non-digits.
	cnpjPattern = regexp.MustCompile(`\b\d{14}\b`)
	cpfPattern  = regexp.MustCompile(`\b\d{11}\b`)

	// DD/MM fragments and routing/sequence codes that trail the name.
	dayMonthPattern       = regexp.MustCompile(`\d{2}/\d{2}`)
	trailingDigitsPattern = regexp.MustCompile(`\s+\d+$`)
	trailingCodePattern   = regexp.MustCompile(`\s+\d{8,}$`)
)

// ExtractTaxID returns the first standalone CNPJ (14 digits) in the memo,
// falling back to the first standalone CPF (11 digits). Empty when neither
// is present.
func ExtractTaxID(memo string) string {
	if m := cnpjPattern.FindString(memo); m != "" {
		return m
	}
	return cpfPattern.FindString(memo)
}

// ExtractName derives the counterparty's legal name from a statement memo.
// It strips a known transport prefix, and when the memo embeds a tax id,
// takes the text following it with trailing sequence codes removed.
// The second return value reports whether a name was derived; when the
// heuristic comes up empty the raw memo is returned verbatim with false.
func ExtractName(memo string) (string, bool) {
	text := strings.TrimSpace(memo)
	for _, prefix := range transportPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(text[len(prefix):])
			break
		}
	}

	if doc := ExtractTaxID(text); doc != "" {
		if _, after, ok := strings.Cut(text, doc); ok {
			name := strings.TrimSpace(after)
			name = strings.TrimSpace(trailingDigitsPattern.ReplaceAllString(name, ""))
			if name != "" {
				return name, true
			}
		}
	}

	// No usable tax id: drop DD/MM date fragments and long trailing codes.
	text = strings.TrimSpace(dayMonthPattern.ReplaceAllString(text, ""))
	text = strings.TrimSpace(trailingCodePattern.ReplaceAllString(text, ""))
	if text != "" {
		return text, true
	}
	return memo, false
}
