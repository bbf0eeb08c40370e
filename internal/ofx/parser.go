package ofx

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
)

// OFX statements carry one <STMTTRN> block per transaction. Field values
// run until the next newline or tag; the wrapping SGML is not required to
// be well formed, so the blocks are located by pattern rather than by a
// document parser.
var (
	stmtTrnPattern = regexp.MustCompile(`(?s)<STMTTRN>(.*?)</STMTTRN>`)
	datePattern    = regexp.MustCompile(`<DTPOSTED>([^\n<]*)`)
	amountPattern  = regexp.MustCompile(`<TRNAMT>([^\n<]*)`)
	memoPattern    = regexp.MustCompile(`<MEMO>([^\n<]*)`)

	eightDigits = regexp.MustCompile(`^\d{8}`)
)

// Memos that announce a balance or a daily position instead of a movement.
var informationalPhrases = []string{
	"SALDO TOTAL DISPONÍVEL DIA",
	"SALDO ANTERIOR",
	"SALDO DISPONÍVEL",
	"SALDO INICIAL",
	"SALDO FINAL",
}

var informationalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^SALDO\s+(TOTAL|DISPONIVEL|ANTERIOR|INICIAL|FINAL)`),
	regexp.MustCompile(`POSICAO\s+DO\s+DIA`),
	regexp.MustCompile(`EXTRATO\s+DO\s+DIA`),
}

// ParseResult holds everything Parse found in one statement. Every block
// in the input ends up either in Transactions, in Filtered, or in the
// Skipped count; nothing is dropped silently.
type ParseResult struct {
	Transactions []models.Transaction        `json:"transactions"`
	Filtered     []models.InformationalEntry `json:"filtered"`
	Skipped      int                         `json:"skipped"`
}

// Parse extracts transactions from raw OFX statement text. Blocks with a
// missing or malformed date or amount are skipped and counted; the rest of
// the file still parses. Parse is a pure function of its input.
func Parse(content string) *ParseResult {
	res := &ParseResult{}

	for _, match := range stmtTrnPattern.FindAllStringSubmatch(content, -1) {
		block := match[1]

		dateField := findField(datePattern, block)
		amountField := findField(amountPattern, block)
		memo := findField(memoPattern, block)
		if dateField == "" || amountField == "" || memo == "" {
			res.Skipped++
			continue
		}

		amount, err := decimal.NewFromString(amountField)
		if err != nil {
			res.Skipped++
			continue
		}

		if reason, ok := informationalReason(memo); ok {
			res.Filtered = append(res.Filtered, models.InformationalEntry{
				Memo:   memo,
				Amount: amount,
				Reason: reason,
			})
			continue
		}

		// DTPOSTED carries YYYYMMDD followed by time/zone noise. The first
		// eight characters must all be digits; partially numeric dates are
		// rejected rather than sliced into a wrong date.
		if !eightDigits.MatchString(dateField) {
			res.Skipped++
			continue
		}
		date, err := time.Parse("20060102", dateField[:8])
		if err != nil {
			res.Skipped++
			continue
		}

		name, extracted := ExtractName(memo)
		res.Transactions = append(res.Transactions, models.Transaction{
			Date:                  date,
			Amount:                amount,
			Memo:                  memo,
			Counterparty:          name,
			CounterpartyExtracted: extracted,
			TaxID:                 ExtractTaxID(memo),
			Kind:                  models.KindForAmount(amount),
		})
	}

	return res
}

func findField(pattern *regexp.Regexp, block string) string {
	if m := pattern.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// informationalReason reports whether the memo is a balance announcement
// and, if so, why it is being filtered.
func informationalReason(memo string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(memo))

	for _, phrase := range informationalPhrases {
		if strings.Contains(upper, strings.ToUpper(phrase)) {
			return "balance announcement", true
		}
	}
	for _, pattern := range informationalPatterns {
		if pattern.MatchString(upper) {
			return "daily position line", true
		}
	}
	return "", false
}
