package classify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/humaniza/clinic-ledger/internal/models"
)

// Alias maps a noisy payer name (as it appears in memos) to a canonical
// patient name. An empty Patient means the record is left for a human to
// complete.
type Alias struct {
	Match   string `mapstructure:"match"`
	Patient string `mapstructure:"patient"`
}

// RevenueRules configure the revenue classifier. CardMarker identifies
// card-acquirer settlements whose real payer is unknown until the
// acquirer report is checked.
type RevenueRules struct {
	CardMarker string  `mapstructure:"card_marker"`
	Aliases    []Alias `mapstructure:"aliases"`
}

// DefaultRevenueRules returns the clinic's curated tables. Every default
// alias maps to an empty patient: these payers are known not to be the
// patient themselves (spouses, employers, payment firms).
func DefaultRevenueRules() RevenueRules {
	return RevenueRules{
		CardMarker: "REDE",
		Aliases: []Alias{
			{Match: "ALESSANDRA CRISTINE VAZ SANTOS"},
			{Match: "KAREN SILVA DE MELO"},
			{Match: "KARLOS ALEXANDRE OLIVEIRA"},
			{Match: "CARLOS HENRIQUE FRANGO"},
			{Match: "FELIPE CUNHA MATOS"},
			{Match: "MATHEUS SILVA BERNARDES"},
			{Match: "SOLUÇÃO ELETRONICA MOTO PEÇA"},
			{Match: "LMCC DA COSTA LUANA"},
			{Match: "GPBR PARTICIPACOES LTDA"},
		},
	}
}

// RevenueOutcome is the classification of one credit.
type RevenueOutcome struct {
	Patient         string
	PaymentSource   string
	FillKind        models.FillKind
	NeedsManualFill bool
	Reason          string
}

// RevenueStats counts how a batch of credits was classified.
type RevenueStats struct {
	Total  int `json:"total"`
	Card   int `json:"card"`
	Manual int `json:"manual"`
	Auto   int `json:"auto"`
}

var (
	namePunctPattern    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	nameSpacePattern    = regexp.MustCompile(`\s+`)
	nameTrailingDigits  = regexp.MustCompile(`\s+\d+$`)
	pixReceivedPrefixes = []string{"PIX RECEBIDO ", "PIX QRS "}
)

// CleanName normalizes a payer name for rule matching: uppercase, no
// punctuation, collapsed whitespace, PIX-received marker and trailing
// numeric runs (assumed tax ids) removed.
func CleanName(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = namePunctPattern.ReplaceAllString(s, " ")
	s = nameSpacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	for _, prefix := range pixReceivedPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	s = nameTrailingDigits.ReplaceAllString(s, "")
	return strings.TrimSpace(nameSpacePattern.ReplaceAllString(s, " "))
}

// RevenueClassifier assigns patient and payment source to credits.
// Immutable after construction.
type RevenueClassifier struct {
	rules RevenueRules
}

// NewRevenueClassifier builds a classifier over the given tables.
func NewRevenueClassifier(rules RevenueRules) *RevenueClassifier {
	rules.Aliases = append([]Alias(nil), rules.Aliases...)
	return &RevenueClassifier{rules: rules}
}

// Categorize classifies an already-cleaned payer name. Priority is fixed:
// card-acquirer marker, then the alias table, then auto-fill from the
// name itself.
func (c *RevenueClassifier) Categorize(cleanName string) RevenueOutcome {
	if c.rules.CardMarker != "" && strings.Contains(cleanName, c.rules.CardMarker) {
		return RevenueOutcome{
			PaymentSource:   models.SourceCreditCard,
			FillKind:        models.FillCard,
			NeedsManualFill: true,
			Reason:          "card acquirer settlement",
		}
	}

	for _, alias := range c.rules.Aliases {
		if !strings.Contains(cleanName, alias.Match) {
			continue
		}
		if alias.Patient != "" {
			return RevenueOutcome{
				Patient:       alias.Patient,
				PaymentSource: models.SourcePrivate,
				FillKind:      models.FillAuto,
				Reason:        fmt.Sprintf("alias match: %s", alias.Match),
			}
		}
		return RevenueOutcome{
			FillKind:        models.FillManualList,
			NeedsManualFill: true,
			Reason:          fmt.Sprintf("payer on manual-fill list: %s", alias.Match),
		}
	}

	return RevenueOutcome{
		Patient:       cleanName,
		PaymentSource: models.SourcePrivate,
		FillKind:      models.FillAuto,
		Reason:        "patient auto-filled from payer name",
	}
}

// ProcessCredits classifies every credit transaction into a revenue
// record and reports per-run counters.
func (c *RevenueClassifier) ProcessCredits(txns []models.Transaction, sourceFile string, now time.Time) ([]models.RevenueRecord, RevenueStats) {
	var records []models.RevenueRecord
	var stats RevenueStats

	for _, txn := range txns {
		if !txn.Amount.IsPositive() {
			continue
		}
		clean := CleanName(txn.Counterparty)
		outcome := c.Categorize(clean)

		records = append(records, models.RevenueRecord{
			Date:              txn.Date,
			CounterpartyRaw:   txn.Counterparty,
			CounterpartyClean: clean,
			Amount:            txn.Amount,
			Patient:           outcome.Patient,
			PaymentSource:     outcome.PaymentSource,
			FillKind:          outcome.FillKind,
			NeedsManualFill:   outcome.NeedsManualFill,
			Reason:            outcome.Reason,
			SourceFile:        sourceFile,
			ProcessedAt:       now,
		})

		stats.Total++
		switch outcome.FillKind {
		case models.FillCard:
			stats.Card++
		case models.FillManualList:
			stats.Manual++
		case models.FillAuto:
			stats.Auto++
		}
	}

	return records, stats
}
