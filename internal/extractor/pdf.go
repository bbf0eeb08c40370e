package extractor

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// statementWords are terms that show up in virtually every Brazilian
// bank statement. Extracted text containing none of them is treated as
// garbage from an undecodable font.
var statementWords = []string{
	"saldo", "extrato", "conta", "data", "valor", "lancamento",
	"lançamento", "pix", "ted", "transferencia", "transferência",
	"pagamento", "periodo", "período", "agencia", "agência",
}

// ExtractStatementText reads a PDF statement and returns its text with
// pages joined by blank lines. It never returns undecodable garbage.
func ExtractStatementText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	pages := extractByRow(r, numPages)
	if isReadableText(pages) {
		return strings.Join(pages, "\n\n"), nil
	}

	pages = extractByPlainText(r, numPages)
	if isReadableText(pages) {
		return strings.Join(pages, "\n\n"), nil
	}

	whole := extractWholeDocument(r)
	if isReadableText([]string{whole}) {
		return whole, nil
	}

	return "", fmt.Errorf("no readable text could be extracted: the PDF may be image-based or use custom font encodings")
}

// extractByRow walks the page rows top to bottom, which preserves the
// statement's line structure best.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByPlainText uses per-page plain-text extraction with the
// page's font map.
func extractByPlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func extractWholeDocument(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// isReadableText requires enough text, a high ratio of readable
// characters and at least one recognizable statement word.
func isReadableText(pages []string) bool {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxLatin1 && (unicode.IsLetter(r) || unicode.IsDigit(r) ||
				unicode.IsSpace(r) || unicode.IsPunct(r) || r == '$' || r == '+') {
				readable++
			}
		}
	}
	if total <= 50 || float64(readable)/float64(total) <= 0.6 {
		return false
	}

	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}
