// Package extractor turns uploaded statement files into plain text
// ready for parsing.
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReadStatement loads the statement at path and returns its textual
// content. OFX and TXT files are read directly; PDF statements go
// through text extraction.
func ReadStatement(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading statement: %w", err)
		}
		return DecodeText(data), nil
	case ".pdf":
		return ExtractStatementText(path)
	default:
		return "", fmt.Errorf("unsupported statement format %q: want .ofx, .txt or .pdf", filepath.Ext(path))
	}
}

// DecodeText converts raw statement bytes to a UTF-8 string. Bank
// exports frequently arrive in Latin-1, so invalid UTF-8 is reinterpreted
// as ISO 8859-1 rather than replaced with U+FFFD runes.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
