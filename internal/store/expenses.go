package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
)

// ExpenseHeader is the CSV header for expenses.csv.
const ExpenseHeader = "date,category,amount,counterparty,source_file,processed_at"

const (
	expenseFields  = 6
	dateFormat     = "02/01/2006"
	stampFormat    = time.RFC3339
	colExpDate     = 0
	colExpCategory = 1
	colExpAmount   = 2
	colExpCparty   = 3
	colExpSource   = 4
	colExpStamp    = 5
)

// MarshalExpense converts a record to a CSV row.
func MarshalExpense(rec models.ExpenseRecord) []string {
	row := make([]string, expenseFields)
	row[colExpDate] = rec.Date.Format(dateFormat)
	row[colExpCategory] = rec.Category
	row[colExpAmount] = rec.Amount.StringFixed(2)
	row[colExpCparty] = rec.Counterparty
	row[colExpSource] = rec.SourceFile
	row[colExpStamp] = rec.ProcessedAt.Format(stampFormat)
	return row
}

// UnmarshalExpense converts a CSV row to a record.
func UnmarshalExpense(row []string) (models.ExpenseRecord, error) {
	if len(row) != expenseFields {
		return models.ExpenseRecord{}, fmt.Errorf("expected %d fields, got %d", expenseFields, len(row))
	}
	date, err := time.Parse(dateFormat, row[colExpDate])
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("parsing date %q: %w", row[colExpDate], err)
	}
	amount, err := decimal.NewFromString(row[colExpAmount])
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("parsing amount %q: %w", row[colExpAmount], err)
	}
	stamp, err := time.Parse(stampFormat, row[colExpStamp])
	if err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("parsing processed_at %q: %w", row[colExpStamp], err)
	}
	return models.ExpenseRecord{
		Date:         date,
		Category:     row[colExpCategory],
		Amount:       amount,
		Counterparty: row[colExpCparty],
		SourceFile:   row[colExpSource],
		ProcessedAt:  stamp,
	}, nil
}

// ReadExpenses reads all expense records from an expenses.csv reader.
func ReadExpenses(r io.Reader) ([]models.ExpenseRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = expenseFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading expenses CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []models.ExpenseRecord
	for i, row := range rows[1:] {
		rec, err := UnmarshalExpense(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteExpenses writes records (with header) to an expenses.csv writer.
func WriteExpenses(w io.Writer, records []models.ExpenseRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ExpenseHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(MarshalExpense(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// LoadExpenses returns every persisted expense. A missing table reads as
// empty.
func (s *Store) LoadExpenses() ([]models.ExpenseRecord, error) {
	f, err := os.Open(s.path(expensesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening expenses: %w", err)
	}
	defer f.Close()
	return ReadExpenses(f)
}

// SaveExpenses persists categorized expenses. In append mode records
// whose (date, amount, counterparty) triple already exists are dropped
// unless the store allows duplicates.
func (s *Store) SaveExpenses(records []models.ExpenseRecord, sourceFile string, mode Mode) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	combined := records
	duplicates := 0

	if mode != ModeOverwrite {
		existing, err := s.LoadExpenses()
		if err != nil {
			return SaveResult{}, err
		}
		if !s.opts.AllowDuplicates {
			seen := make(map[string]bool, len(existing))
			for _, rec := range existing {
				seen[expenseKey(rec)] = true
			}
			kept := records[:0:0]
			for _, rec := range records {
				if seen[expenseKey(rec)] {
					duplicates++
					continue
				}
				kept = append(kept, rec)
			}
			records = kept
		}
		combined = append(existing, records...)
	}

	var buf bytes.Buffer
	if err := WriteExpenses(&buf, combined); err != nil {
		return SaveResult{}, err
	}
	if err := s.writeFileAtomic(s.path(expensesFile), buf.Bytes()); err != nil {
		return SaveResult{}, err
	}

	result := SaveResult{
		Added:      len(records),
		Duplicates: duplicates,
		Total:      len(combined),
		Mode:       mode,
		SourceFile: sourceFile,
	}
	if err := s.recordProcessing("expenses", sourceFile, result.Added, result.Total); err != nil {
		return result, err
	}
	return result, nil
}

func expenseKey(rec models.ExpenseRecord) string {
	return rec.Date.Format(dateFormat) + "|" + rec.Amount.StringFixed(2) + "|" + rec.Counterparty
}

// FilterExpensesByMonth keeps records whose date falls in month
// ("MM/YYYY"). An empty month keeps everything.
func FilterExpensesByMonth(records []models.ExpenseRecord, month string) []models.ExpenseRecord {
	if month == "" {
		return records
	}
	var out []models.ExpenseRecord
	for _, rec := range records {
		if rec.Date.Format("01/2006") == month {
			out = append(out, rec)
		}
	}
	return out
}
