package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
)

// RevenueHeader is the CSV header for revenues.csv.
const RevenueHeader = "date,counterparty_raw,counterparty_clean,amount,patient,payment_source,fill_kind,needs_manual_fill,reason,source_file,processed_at"

const (
	revenueFields   = 11
	colRevDate      = 0
	colRevRaw       = 1
	colRevClean     = 2
	colRevAmount    = 3
	colRevPatient   = 4
	colRevSource    = 5
	colRevFillKind  = 6
	colRevNeedsFill = 7
	colRevReason    = 8
	colRevFile      = 9
	colRevStamp     = 10
)

// ErrRevenueNotFound is returned when no persisted revenue matches the
// requested identity.
var ErrRevenueNotFound = errors.New("revenue record not found")

// MarshalRevenue converts a record to a CSV row.
func MarshalRevenue(rec models.RevenueRecord) []string {
	row := make([]string, revenueFields)
	row[colRevDate] = rec.Date.Format(dateFormat)
	row[colRevRaw] = rec.CounterpartyRaw
	row[colRevClean] = rec.CounterpartyClean
	row[colRevAmount] = rec.Amount.StringFixed(2)
	row[colRevPatient] = rec.Patient
	row[colRevSource] = rec.PaymentSource
	row[colRevFillKind] = string(rec.FillKind)
	row[colRevNeedsFill] = strconv.FormatBool(rec.NeedsManualFill)
	row[colRevReason] = rec.Reason
	row[colRevFile] = rec.SourceFile
	row[colRevStamp] = rec.ProcessedAt.Format(stampFormat)
	return row
}

// UnmarshalRevenue converts a CSV row to a record.
func UnmarshalRevenue(row []string) (models.RevenueRecord, error) {
	if len(row) != revenueFields {
		return models.RevenueRecord{}, fmt.Errorf("expected %d fields, got %d", revenueFields, len(row))
	}
	date, err := time.Parse(dateFormat, row[colRevDate])
	if err != nil {
		return models.RevenueRecord{}, fmt.Errorf("parsing date %q: %w", row[colRevDate], err)
	}
	amount, err := decimal.NewFromString(row[colRevAmount])
	if err != nil {
		return models.RevenueRecord{}, fmt.Errorf("parsing amount %q: %w", row[colRevAmount], err)
	}
	needsFill, err := strconv.ParseBool(row[colRevNeedsFill])
	if err != nil {
		return models.RevenueRecord{}, fmt.Errorf("parsing needs_manual_fill %q: %w", row[colRevNeedsFill], err)
	}
	stamp, err := time.Parse(stampFormat, row[colRevStamp])
	if err != nil {
		return models.RevenueRecord{}, fmt.Errorf("parsing processed_at %q: %w", row[colRevStamp], err)
	}
	return models.RevenueRecord{
		Date:              date,
		CounterpartyRaw:   row[colRevRaw],
		CounterpartyClean: row[colRevClean],
		Amount:            amount,
		Patient:           row[colRevPatient],
		PaymentSource:     row[colRevSource],
		FillKind:          models.FillKind(row[colRevFillKind]),
		NeedsManualFill:   needsFill,
		Reason:            row[colRevReason],
		SourceFile:        row[colRevFile],
		ProcessedAt:       stamp,
	}, nil
}

// ReadRevenues reads all revenue records from a revenues.csv reader.
func ReadRevenues(r io.Reader) ([]models.RevenueRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = revenueFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading revenues CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []models.RevenueRecord
	for i, row := range rows[1:] {
		rec, err := UnmarshalRevenue(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteRevenues writes records (with header) to a revenues.csv writer.
func WriteRevenues(w io.Writer, records []models.RevenueRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(RevenueHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(MarshalRevenue(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// LoadRevenues returns every persisted revenue. A missing table reads
// as empty.
func (s *Store) LoadRevenues() ([]models.RevenueRecord, error) {
	f, err := os.Open(s.path(revenuesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening revenues: %w", err)
	}
	defer f.Close()
	return ReadRevenues(f)
}

// SaveRevenues persists categorized revenues with the same append
// semantics as SaveExpenses.
func (s *Store) SaveRevenues(records []models.RevenueRecord, sourceFile string, mode Mode) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	combined := records
	duplicates := 0

	if mode != ModeOverwrite {
		existing, err := s.LoadRevenues()
		if err != nil {
			return SaveResult{}, err
		}
		if !s.opts.AllowDuplicates {
			seen := make(map[string]bool, len(existing))
			for _, rec := range existing {
				seen[revenueKey(rec)] = true
			}
			kept := records[:0:0]
			for _, rec := range records {
				if seen[revenueKey(rec)] {
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
	if err := WriteRevenues(&buf, combined); err != nil {
		return SaveResult{}, err
	}
	if err := s.writeFileAtomic(s.path(revenuesFile), buf.Bytes()); err != nil {
		return SaveResult{}, err
	}

	result := SaveResult{
		Added:      len(records),
		Duplicates: duplicates,
		Total:      len(combined),
		Mode:       mode,
		SourceFile: sourceFile,
	}
	if err := s.recordProcessing("revenues", sourceFile, result.Added, result.Total); err != nil {
		return result, err
	}
	return result, nil
}

func revenueKey(rec models.RevenueRecord) string {
	return rec.Date.Format(dateFormat) + "|" + rec.Amount.StringFixed(2) + "|" + rec.CounterpartyRaw
}

// RevenueUpdate carries the manually filled fields for a revenue row.
// Nil pointers leave the stored value untouched.
type RevenueUpdate struct {
	Patient       *string `json:"patient"`
	PaymentSource *string `json:"payment_source"`
}

// UpdateRevenue applies a manual fill to the revenue identified by
// (date, raw counterparty, amount). The pending flag clears only once
// both patient and payment source are non-empty.
func (s *Store) UpdateRevenue(date time.Time, counterpartyRaw string, amount decimal.Decimal, upd RevenueUpdate) (models.RevenueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.LoadRevenues()
	if err != nil {
		return models.RevenueRecord{}, err
	}

	idx := -1
	for i, rec := range records {
		if rec.Date.Equal(date) && rec.CounterpartyRaw == counterpartyRaw && rec.Amount.Equal(amount) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.RevenueRecord{}, ErrRevenueNotFound
	}

	rec := records[idx]
	if upd.Patient != nil {
		rec.Patient = strings.TrimSpace(*upd.Patient)
	}
	if upd.PaymentSource != nil {
		rec.PaymentSource = strings.TrimSpace(*upd.PaymentSource)
	}
	if rec.Patient != "" && rec.PaymentSource != "" {
		rec.NeedsManualFill = false
		rec.FillKind = models.FillManualFilled
	}
	records[idx] = rec

	var buf bytes.Buffer
	if err := WriteRevenues(&buf, records); err != nil {
		return models.RevenueRecord{}, err
	}
	if err := s.writeFileAtomic(s.path(revenuesFile), buf.Bytes()); err != nil {
		return models.RevenueRecord{}, err
	}
	return rec, nil
}

// RevenueSplit is one patient's slice of a card settlement. A zero
// Date inherits the settlement's date.
type RevenueSplit struct {
	Patient string          `json:"patient"`
	Amount  decimal.Decimal `json:"amount"`
	Date    time.Time       `json:"date"`
}

// SplitRevenue replaces the card-settlement revenue identified by
// (date, raw counterparty, amount) with one record per patient slice.
// The slices must be non-empty, carry non-empty patient names and
// positive amounts, and sum exactly to the settlement amount.
func (s *Store) SplitRevenue(date time.Time, counterpartyRaw string, amount decimal.Decimal, splits []RevenueSplit) ([]models.RevenueRecord, error) {
	if len(splits) == 0 {
		return nil, errors.New("split list is empty")
	}
	total := decimal.Zero
	for i, sp := range splits {
		if strings.TrimSpace(sp.Patient) == "" {
			return nil, fmt.Errorf("split %d: patient name is empty", i+1)
		}
		if !sp.Amount.IsPositive() {
			return nil, fmt.Errorf("split %d: amount must be positive, got %s", i+1, sp.Amount.StringFixed(2))
		}
		total = total.Add(sp.Amount)
	}
	if !total.Equal(amount) {
		return nil, fmt.Errorf("split amounts sum to %s, settlement is %s", total.StringFixed(2), amount.StringFixed(2))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.LoadRevenues()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, rec := range records {
		if rec.Date.Equal(date) && rec.CounterpartyRaw == counterpartyRaw && rec.Amount.Equal(amount) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrRevenueNotFound
	}

	original := records[idx]
	created := make([]models.RevenueRecord, 0, len(splits))
	for _, sp := range splits {
		rec := original
		rec.Patient = strings.TrimSpace(sp.Patient)
		rec.Amount = sp.Amount
		if !sp.Date.IsZero() {
			rec.Date = sp.Date
		}
		rec.PaymentSource = models.SourceCreditCard
		rec.FillKind = models.FillCardSplit
		rec.NeedsManualFill = false
		rec.Reason = fmt.Sprintf("split from card settlement of %s on %s",
			original.Amount.StringFixed(2), original.Date.Format(dateFormat))
		created = append(created, rec)
	}

	combined := make([]models.RevenueRecord, 0, len(records)-1+len(created))
	combined = append(combined, records[:idx]...)
	combined = append(combined, records[idx+1:]...)
	combined = append(combined, created...)

	var buf bytes.Buffer
	if err := WriteRevenues(&buf, combined); err != nil {
		return nil, err
	}
	if err := s.writeFileAtomic(s.path(revenuesFile), buf.Bytes()); err != nil {
		return nil, err
	}
	return created, nil
}

// FilterRevenuesByMonth keeps records whose date falls in month
// ("MM/YYYY"). An empty month keeps everything.
func FilterRevenuesByMonth(records []models.RevenueRecord, month string) []models.RevenueRecord {
	if month == "" {
		return records
	}
	var out []models.RevenueRecord
	for _, rec := range records {
		if rec.Date.Format("01/2006") == month {
			out = append(out, rec)
		}
	}
	return out
}

// FilterRevenuesPending keeps records still awaiting a manual fill.
func FilterRevenuesPending(records []models.RevenueRecord) []models.RevenueRecord {
	var out []models.RevenueRecord
	for _, rec := range records {
		if rec.NeedsManualFill {
			out = append(out, rec)
		}
	}
	return out
}
