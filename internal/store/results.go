package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
)

// ResultHeader is the CSV header for results.csv.
const ResultHeader = "month,gross_revenue,rent,utilities,physiotherapists,cleaning,accounting,taxes,miscellaneous,total_operating,gross_result,owner_draw,net_result,closed_at,notes"

const (
	resultFields    = 15
	colResMonth     = 0
	colResGross     = 1
	colResRent      = 2
	colResUtilities = 3
	colResPhysio    = 4
	colResCleaning  = 5
	colResAccount   = 6
	colResTaxes     = 7
	colResMisc      = 8
	colResTotalOp   = 9
	colResGrossRes  = 10
	colResOwnerDraw = 11
	colResNetRes    = 12
	colResClosedAt  = 13
	colResNotes     = 14
)

// ErrResultExists is returned when closing a month that already has a
// row and force was not requested.
var ErrResultExists = errors.New("month already closed")

// ErrResultNotFound is returned when no closed row matches the month.
var ErrResultNotFound = errors.New("month not closed")

var operatingColumns = map[string]int{
	models.CategoryRent:             colResRent,
	models.CategoryUtilities:        colResUtilities,
	models.CategoryPhysiotherapists: colResPhysio,
	models.CategoryCleaning:         colResCleaning,
	models.CategoryAccounting:       colResAccount,
	models.CategoryTaxes:            colResTaxes,
	models.CategoryMiscellaneous:    colResMisc,
}

// MarshalResult converts a monthly result to a CSV row.
func MarshalResult(res models.MonthlyResult) []string {
	row := make([]string, resultFields)
	row[colResMonth] = res.Month
	row[colResGross] = res.GrossRevenue.StringFixed(2)
	for category, col := range operatingColumns {
		row[col] = res.Operating[category].StringFixed(2)
	}
	row[colResTotalOp] = res.TotalOperating.StringFixed(2)
	row[colResGrossRes] = res.GrossResult.StringFixed(2)
	row[colResOwnerDraw] = res.OwnerDraw.StringFixed(2)
	row[colResNetRes] = res.NetResult.StringFixed(2)
	row[colResClosedAt] = res.ClosedAt.Format(stampFormat)
	row[colResNotes] = res.Notes
	return row
}

// UnmarshalResult converts a CSV row to a monthly result.
func UnmarshalResult(row []string) (models.MonthlyResult, error) {
	if len(row) != resultFields {
		return models.MonthlyResult{}, fmt.Errorf("expected %d fields, got %d", resultFields, len(row))
	}
	parse := func(col int, name string) (decimal.Decimal, error) {
		v, err := decimal.NewFromString(row[col])
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing %s %q: %w", name, row[col], err)
		}
		return v, nil
	}

	res := models.MonthlyResult{
		Month:     row[colResMonth],
		Operating: make(map[string]decimal.Decimal, len(operatingColumns)),
		Notes:     row[colResNotes],
	}

	var err error
	if res.GrossRevenue, err = parse(colResGross, "gross_revenue"); err != nil {
		return models.MonthlyResult{}, err
	}
	for category, col := range operatingColumns {
		if res.Operating[category], err = parse(col, category); err != nil {
			return models.MonthlyResult{}, err
		}
	}
	if res.TotalOperating, err = parse(colResTotalOp, "total_operating"); err != nil {
		return models.MonthlyResult{}, err
	}
	if res.GrossResult, err = parse(colResGrossRes, "gross_result"); err != nil {
		return models.MonthlyResult{}, err
	}
	if res.OwnerDraw, err = parse(colResOwnerDraw, "owner_draw"); err != nil {
		return models.MonthlyResult{}, err
	}
	if res.NetResult, err = parse(colResNetRes, "net_result"); err != nil {
		return models.MonthlyResult{}, err
	}
	if res.ClosedAt, err = time.Parse(stampFormat, row[colResClosedAt]); err != nil {
		return models.MonthlyResult{}, fmt.Errorf("parsing closed_at %q: %w", row[colResClosedAt], err)
	}
	return res, nil
}

// ReadResults reads all monthly results from a results.csv reader.
func ReadResults(r io.Reader) ([]models.MonthlyResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = resultFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading results CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var results []models.MonthlyResult
	for i, row := range rows[1:] {
		res, err := UnmarshalResult(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// WriteResults writes results (with header) to a results.csv writer.
func WriteResults(w io.Writer, results []models.MonthlyResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ResultHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, res := range results {
		if err := cw.Write(MarshalResult(res)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// LoadResults returns every closed month, newest first. A missing table
// reads as empty.
func (s *Store) LoadResults() ([]models.MonthlyResult, error) {
	f, err := os.Open(s.path(resultsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening results: %w", err)
	}
	defer f.Close()

	results, err := ReadResults(f)
	if err != nil {
		return nil, err
	}
	sortResults(results)
	return results, nil
}

// SaveMonthlyResult upserts the row for its month. Replacing an
// existing row requires force.
func (s *Store) SaveMonthlyResult(res models.MonthlyResult, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.LoadResults()
	if err != nil {
		return err
	}

	idx := -1
	for i, existing := range results {
		if existing.Month == res.Month {
			idx = i
			break
		}
	}
	switch {
	case idx >= 0 && !force:
		return fmt.Errorf("%w: %s", ErrResultExists, res.Month)
	case idx >= 0:
		results[idx] = res
	default:
		results = append(results, res)
	}
	sortResults(results)

	var buf bytes.Buffer
	if err := WriteResults(&buf, results); err != nil {
		return err
	}
	return s.writeFileAtomic(s.path(resultsFile), buf.Bytes())
}

// DeleteMonthlyResult removes the row for month ("MM/YYYY").
func (s *Store) DeleteMonthlyResult(month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.LoadResults()
	if err != nil {
		return err
	}

	kept := results[:0:0]
	for _, res := range results {
		if res.Month != month {
			kept = append(kept, res)
		}
	}
	if len(kept) == len(results) {
		return fmt.Errorf("%w: %s", ErrResultNotFound, month)
	}

	var buf bytes.Buffer
	if err := WriteResults(&buf, kept); err != nil {
		return err
	}
	return s.writeFileAtomic(s.path(resultsFile), buf.Bytes())
}

// sortResults orders rows newest month first.
func sortResults(results []models.MonthlyResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return monthSortKey(results[i].Month) > monthSortKey(results[j].Month)
	})
}

// monthSortKey turns "MM/YYYY" into a sortable "YYYYMM" string.
func monthSortKey(month string) string {
	parts := strings.SplitN(month, "/", 2)
	if len(parts) != 2 {
		return month
	}
	return parts[1] + parts[0]
}
