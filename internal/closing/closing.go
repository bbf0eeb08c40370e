// Package closing computes and persists monthly financial results.
package closing

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/models"
	"github.com/humaniza/clinic-ledger/internal/store"
)

var monthPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{4}$`)

// ValidateMonth checks the "MM/YYYY" shape.
func ValidateMonth(month string) error {
	if !monthPattern.MatchString(month) {
		return fmt.Errorf("invalid month %q: want MM/YYYY", month)
	}
	return nil
}

// Compute derives the result for month from the records that fall in
// it. Owner draw is tracked apart from the operating total, so the
// gross result reflects the clinic's operation and the net result what
// remains after the owner's withdrawals.
func Compute(month string, revenues []models.RevenueRecord, expenses []models.ExpenseRecord, now time.Time) models.MonthlyResult {
	res := models.MonthlyResult{
		Month:     month,
		Operating: make(map[string]decimal.Decimal, len(models.OperatingCategories)),
		ClosedAt:  now,
	}
	for _, category := range models.OperatingCategories {
		res.Operating[category] = decimal.Zero
	}

	for _, rec := range store.FilterRevenuesByMonth(revenues, month) {
		res.GrossRevenue = res.GrossRevenue.Add(rec.Amount)
	}
	for _, rec := range store.FilterExpensesByMonth(expenses, month) {
		if rec.Category == models.CategoryOwnerDraw {
			res.OwnerDraw = res.OwnerDraw.Add(rec.Amount)
			continue
		}
		category := rec.Category
		if _, ok := res.Operating[category]; !ok {
			category = models.CategoryMiscellaneous
		}
		res.Operating[category] = res.Operating[category].Add(rec.Amount)
		res.TotalOperating = res.TotalOperating.Add(rec.Amount)
	}

	res.GrossResult = res.GrossRevenue.Sub(res.TotalOperating)
	res.NetResult = res.GrossResult.Sub(res.OwnerDraw)
	return res
}

// AnnualSummary aggregates the closed months of one year.
type AnnualSummary struct {
	Year           int                        `json:"year"`
	Months         []models.MonthlyResult     `json:"months"`
	GrossRevenue   decimal.Decimal            `json:"gross_revenue"`
	Operating      map[string]decimal.Decimal `json:"operating"`
	TotalOperating decimal.Decimal            `json:"total_operating"`
	GrossResult    decimal.Decimal            `json:"gross_result"`
	OwnerDraw      decimal.Decimal            `json:"owner_draw"`
	NetResult      decimal.Decimal            `json:"net_result"`
}

// Service closes months against the store.
type Service struct {
	store *store.Store
}

// NewService builds a closing service on top of st.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Close computes month's result from the persisted records and saves
// it. An already closed month is refused unless force is set.
func (s *Service) Close(month, notes string, force bool) (models.MonthlyResult, error) {
	if err := ValidateMonth(month); err != nil {
		return models.MonthlyResult{}, err
	}

	revenues, err := s.store.LoadRevenues()
	if err != nil {
		return models.MonthlyResult{}, err
	}
	expenses, err := s.store.LoadExpenses()
	if err != nil {
		return models.MonthlyResult{}, err
	}

	res := Compute(month, revenues, expenses, time.Now().UTC())
	res.Notes = notes
	if err := s.store.SaveMonthlyResult(res, force); err != nil {
		return models.MonthlyResult{}, err
	}
	return res, nil
}

// Reopen removes a closed month so it can be closed again.
func (s *Service) Reopen(month string) error {
	if err := ValidateMonth(month); err != nil {
		return err
	}
	return s.store.DeleteMonthlyResult(month)
}

// Annual sums the closed months of year, oldest first.
func (s *Service) Annual(year int) (AnnualSummary, error) {
	results, err := s.store.LoadResults()
	if err != nil {
		return AnnualSummary{}, err
	}

	summary := AnnualSummary{
		Year:      year,
		Operating: make(map[string]decimal.Decimal, len(models.OperatingCategories)),
	}
	for _, category := range models.OperatingCategories {
		summary.Operating[category] = decimal.Zero
	}

	suffix := fmt.Sprintf("/%04d", year)
	for i := len(results) - 1; i >= 0; i-- {
		res := results[i]
		if len(res.Month) < len(suffix) || res.Month[2:] != suffix {
			continue
		}
		summary.Months = append(summary.Months, res)
		summary.GrossRevenue = summary.GrossRevenue.Add(res.GrossRevenue)
		for category, amount := range res.Operating {
			summary.Operating[category] = summary.Operating[category].Add(amount)
		}
		summary.TotalOperating = summary.TotalOperating.Add(res.TotalOperating)
		summary.GrossResult = summary.GrossResult.Add(res.GrossResult)
		summary.OwnerDraw = summary.OwnerDraw.Add(res.OwnerDraw)
		summary.NetResult = summary.NetResult.Add(res.NetResult)
	}
	return summary, nil
}
