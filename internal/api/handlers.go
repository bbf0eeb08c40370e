package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/humaniza/clinic-ledger/internal/classify"
	"github.com/humaniza/clinic-ledger/internal/extractor"
	"github.com/humaniza/clinic-ledger/internal/models"
	"github.com/humaniza/clinic-ledger/internal/ofx"
	"github.com/humaniza/clinic-ledger/internal/store"
)

// ImportResponse is the JSON response from POST /api/statements.
type ImportResponse struct {
	SourceFile   string                      `json:"sourceFile"`
	DryRun       bool                        `json:"dryRun"`
	Transactions int                         `json:"transactions"`
	Skipped      int                         `json:"skipped"`
	Filtered     []models.InformationalEntry `json:"filtered"`
	Expenses     *store.SaveResult           `json:"expenses,omitempty"`
	Revenues     *store.SaveResult           `json:"revenues,omitempty"`
	RevenueStats classify.RevenueStats       `json:"revenueStats"`
	Pending      []models.RevenueRecord      `json:"pending"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"engine": "fiber",
	})
}

func (s *Server) handleImportStatement(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "no file uploaded: use form field 'file'")
	}

	name := strings.ToLower(fileHeader.Filename)
	if !strings.HasSuffix(name, ".ofx") && !strings.HasSuffix(name, ".txt") && !strings.HasSuffix(name, ".pdf") {
		return errorJSON(c, fiber.StatusBadRequest, "unsupported file type: want .ofx, .txt or .pdf")
	}

	content, err := readUpload(c, fileHeader)
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	mode := store.ModeAppend
	switch c.FormValue("mode") {
	case "", "append":
	case "overwrite":
		mode = store.ModeOverwrite
	default:
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("unknown mode %q: want append or overwrite", c.FormValue("mode")))
	}
	dryRun := c.FormValue("dry_run") == "true"

	parsed := ofx.Parse(content)
	if len(parsed.Transactions)+len(parsed.Filtered) == 0 {
		return errorJSON(c, fiber.StatusUnprocessableEntity,
			fmt.Sprintf("no transactions found in %s", fileHeader.Filename))
	}
	now := time.Now().UTC()
	expenses := s.expenses.ProcessDebits(parsed.Transactions, fileHeader.Filename, now)
	revenues, stats := s.revenues.ProcessCredits(parsed.Transactions, fileHeader.Filename, now)

	resp := ImportResponse{
		SourceFile:   fileHeader.Filename,
		DryRun:       dryRun,
		Transactions: len(parsed.Transactions),
		Skipped:      parsed.Skipped,
		Filtered:     parsed.Filtered,
		RevenueStats: stats,
		Pending:      store.FilterRevenuesPending(revenues),
	}
	if resp.Filtered == nil {
		resp.Filtered = []models.InformationalEntry{}
	}
	if resp.Pending == nil {
		resp.Pending = []models.RevenueRecord{}
	}

	if !dryRun {
		expResult, err := s.store.SaveExpenses(expenses, fileHeader.Filename, mode)
		if err != nil {
			return errorJSON(c, fiber.StatusInternalServerError, err.Error())
		}
		revResult, err := s.store.SaveRevenues(revenues, fileHeader.Filename, mode)
		if err != nil {
			return errorJSON(c, fiber.StatusInternalServerError, err.Error())
		}
		resp.Expenses = &expResult
		resp.Revenues = &revResult
		s.log.Info("statement imported",
			"file", fileHeader.Filename,
			"transactions", len(parsed.Transactions),
			"expenses_added", expResult.Added,
			"revenues_added", revResult.Added,
			"skipped", parsed.Skipped)
	}
	return c.JSON(resp)
}

func (s *Server) handleListExpenses(c *fiber.Ctx) error {
	records, err := s.store.LoadExpenses()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	records = store.FilterExpensesByMonth(records, c.Query("month"))
	if records == nil {
		records = []models.ExpenseRecord{}
	}
	return c.JSON(records)
}

func (s *Server) handleExpenseSummary(c *fiber.Ctx) error {
	records, err := s.store.LoadExpenses()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	records = store.FilterExpensesByMonth(records, c.Query("month"))
	return c.JSON(store.SummarizeExpenses(records))
}

func (s *Server) handleListRevenues(c *fiber.Ctx) error {
	records, err := s.store.LoadRevenues()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	records = store.FilterRevenuesByMonth(records, c.Query("month"))
	if c.Query("pending") == "true" {
		records = store.FilterRevenuesPending(records)
	}
	if records == nil {
		records = []models.RevenueRecord{}
	}
	return c.JSON(records)
}

func (s *Server) handleRevenueSummary(c *fiber.Ctx) error {
	records, err := s.store.LoadRevenues()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	records = store.FilterRevenuesByMonth(records, c.Query("month"))
	return c.JSON(store.SummarizeRevenues(records))
}

// fillRequest identifies a revenue row and carries the manual fill.
type fillRequest struct {
	Date            string  `json:"date"`
	CounterpartyRaw string  `json:"counterpartyRaw"`
	Amount          string  `json:"amount"`
	Patient         *string `json:"patient"`
	PaymentSource   *string `json:"paymentSource"`
}

func (s *Server) handleFillRevenue(c *fiber.Ctx) error {
	var req fillRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	date, err := time.Parse("02/01/2006", req.Date)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("invalid date %q: want DD/MM/YYYY", req.Date))
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("invalid amount %q", req.Amount))
	}

	rec, err := s.store.UpdateRevenue(date, req.CounterpartyRaw, amount, store.RevenueUpdate{
		Patient:       req.Patient,
		PaymentSource: req.PaymentSource,
	})
	if errors.Is(err, store.ErrRevenueNotFound) {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(rec)
}

// splitRequest identifies a card-settlement revenue and carries the
// per-patient slices. Slice dates are optional and default to the
// settlement date.
type splitRequest struct {
	Date            string `json:"date"`
	CounterpartyRaw string `json:"counterpartyRaw"`
	Amount          string `json:"amount"`
	Splits          []struct {
		Patient string `json:"patient"`
		Amount  string `json:"amount"`
		Date    string `json:"date"`
	} `json:"splits"`
}

func (s *Server) handleSplitRevenue(c *fiber.Ctx) error {
	var req splitRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	date, err := time.Parse("02/01/2006", req.Date)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("invalid date %q: want DD/MM/YYYY", req.Date))
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("invalid amount %q", req.Amount))
	}

	splits := make([]store.RevenueSplit, 0, len(req.Splits))
	for i, sp := range req.Splits {
		part := store.RevenueSplit{Patient: sp.Patient}
		if part.Amount, err = decimal.NewFromString(sp.Amount); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("split %d: invalid amount %q", i+1, sp.Amount))
		}
		if sp.Date != "" {
			if part.Date, err = time.Parse("02/01/2006", sp.Date); err != nil {
				return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("split %d: invalid date %q: want DD/MM/YYYY", i+1, sp.Date))
			}
		}
		splits = append(splits, part)
	}

	created, err := s.store.SplitRevenue(date, req.CounterpartyRaw, amount, splits)
	if errors.Is(err, store.ErrRevenueNotFound) {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	s.log.Info("card settlement split",
		"date", req.Date, "amount", req.Amount, "patients", len(created))
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) handleListResults(c *fiber.Ctx) error {
	results, err := s.store.LoadResults()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if results == nil {
		results = []models.MonthlyResult{}
	}
	return c.JSON(results)
}

func (s *Server) handleGetResult(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	results, err := s.store.LoadResults()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	for _, res := range results {
		if res.Month == month {
			return c.JSON(res)
		}
	}
	return errorJSON(c, fiber.StatusNotFound, fmt.Sprintf("month %s not closed", month))
}

// closeRequest carries the month to close.
type closeRequest struct {
	Month string `json:"month"`
	Notes string `json:"notes"`
}

func (s *Server) handleCloseMonth(c *fiber.Ctx) error {
	var req closeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	force := c.Query("force") == "true"

	res, err := s.closer.Close(req.Month, req.Notes, force)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, store.ErrResultExists) {
			status = fiber.StatusConflict
		}
		return errorJSON(c, status, err.Error())
	}
	s.log.Info("month closed", "month", res.Month, "net_result", res.NetResult, "forced", force)
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) handleDeleteResult(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if err := s.closer.Reopen(month); err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, store.ErrResultNotFound) {
			status = fiber.StatusNotFound
		}
		return errorJSON(c, status, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleAnnualResults(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || year < 1900 || year > 9999 {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("invalid year %q", c.Params("year")))
	}
	summary, err := s.closer.Annual(year)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if summary.Months == nil {
		summary.Months = []models.MonthlyResult{}
	}
	return c.JSON(summary)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	hist, err := s.store.LoadHistory()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if hist.Entries == nil {
		hist.Entries = []store.HistoryEntry{}
	}
	return c.JSON(hist)
}

func (s *Server) handleBackup(c *fiber.Ctx) error {
	info, err := s.store.Backup()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	s.log.Info("backup created", "dir", info.Dir, "files", len(info.Files))
	return c.Status(fiber.StatusCreated).JSON(info)
}

func (s *Server) handleExportExpenses(c *fiber.Ctx) error {
	records, err := s.store.LoadExpenses()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	var buf strings.Builder
	if err := store.WriteExpenses(&buf, records); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return sendCSV(c, "expenses.csv", buf.String())
}

func (s *Server) handleExportRevenues(c *fiber.Ctx) error {
	records, err := s.store.LoadRevenues()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	var buf strings.Builder
	if err := store.WriteRevenues(&buf, records); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return sendCSV(c, "revenues.csv", buf.String())
}

func (s *Server) handleExportResults(c *fiber.Ctx) error {
	results, err := s.store.LoadResults()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	var buf strings.Builder
	if err := store.WriteResults(&buf, results); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return sendCSV(c, "results.csv", buf.String())
}

// monthParam reads the :month path segment, accepting MM-YYYY since a
// slash cannot appear in a path segment.
func monthParam(c *fiber.Ctx) (string, error) {
	raw := strings.ReplaceAll(c.Params("month"), "-", "/")
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 4 {
		return "", fmt.Errorf("invalid month %q: want MM-YYYY", c.Params("month"))
	}
	return raw, nil
}

// readUpload loads the upload into memory, extracting text when the
// file is a PDF statement.
func readUpload(c *fiber.Ctx, fileHeader *multipart.FileHeader) (string, error) {
	if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		tmp, err := saveTemp(c, fileHeader)
		if err != nil {
			return "", err
		}
		defer tmp.cleanup()
		return extractor.ExtractStatementText(tmp.path)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	return extractor.DecodeText(data), nil
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func sendCSV(c *fiber.Ctx, filename, body string) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.SendString(body)
}
