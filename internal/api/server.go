// Package api exposes the ledger over HTTP.
package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/humaniza/clinic-ledger/internal/classify"
	"github.com/humaniza/clinic-ledger/internal/closing"
	"github.com/humaniza/clinic-ledger/internal/store"
)

// Server wires the fiber app to the store and classifiers.
type Server struct {
	app      *fiber.App
	store    *store.Store
	expenses *classify.ExpenseClassifier
	revenues *classify.RevenueClassifier
	closer   *closing.Service
	log      *slog.Logger
}

// NewServer builds the app with all routes registered.
func NewServer(st *store.Store, expenses *classify.ExpenseClassifier, revenues *classify.RevenueClassifier, log *slog.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:   "clinic-ledger",
			BodyLimit: 32 << 20,
		}),
		store:    st,
		expenses: expenses,
		revenues: revenues,
		closer:   closing.NewService(st),
		log:      log,
	}
	s.app.Use(recover.New())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.handleHealth)
	api.Post("/statements", s.handleImportStatement)

	api.Get("/expenses", s.handleListExpenses)
	api.Get("/expenses/summary", s.handleExpenseSummary)

	api.Get("/revenues", s.handleListRevenues)
	api.Get("/revenues/summary", s.handleRevenueSummary)
	api.Put("/revenues", s.handleFillRevenue)
	api.Post("/revenues/split", s.handleSplitRevenue)

	api.Get("/results", s.handleListResults)
	api.Get("/results/annual/:year", s.handleAnnualResults)
	api.Get("/results/:month", s.handleGetResult)
	api.Post("/results", s.handleCloseMonth)
	api.Delete("/results/:month", s.handleDeleteResult)

	api.Get("/history", s.handleHistory)
	api.Post("/backup", s.handleBackup)

	api.Get("/export/expenses.csv", s.handleExportExpenses)
	api.Get("/export/revenues.csv", s.handleExportRevenues)
	api.Get("/export/results.csv", s.handleExportResults)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
