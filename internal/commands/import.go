package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/humaniza/clinic-ledger/internal/extractor"
	"github.com/humaniza/clinic-ledger/internal/ofx"
	"github.com/humaniza/clinic-ledger/internal/store"
)

func newImportCommand(configPath *string) *cobra.Command {
	var modeFlag string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <statement.ofx> [statement2.ofx ...]",
		Short: "Parse statements and persist categorized expenses and revenues",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode store.Mode
			switch modeFlag {
			case "append":
				mode = store.ModeAppend
			case "overwrite":
				mode = store.ModeOverwrite
			default:
				return fmt.Errorf("unknown mode %q: want append or overwrite", modeFlag)
			}

			rt, err := newRuntime(*configPath)
			if err != nil {
				return err
			}

			for _, path := range args {
				if err := importFile(cmd, rt, path, mode, dryRun); err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "append", "append or overwrite")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and classify without saving")
	return cmd
}

func importFile(cmd *cobra.Command, rt *runtime, path string, mode store.Mode, dryRun bool) error {
	content, err := extractor.ReadStatement(path)
	if err != nil {
		return err
	}

	sourceFile := filepath.Base(path)
	parsed := ofx.Parse(content)
	if len(parsed.Transactions)+len(parsed.Filtered) == 0 {
		return fmt.Errorf("no transactions found in %s", sourceFile)
	}
	now := time.Now().UTC()
	expenses := rt.expenses.ProcessDebits(parsed.Transactions, sourceFile, now)
	revenues, stats := rt.revenues.ProcessCredits(parsed.Transactions, sourceFile, now)

	cmd.Printf("%s: %d transaction(s), %d skipped, %d informational\n",
		sourceFile, len(parsed.Transactions), parsed.Skipped, len(parsed.Filtered))
	cmd.Printf("  expenses: %d  revenues: %d (card %d, manual %d, auto %d)\n",
		len(expenses), stats.Total, stats.Card, stats.Manual, stats.Auto)

	if dryRun {
		for _, rec := range store.FilterRevenuesPending(revenues) {
			cmd.Printf("  pending fill: %s  %s  %s\n",
				rec.Date.Format("02/01/2006"), rec.CounterpartyClean, rec.Amount.StringFixed(2))
		}
		cmd.Println("  dry run: nothing saved")
		return nil
	}

	expResult, err := rt.store.SaveExpenses(expenses, sourceFile, mode)
	if err != nil {
		return err
	}
	revResult, err := rt.store.SaveRevenues(revenues, sourceFile, mode)
	if err != nil {
		return err
	}
	cmd.Printf("  saved: %d expense(s) (+%d duplicate(s) skipped), %d revenue(s) (+%d duplicate(s) skipped)\n",
		expResult.Added, expResult.Duplicates, revResult.Added, revResult.Duplicates)
	return nil
}
