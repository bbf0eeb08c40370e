// Package commands wires the CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/humaniza/clinic-ledger/internal/classify"
	"github.com/humaniza/clinic-ledger/internal/config"
	"github.com/humaniza/clinic-ledger/internal/store"
)

const version = "1.0.0"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "clinic-ledger",
		Short:   "Clinic bank statement ingestion and monthly results",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newImportCommand(&configPath))
	rootCmd.AddCommand(newCloseCommand(&configPath))
	rootCmd.AddCommand(newBackupCommand(&configPath))

	return rootCmd
}

// runtime bundles the pieces every subcommand needs.
type runtime struct {
	cfg      config.Config
	store    *store.Store
	expenses *classify.ExpenseClassifier
	revenues *classify.RevenueClassifier
}

func newRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	st, err := store.New(cfg.DataDir, store.Options{
		AllowDuplicates: cfg.AllowDuplicates,
		MaxHistory:      cfg.MaxHistory,
	})
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:      cfg,
		store:    st,
		expenses: classify.NewExpenseClassifier(cfg.ExpenseRules),
		revenues: classify.NewRevenueClassifier(cfg.RevenueRules),
	}, nil
}
