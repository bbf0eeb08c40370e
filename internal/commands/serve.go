package commands

import (
	"github.com/spf13/cobra"

	"github.com/humaniza/clinic-ledger/internal/api"
	"github.com/humaniza/clinic-ledger/internal/logger"
)

func newServeCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath)
			if err != nil {
				return err
			}
			log := logger.Init(rt.cfg.LogLevel)
			if addr == "" {
				addr = rt.cfg.ListenAddr
			}

			srv := api.NewServer(rt.store, rt.expenses, rt.revenues, log)
			return srv.Listen(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
