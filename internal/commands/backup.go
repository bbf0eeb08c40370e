package commands

import (
	"github.com/spf13/cobra"
)

func newBackupCommand(configPath *string) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the data files into backups/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath)
			if err != nil {
				return err
			}

			if reset {
				res, err := rt.store.Reset()
				if err != nil {
					return err
				}
				cmd.Printf("backed up %d file(s) to %s and cleared live data\n", len(res.Files), res.Dir)
				return nil
			}

			res, err := rt.store.Backup()
			if err != nil {
				return err
			}
			cmd.Printf("backed up %d file(s) to %s\n", len(res.Files), res.Dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "also clear the live data files after the snapshot")
	return cmd
}
