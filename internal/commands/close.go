package commands

import (
	"github.com/spf13/cobra"

	"github.com/humaniza/clinic-ledger/internal/closing"
	"github.com/humaniza/clinic-ledger/internal/models"
)

func newCloseCommand(configPath *string) *cobra.Command {
	var force bool
	var notes string

	cmd := &cobra.Command{
		Use:   "close <MM/YYYY>",
		Short: "Close a month and record its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath)
			if err != nil {
				return err
			}

			res, err := closing.NewService(rt.store).Close(args[0], notes, force)
			if err != nil {
				return err
			}

			cmd.Printf("closed %s\n", res.Month)
			cmd.Printf("  gross revenue:    %s\n", res.GrossRevenue.StringFixed(2))
			for _, category := range models.OperatingCategories {
				amount := res.Operating[category]
				if amount.IsZero() {
					continue
				}
				cmd.Printf("  %-17s %s\n", category+":", amount.StringFixed(2))
			}
			cmd.Printf("  total operating:  %s\n", res.TotalOperating.StringFixed(2))
			cmd.Printf("  gross result:     %s\n", res.GrossResult.StringFixed(2))
			cmd.Printf("  owner draw:       %s\n", res.OwnerDraw.StringFixed(2))
			cmd.Printf("  net result:       %s\n", res.NetResult.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing close for the month")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes stored with the result")
	return cmd
}
