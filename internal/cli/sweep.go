package cli

import (
	"fmt"
	"time"

	"github.com/mcclellann/hoaLedger/pkg/ledger"
	"github.com/spf13/cobra"
)

func (a *app) sweepCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark unpaid invoices past their due date as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseDate(asOf, a.now())
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			changed, err := ledger.NewLedger(s).RefreshOverdue(cmd.Context(), now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) updated as of %s\n", changed, now.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Sweep date YYYY-MM-DD (default now)")
	return cmd
}
