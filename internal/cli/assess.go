package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/mcclellann/hoaLedger/pkg/assessment"
	"github.com/mcclellann/hoaLedger/pkg/ledger"
	"github.com/spf13/cobra"
)

func (a *app) assessCmd() *cobra.Command {
	var (
		generate bool
		issue    string
		due      string
	)
	cmd := &cobra.Command{
		Use:   "assess [budget-id]",
		Short: "Preview unit assessments for a budget, optionally invoicing them",
		Example: `  hoactl assess 6f1c1f0e-8d5e-4b43-9a43-2f0a7a3a9a11
  hoactl assess 6f1c1f0e-8d5e-4b43-9a43-2f0a7a3a9a11 --generate-invoices --issue 2026-01-01 --due 2026-01-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.WithComponent("assess")
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid budget id: %w", err)
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			budget, err := s.GetBudget(cmd.Context(), id)
			if err != nil {
				return err
			}
			units, err := s.ListUnits(cmd.Context())
			if err != nil {
				return err
			}
			assessments, v, err := assessment.ForBudget(budget, units)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "UNIT\tSQ FT\tSHARE %\tMONTHLY\tANNUAL\t")
			for _, ua := range assessments {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", ua.UnitNumber, ua.RawSquareFeet.String(),
					ua.PercentageShare.StringFixed(4), ua.MonthlyAssessment.StringFixed(2), ua.AnnualAssessment.StringFixed(2))
			}
			fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t\n", budget.Total().StringFixed(2))
			tw.Flush()

			if !v.IsValid {
				log.Warn().Str("difference", v.Difference.StringFixed(2)).Msg("Assessment total drifts from budget beyond tolerance")
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: assessments differ from the budget by %s\n", v.Difference.StringFixed(2))
			}

			if !generate {
				return nil
			}
			issueDate, err := parseDate(issue, a.now().Truncate(24*time.Hour))
			if err != nil {
				return err
			}
			dueDate, err := parseDate(due, issueDate.AddDate(0, 0, 30))
			if err != nil {
				return err
			}
			run, err := ledger.NewLedger(s).GenerateAssessmentInvoices(cmd.Context(), id, issueDate, dueDate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) created, due %s\n", len(run.Invoices), dueDate.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().BoolVar(&generate, "generate-invoices", false, "Create one pending invoice per unit for the monthly assessment")
	cmd.Flags().StringVar(&issue, "issue", "", "Invoice issue date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "Invoice due date YYYY-MM-DD (default issue + 30 days)")
	return cmd
}
