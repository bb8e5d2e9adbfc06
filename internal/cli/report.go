package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/mcclellann/hoaLedger/pkg/aging"
	"github.com/mcclellann/hoaLedger/pkg/reporting"
	"github.com/spf13/cobra"
)

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print receivables and collection reports",
	}
	cmd.PersistentFlags().String("as-of", "", "Report date YYYY-MM-DD (default today)")
	cmd.AddCommand(a.agingReportCmd(), a.delinquencyReportCmd(), a.collectionsReportCmd())
	return cmd
}

func (a *app) loadDataset(cmd *cobra.Command) (*reporting.Dataset, time.Time, error) {
	asOfFlag, _ := cmd.Flags().GetString("as-of")
	asOf, err := parseDate(asOfFlag, a.now().Truncate(24*time.Hour))
	if err != nil {
		return nil, time.Time{}, err
	}
	s, err := a.openStore()
	if err != nil {
		return nil, time.Time{}, err
	}
	defer s.Close()

	ds, err := reporting.NewLoader(s).Load(cmd.Context())
	if err != nil {
		return nil, time.Time{}, err
	}
	return ds, asOf, nil
}

func (a *app) agingReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aging",
		Short: "Outstanding balances per unit by days past due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, asOf, err := a.loadDataset(cmd)
			if err != nil {
				return err
			}
			report := aging.BuildAgingReport(ds.Units, ds.Invoices, ds.Payments, asOf)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "UNIT\tCURRENT\t1-30\t31-60\t61-90\t90+\tTOTAL\t\n")
			for _, r := range append(report.Rows, report.Totals) {
				unit := r.UnitNumber
				if unit == "" {
					unit = "TOTAL"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", unit,
					r.Current.StringFixed(2), r.Days1To30.StringFixed(2), r.Days31To60.StringFixed(2),
					r.Days61To90.StringFixed(2), r.Days90Plus.StringFixed(2), r.TotalDue.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}

func (a *app) delinquencyReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delinquency",
		Short: "Units with past-due balances, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, asOf, err := a.loadDataset(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "UNIT\tBALANCE\tOLDEST DUE\tDAYS\t\n")
			for _, r := range aging.BuildDelinquencyReport(ds.Units, ds.Invoices, ds.Payments, asOf) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t\n", r.UnitNumber, r.BalanceDue.StringFixed(2), r.OldestDueDate.Format(time.DateOnly), r.DaysPastDue)
			}
			return tw.Flush()
		},
	}
}

func (a *app) collectionsReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "Collection rate and receipts by payment method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := a.loadDataset(cmd)
			if err != nil {
				return err
			}
			summary := ds.Collections()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Assessed %s  Collected %s  Delinquent %s  Rate %s%%  Avg days %s\n\n",
				summary.TotalAssessed.StringFixed(2), summary.TotalCollected.StringFixed(2),
				summary.TotalDelinquent.StringFixed(2), summary.CollectionRate.StringFixed(1),
				summary.AverageCollectionDays.StringFixed(1))

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "MONTH\tCHECK\tACH\tCARD\tCASH\tOTHER\tTOTAL\t\n")
			for _, m := range ds.CollectionsByMethod() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", m.Label,
					m.Check.StringFixed(2), m.ACH.StringFixed(2), m.CreditCard.StringFixed(2),
					m.Cash.StringFixed(2), m.Other.StringFixed(2), m.Total.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}
