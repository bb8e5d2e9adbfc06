package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/mcclellann/hoaLedger/pkg/budgetcsv"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (a *app) budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Import, export and validate budget CSV files",
	}
	cmd.AddCommand(a.budgetImportCmd(), a.budgetExportCmd(), a.budgetValidateCmd())
	return cmd
}

// readImport parses and validates a CSV file, printing every warning.
func readImport(cmd *cobra.Command, path string) ([]budgetcsv.ImportRow, budgetcsv.ImportValidation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, budgetcsv.ImportValidation{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	rows, err := budgetcsv.ParseBudgetCSV(string(data))
	if err != nil {
		return nil, budgetcsv.ImportValidation{}, err
	}
	v := budgetcsv.ValidateBudgetImport(rows)
	for _, w := range v.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	for _, e := range v.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
	}
	return rows, v, nil
}

func (a *app) budgetImportCmd() *cobra.Command {
	var (
		name   string
		year   int
		pct    string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "import [csv-file]",
		Short: "Create a budget from a CSV export",
		Example: `  hoactl budget import fy26.csv --name "FY26 Operating" --year 2026
  hoactl budget import fy26.csv --name FY26 --year 2026 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.WithComponent("budget-import")

			rows, v, err := readImport(cmd, args[0])
			if err != nil {
				return err
			}
			if !v.IsValid {
				return fmt.Errorf("%s has %d validation error(s)", args[0], len(v.Errors))
			}

			commonPct := decimal.NewNullDecimal(a.cfg.DefaultCommonAreaPercentage)
			if pct != "" {
				d, err := decimal.NewFromString(pct)
				if err != nil {
					return fmt.Errorf("invalid --common-area-pct: %w", err)
				}
				if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
					return fmt.Errorf("--common-area-pct must be between 0 and 100, got %s", pct)
				}
				commonPct = decimal.NewNullDecimal(d)
			}

			now := a.now()
			budget := &models.Budget{
				ID:                   uuid.New(),
				Name:                 name,
				FiscalYear:           year,
				CommonAreaPercentage: commonPct,
				Lines:                budgetcsv.ToBudgetLines(rows),
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d line(s), total %s (dry run, nothing written)\n", len(budget.Lines), budget.Total().StringFixed(2))
				return nil
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.CreateBudget(cmd.Context(), budget); err != nil {
				return err
			}
			log.Info().Str("budget_id", budget.ID.String()).Int("lines", len(budget.Lines)).Msg("Budget imported")
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d line(s)\ttotal %s\n", budget.ID, len(budget.Lines), budget.Total().StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Budget name")
	cmd.Flags().IntVar(&year, "year", 0, "Fiscal year")
	cmd.Flags().StringVar(&pct, "common-area-pct", "", "Common area percentage (defaults to HOA_DEFAULT_COMMON_AREA_PCT)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate without writing")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("year")
	return cmd
}

func (a *app) budgetExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export [budget-id]",
		Short: "Write a budget as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			csv := budgetcsv.ExportBudgetCSV(budget.Lines, budget.Name, a.now())
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), csv)
				return nil
			}
			return os.WriteFile(out, []byte(csv+"\n"), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func (a *app) budgetValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [csv-file]",
		Short: "Check a budget CSV without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := readImport(cmd, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(v); err != nil {
				return err
			}
			if !v.IsValid {
				return fmt.Errorf("%s is not a valid budget import", args[0])
			}
			return nil
		},
	}
}
