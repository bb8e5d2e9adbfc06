// Package cli implements the hoactl command tree.
package cli

import (
	"fmt"
	"time"

	"github.com/mcclellann/hoaLedger/internal/config"
	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/mcclellann/hoaLedger/pkg/store"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

type app struct {
	cfg    *config.Config
	dbPath string
	now    func() time.Time
}

// NewRootCmd builds the command tree around a loaded configuration.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg, now: func() time.Time { return time.Now().UTC() }}

	root := &cobra.Command{
		Use:   "hoactl",
		Short: "hoactl - offline tooling for the HOA ledger",
		Long: `hoactl works directly against the ledger database to import and export
budgets as CSV, preview unit assessments, print receivables reports and
run the overdue sweep without the API server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", cfg.DBPath, "Path to the SQLite database")

	root.AddCommand(a.budgetCmd(), a.assessCmd(), a.reportCmd(), a.sweepCmd())
	return root
}

// Execute runs the command tree and logs a failure.
func Execute(cfg *config.Config) error {
	log := logger.WithComponent("cmd")
	if err := NewRootCmd(cfg).Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		return err
	}
	return nil
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", a.dbPath, err)
	}
	return s, nil
}

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
