package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/internal/config"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const budgetCSV = `Category,January,February,March,April,May,June,July,August,September,October,November,December,Annual Total
Landscaping,100,100,100,100,100,100,100,100,100,100,100,100,1200
"Insurance, building",50,50,50,50,50,50,50,50,50,50,50,50,600
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:                      filepath.Join(t.TempDir(), "cli.db"),
		DefaultCommonAreaPercentage: decimal.NewFromInt(50),
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd(cfg)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func openStore(t *testing.T, cfg *config.Config) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBudgetImport_DryRun(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, "budget.csv", budgetCSV)

	out, _, err := run(t, cfg, "budget", "import", path, "--name", "FY26", "--year", "2026", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "2 line(s), total 1800.00")

	budgets, err := openStore(t, cfg).ListBudgets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestBudgetImportThenExport(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, "budget.csv", budgetCSV)

	out, _, err := run(t, cfg, "budget", "import", path, "--name", "FY26", "--year", "2026", "--common-area-pct", "40")
	require.NoError(t, err)
	id, err := uuid.Parse(strings.SplitN(out, "\t", 2)[0])
	require.NoError(t, err, out)

	budget, err := openStore(t, cfg).GetBudget(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "FY26", budget.Name)
	assert.True(t, budget.CommonAreaPercentage.Valid)
	assert.Equal(t, "40", budget.CommonAreaPercentage.Decimal.String())
	assert.Equal(t, "1800", budget.Total().String())

	out, _, err = run(t, cfg, "budget", "export", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Landscaping,100.00,")
	assert.Contains(t, out, `"Insurance, building",50.00,`)
}

func TestBudgetImport_RejectsBadPercentage(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, "budget.csv", budgetCSV)

	_, _, err := run(t, cfg, "budget", "import", path, "--name", "FY26", "--year", "2026", "--common-area-pct", "120")
	assert.ErrorContains(t, err, "between 0 and 100")
}

func TestBudgetValidate(t *testing.T) {
	cfg := testConfig(t)

	out, _, err := run(t, cfg, "budget", "validate", writeFile(t, "ok.csv", budgetCSV))
	require.NoError(t, err)
	assert.Contains(t, out, `"is_valid": true`)

	bad := strings.Replace(budgetCSV, "Landscaping", "", 1)
	_, stderr, err := run(t, cfg, "budget", "validate", writeFile(t, "bad.csv", bad))
	assert.Error(t, err)
	assert.Contains(t, stderr, "category name is required")
}

func TestReportAgingAndSweep(t *testing.T) {
	cfg := testConfig(t)
	s := openStore(t, cfg)
	ctx := context.Background()

	unit := &models.Unit{ID: uuid.New(), UnitNumber: "101", SquareFeet: decimal.NewFromInt(1000), CreatedAt: time.Now()}
	require.NoError(t, s.CreateUnit(ctx, unit))
	issued := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		ID:            uuid.New(),
		UnitID:        unit.ID,
		InvoiceNumber: "INV-2026-02-101",
		Title:         "February dues",
		Amount:        decimal.NewFromInt(100),
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, 14),
		Status:        models.InvoiceStatusPending,
		CreatedAt:     issued,
		UpdatedAt:     issued,
	}
	require.NoError(t, s.CreateInvoice(ctx, inv))

	out, _, err := run(t, cfg, "sweep-overdue", "--as-of", "2026-03-20")
	require.NoError(t, err)
	assert.Contains(t, out, "1 invoice(s) updated")

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, got.Status)

	out, _, err = run(t, cfg, "report", "aging", "--as-of", "2026-03-20")
	require.NoError(t, err)
	assert.Contains(t, out, "101")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "100.00")

	out, _, err = run(t, cfg, "report", "delinquency", "--as-of", "2026-03-20")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-02-15")
	assert.Contains(t, out, "33")
}

func TestDateFlagValidation(t *testing.T) {
	_, _, err := run(t, testConfig(t), "report", "aging", "--as-of", "20/03/2026")
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")
}
