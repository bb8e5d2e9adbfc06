package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/mcclellann/hoaLedger/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file and initializes the schema.
// Foreign keys, WAL mode and a busy timeout are set on every pooled connection
// through the DSN.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	dsn := dataSourceName
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log := logger.WithComponent("store")
	log.Info().Str("path", dataSourceName).Msg("Database connection established and schema initialized")
	return s, nil
}

// initSchema creates the tables if they don't already exist.
// Money columns are TEXT so no precision is lost. Budgets carry no total column;
// the total is always derived from the lines.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		unit_number TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL DEFAULT '',
		square_feet TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		common_area_percentage TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS budget_lines (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		category_name TEXT NOT NULL,
		january TEXT NOT NULL DEFAULT '0',
		february TEXT NOT NULL DEFAULT '0',
		march TEXT NOT NULL DEFAULT '0',
		april TEXT NOT NULL DEFAULT '0',
		may TEXT NOT NULL DEFAULT '0',
		june TEXT NOT NULL DEFAULT '0',
		july TEXT NOT NULL DEFAULT '0',
		august TEXT NOT NULL DEFAULT '0',
		september TEXT NOT NULL DEFAULT '0',
		october TEXT NOT NULL DEFAULT '0',
		november TEXT NOT NULL DEFAULT '0',
		december TEXT NOT NULL DEFAULT '0',
		FOREIGN KEY(budget_id) REFERENCES budgets(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL,
		budget_id TEXT,
		invoice_number TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		discount TEXT NOT NULL DEFAULT '0',
		late_fee TEXT NOT NULL DEFAULT '0',
		issue_date DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		deleted_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(unit_id) REFERENCES units(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date DATETIME NOT NULL,
		method TEXT NOT NULL,
		reference_number TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY(invoice_id) REFERENCES invoices(id),
		FOREIGN KEY(unit_id) REFERENCES units(id)
	);
	CREATE INDEX IF NOT EXISTS idx_budget_lines_budget ON budget_lines(budget_id, position);
	CREATE INDEX IF NOT EXISTS idx_invoices_unit ON invoices(unit_id);
	CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments(invoice_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateUnit inserts a new unit.
func (s *SQLiteStore) CreateUnit(ctx context.Context, unit *models.Unit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO units (id, unit_number, address, square_feet, created_at) VALUES (?, ?, ?, ?, ?)`,
		unit.ID.String(), unit.UnitNumber, unit.Address, unit.SquareFeet, unit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

// GetUnit retrieves a unit by its ID.
func (s *SQLiteStore) GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	row := s.db.QueryRowContext(ctx, `SELECT id, unit_number, address, square_feet, created_at FROM units WHERE id = ?`, id.String())
	if err := row.Scan(&unit.ID, &unit.UnitNumber, &unit.Address, &unit.SquareFeet, &unit.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("unit %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return &unit, nil
}

// ListUnits returns every unit ordered by unit number.
func (s *SQLiteStore) ListUnits(ctx context.Context) ([]models.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, unit_number, address, square_feet, created_at FROM units ORDER BY unit_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	units := []models.Unit{}
	for rows.Next() {
		var unit models.Unit
		if err := rows.Scan(&unit.ID, &unit.UnitNumber, &unit.Address, &unit.SquareFeet, &unit.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unit row: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return units, nil
}

// CreateBudget inserts a budget and its lines in one transaction.
func (s *SQLiteStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budgets (id, name, fiscal_year, common_area_percentage, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		budget.ID.String(), budget.Name, budget.FiscalYear, budget.CommonAreaPercentage, budget.CreatedAt, budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	if err := insertLines(ctx, tx, budget.ID, budget.Lines); err != nil {
		return err
	}
	return tx.Commit()
}

const budgetLineColumns = `id, budget_id, category_name, january, february, march, april, may, june, july, august, september, october, november, december`

func insertLines(ctx context.Context, tx *sql.Tx, budgetID uuid.UUID, lines []models.BudgetLine) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO budget_lines (position, `+budgetLineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare budget line insert: %w", err)
	}
	defer stmt.Close()

	for i := range lines {
		line := &lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.BudgetID = budgetID

		args := []any{i, line.ID.String(), budgetID.String(), line.CategoryName}
		for _, m := range line.Months {
			args = append(args, m)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert budget line %q: %w", line.CategoryName, err)
		}
	}
	return nil
}

// GetBudget retrieves a budget with its lines in their original order.
func (s *SQLiteStore) GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	var budget models.Budget
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, fiscal_year, common_area_percentage, created_at, updated_at FROM budgets WHERE id = ?`, id.String())
	err := row.Scan(&budget.ID, &budget.Name, &budget.FiscalYear, &budget.CommonAreaPercentage, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("budget %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	lines, err := s.queryLines(ctx, `WHERE budget_id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	budget.Lines = lines[budget.ID]
	if budget.Lines == nil {
		budget.Lines = []models.BudgetLine{}
	}
	return &budget, nil
}

// ListBudgets returns every budget with its lines, newest fiscal year first.
func (s *SQLiteStore) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, fiscal_year, common_area_percentage, created_at, updated_at FROM budgets ORDER BY fiscal_year DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	budgets := []models.Budget{}
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.FiscalYear, &b.CommonAreaPercentage, &b.CreatedAt, &b.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		budgets = append(budgets, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	lines, err := s.queryLines(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].Lines = lines[budgets[i].ID]
		if budgets[i].Lines == nil {
			budgets[i].Lines = []models.BudgetLine{}
		}
	}
	return budgets, nil
}

func (s *SQLiteStore) queryLines(ctx context.Context, where string, args ...any) (map[uuid.UUID][]models.BudgetLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetLineColumns+` FROM budget_lines `+where+` ORDER BY budget_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget lines: %w", err)
	}
	defer rows.Close()

	byBudget := make(map[uuid.UUID][]models.BudgetLine)
	for rows.Next() {
		var line models.BudgetLine
		dest := []any{&line.ID, &line.BudgetID, &line.CategoryName}
		for m := range line.Months {
			dest = append(dest, &line.Months[m])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan budget line row: %w", err)
		}
		byBudget[line.BudgetID] = append(byBudget[line.BudgetID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for budget lines: %w", err)
	}
	return byBudget, nil
}

// ReplaceBudgetLines swaps every line of a budget within one transaction. The
// budget total follows automatically because it is never stored.
func (s *SQLiteStore) ReplaceBudgetLines(ctx context.Context, budgetID uuid.UUID, lines []models.BudgetLine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE budgets SET updated_at = ? WHERE id = ?`, time.Now().UTC(), budgetID.String())
	if err != nil {
		return fmt.Errorf("failed to touch budget: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("budget %s: %w", budgetID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_lines WHERE budget_id = ?`, budgetID.String()); err != nil {
		return fmt.Errorf("failed to clear budget lines: %w", err)
	}
	if err := insertLines(ctx, tx, budgetID, lines); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteBudget removes a budget; its lines go with it.
func (s *SQLiteStore) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	return nil
}

const invoiceColumns = `id, unit_id, budget_id, invoice_number, title, amount, discount, late_fee, issue_date, due_date, status, deleted_at, created_at, updated_at`

// CreateInvoice inserts a new invoice.
func (s *SQLiteStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	var budgetID any
	if inv.BudgetID != nil {
		budgetID = inv.BudgetID.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID.String(), inv.UnitID.String(), budgetID, inv.InvoiceNumber, inv.Title,
		inv.Amount, inv.Discount, inv.LateFee, inv.IssueDate, inv.DueDate, string(inv.Status),
		inv.DeletedAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (models.Invoice, error) {
	var inv models.Invoice
	var budgetID uuid.NullUUID
	var deletedAt sql.NullTime
	var status string
	err := row.Scan(&inv.ID, &inv.UnitID, &budgetID, &inv.InvoiceNumber, &inv.Title,
		&inv.Amount, &inv.Discount, &inv.LateFee, &inv.IssueDate, &inv.DueDate, &status,
		&deletedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return inv, err
	}
	inv.Status = models.InvoiceStatus(status)
	if budgetID.Valid {
		inv.BudgetID = &budgetID.UUID
	}
	if deletedAt.Valid {
		inv.DeletedAt = &deletedAt.Time
	}
	return inv, nil
}

// GetInvoice retrieves an invoice by its ID, including soft-deleted ones.
func (s *SQLiteStore) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}

// ListInvoices returns invoices matching the filter ordered by due date.
func (s *SQLiteStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	var where []string
	var args []any
	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.UnitID != nil {
		where = append(where, "unit_id = ?")
		args = append(args, filter.UnitID.String())
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY due_date, invoice_number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for invoices: %w", err)
	}
	return invoices, nil
}

// UpdateInvoiceStatus sets the status of a live invoice.
func (s *SQLiteStore) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return nil
}

// SoftDeleteInvoice stamps deleted_at and forces the deleted status.
func (s *SQLiteStore) SoftDeleteInvoice(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET deleted_at = ?, status = ?, updated_at = ? WHERE id = ?`,
		at, string(models.InvoiceStatusDeleted), at, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreatePayment appends a payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, invoice_id, unit_id, amount, payment_date, method, reference_number, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.InvoiceID.String(), p.UnitID.String(), p.Amount, p.PaymentDate, string(p.Method),
		p.ReferenceNumber, p.Notes, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

const paymentColumns = `id, invoice_id, unit_id, amount, payment_date, method, reference_number, notes, created_at`

func (s *SQLiteStore) queryPayments(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		var method string
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.UnitID, &p.Amount, &p.PaymentDate, &method, &p.ReferenceNumber, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		p.Method = models.PaymentMethod(method)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for payments: %w", err)
	}
	return payments, nil
}

// GetPaymentsForInvoice returns the complete payment history of an invoice.
func (s *SQLiteStore) GetPaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	payments, err := s.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE invoice_id = ? ORDER BY payment_date, created_at`, invoiceID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for invoice %s: %w", invoiceID, err)
	}
	return payments, nil
}

// ListPayments returns every payment, newest first.
func (s *SQLiteStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY payment_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Storage = (*SQLiteStore)(nil)
