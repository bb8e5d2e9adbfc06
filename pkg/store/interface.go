package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// InvoiceFilter narrows ListInvoices. The zero value lists every live invoice.
type InvoiceFilter struct {
	UnitID         *uuid.UUID
	Statuses       []models.InvoiceStatus
	IncludeDeleted bool
}

// Storage defines the interface for database operations on units, budgets,
// invoices and payments.
type Storage interface {
	CreateUnit(ctx context.Context, unit *models.Unit) error
	GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)

	CreateBudget(ctx context.Context, budget *models.Budget) error
	GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	ListBudgets(ctx context.Context) ([]models.Budget, error)
	ReplaceBudgetLines(ctx context.Context, budgetID uuid.UUID, lines []models.BudgetLine) error
	DeleteBudget(ctx context.Context, id uuid.UUID) error

	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error
	SoftDeleteInvoice(ctx context.Context, id uuid.UUID, at time.Time) error

	// Payments are append-only; there is no update or delete.
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)

	Close() error
}
