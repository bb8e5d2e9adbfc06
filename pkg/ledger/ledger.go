package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/mcclellann/hoaLedger/pkg/assessment"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotPayable    = errors.New("invoice does not accept payments")
	ErrNonPositivePayment   = errors.New("payment amount must be positive")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInvalidInvoice       = errors.New("invalid invoice")
	ErrInvoiceHasPayments   = errors.New("invoice has recorded payments")
)

// Ledger handles the invoice and payment workflow on top of a Storage.
type Ledger struct {
	storage store.Storage
	locks   *keyedMutex
	log     zerolog.Logger
	now     func() time.Time
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage) *Ledger {
	return &Ledger{
		storage: s,
		locks:   newKeyedMutex(),
		log:     logger.WithComponent("ledger"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewInvoice is the input for CreateInvoice.
type NewInvoice struct {
	UnitID        uuid.UUID       `json:"unit_id"`
	BudgetID      *uuid.UUID      `json:"budget_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal `json:"discount"`
	LateFee       decimal.Decimal `json:"late_fee"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Draft         bool            `json:"draft"`
}

func (n *NewInvoice) validate() error {
	switch {
	case n.Amount.IsNegative():
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInvoice)
	case n.Discount.IsNegative():
		return fmt.Errorf("%w: discount must not be negative", ErrInvalidInvoice)
	case n.LateFee.IsNegative():
		return fmt.Errorf("%w: late fee must not be negative", ErrInvalidInvoice)
	case n.IssueDate.IsZero() || n.DueDate.IsZero():
		return fmt.Errorf("%w: issue and due dates are required", ErrInvalidInvoice)
	case n.DueDate.Before(n.IssueDate):
		return fmt.Errorf("%w: due date is before issue date", ErrInvalidInvoice)
	}
	return nil
}

// CreateInvoice stores a new invoice for an existing unit. It starts pending
// unless a draft is requested.
func (l *Ledger) CreateInvoice(ctx context.Context, in NewInvoice) (*models.Invoice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := l.storage.GetUnit(ctx, in.UnitID); err != nil {
		return nil, fmt.Errorf("failed to load unit: %w", err)
	}

	now := l.now()
	inv := &models.Invoice{
		ID:            uuid.New(),
		UnitID:        in.UnitID,
		BudgetID:      in.BudgetID,
		InvoiceNumber: in.InvoiceNumber,
		Title:         in.Title,
		Amount:        in.Amount,
		Discount:      in.Discount,
		LateFee:       in.LateFee,
		IssueDate:     in.IssueDate,
		DueDate:       in.DueDate,
		Status:        models.InvoiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Draft {
		inv.Status = models.InvoiceStatusDraft
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = "INV-" + strings.ToUpper(inv.ID.String()[:8])
	}

	if err := l.storage.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}
	l.log.Info().Str("invoice_id", inv.ID.String()).Str("total_due", TotalDue(inv).StringFixed(2)).Msg("Invoice created")
	return inv, nil
}

// GetInvoice retrieves an invoice by its ID.
func (l *Ledger) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return l.storage.GetInvoice(ctx, id)
}

// NewPayment is the input for RecordPayment. An empty method records as other.
type NewPayment struct {
	InvoiceID       uuid.UUID            `json:"-"`
	Amount          decimal.Decimal      `json:"amount"`
	PaymentDate     time.Time            `json:"payment_date"`
	Method          models.PaymentMethod `json:"method"`
	ReferenceNumber string               `json:"reference_number"`
	Notes           string               `json:"notes"`
}

// RecordPayment appends a payment and re-derives the invoice status from its
// complete payment history. The append, the history read and the status write
// for one invoice never interleave with another payment on the same invoice.
func (l *Ledger) RecordPayment(ctx context.Context, in NewPayment) (*models.Payment, Reconciliation, error) {
	if !in.Amount.IsPositive() {
		return nil, Reconciliation{}, ErrNonPositivePayment
	}
	if in.Method == "" {
		in.Method = models.PaymentMethodOther
	}
	if !in.Method.Valid() {
		return nil, Reconciliation{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, in.Method)
	}

	unlock := l.locks.Lock(in.InvoiceID)
	defer unlock()

	inv, err := l.storage.GetInvoice(ctx, in.InvoiceID)
	if err != nil {
		return nil, Reconciliation{}, err
	}
	if !payable(inv) {
		return nil, Reconciliation{}, fmt.Errorf("%w: status %s", ErrInvoiceNotPayable, inv.Status)
	}

	now := l.now()
	payment := &models.Payment{
		ID:              uuid.New(),
		InvoiceID:       inv.ID,
		UnitID:          inv.UnitID,
		Amount:          in.Amount,
		PaymentDate:     in.PaymentDate,
		Method:          in.Method,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		CreatedAt:       now,
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = now
	}
	if err := l.storage.CreatePayment(ctx, payment); err != nil {
		return nil, Reconciliation{}, fmt.Errorf("failed to store payment: %w", err)
	}

	rec, err := l.reconcile(ctx, inv)
	if err != nil {
		return nil, Reconciliation{}, err
	}

	l.log.Info().
		Str("invoice_id", inv.ID.String()).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("remaining", rec.RemainingBalance.StringFixed(2)).
		Str("status", string(rec.Status)).
		Msg("Payment recorded")
	return payment, rec, nil
}

// reconcile reads the full payment history, derives the status and persists it
// when it changed. Callers hold the invoice lock.
func (l *Ledger) reconcile(ctx context.Context, inv *models.Invoice) (Reconciliation, error) {
	payments, err := l.storage.GetPaymentsForInvoice(ctx, inv.ID)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("failed to load payment history: %w", err)
	}
	rec := ReconcileInvoice(*inv, payments)
	if rec.Status != inv.Status {
		if err := l.storage.UpdateInvoiceStatus(ctx, inv.ID, rec.Status); err != nil {
			return Reconciliation{}, fmt.Errorf("failed to update invoice status: %w", err)
		}
		inv.Status = rec.Status
	}
	return rec, nil
}

func payable(inv *models.Invoice) bool {
	if inv.IsDeleted() {
		return false
	}
	switch inv.Status {
	case models.InvoiceStatusDraft, models.InvoiceStatusCancelled:
		return false
	}
	return true
}

// GetInvoiceBalance reconciles one invoice from a fresh read of its history.
func (l *Ledger) GetInvoiceBalance(ctx context.Context, id uuid.UUID) (Reconciliation, error) {
	unlock := l.locks.Lock(id)
	defer unlock()

	inv, err := l.storage.GetInvoice(ctx, id)
	if err != nil {
		return Reconciliation{}, err
	}
	if inv.IsDeleted() {
		payments, err := l.storage.GetPaymentsForInvoice(ctx, id)
		if err != nil {
			return Reconciliation{}, fmt.Errorf("failed to load payment history: %w", err)
		}
		return ReconcileInvoice(*inv, payments), nil
	}
	return l.reconcile(ctx, inv)
}

// DeleteInvoice soft-deletes an invoice. Its payments stay on record.
func (l *Ledger) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	if err := l.storage.SoftDeleteInvoice(ctx, id, l.now()); err != nil {
		return err
	}
	l.log.Info().Str("invoice_id", id.String()).Msg("Invoice deleted")
	return nil
}

// CancelInvoice marks an unpaid invoice cancelled.
func (l *Ledger) CancelInvoice(ctx context.Context, id uuid.UUID) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	inv, err := l.storage.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if inv.IsDeleted() {
		return store.ErrNotFound
	}
	payments, err := l.storage.GetPaymentsForInvoice(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load payment history: %w", err)
	}
	if len(payments) > 0 {
		return ErrInvoiceHasPayments
	}
	return l.storage.UpdateInvoiceStatus(ctx, id, models.InvoiceStatusCancelled)
}

// RefreshOverdue moves unpaid invoices between pending and overdue according to
// their due date on the day of now. It returns how many invoices changed.
func (l *Ledger) RefreshOverdue(ctx context.Context, now time.Time) (int, error) {
	invoices, err := l.storage.ListInvoices(ctx, store.InvoiceFilter{
		Statuses: []models.InvoiceStatus{models.InvoiceStatusPending, models.InvoiceStatusOverdue},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list unpaid invoices: %w", err)
	}

	changed := 0
	for _, inv := range invoices {
		want := DueStatus(inv.DueDate, now)
		if want == inv.Status {
			continue
		}
		if err := l.refreshOne(ctx, inv.ID, now); err != nil {
			l.log.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("Error refreshing overdue status")
			continue
		}
		changed++
	}
	if changed > 0 {
		l.log.Info().Int("changed", changed).Msg("Overdue sweep complete")
	}
	return changed, nil
}

// refreshOne re-checks under the invoice lock so a payment recorded since the
// listing wins over the sweep.
func (l *Ledger) refreshOne(ctx context.Context, id uuid.UUID, now time.Time) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	inv, err := l.storage.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != models.InvoiceStatusPending && inv.Status != models.InvoiceStatusOverdue {
		return nil
	}
	return l.storage.UpdateInvoiceStatus(ctx, id, DueStatus(inv.DueDate, now))
}

// AssessmentRun is the result of GenerateAssessmentInvoices.
type AssessmentRun struct {
	Invoices    []models.Invoice            `json:"invoices"`
	Assessments []assessment.UnitAssessment `json:"assessments"`
	Validation  assessment.Validation       `json:"validation"`
}

// GenerateAssessmentInvoices allocates a budget across every unit and creates
// one pending invoice per unit for its monthly assessment. Units whose monthly
// assessment is zero get no invoice.
func (l *Ledger) GenerateAssessmentInvoices(ctx context.Context, budgetID uuid.UUID, issueDate, dueDate time.Time) (*AssessmentRun, error) {
	if dueDate.Before(issueDate) {
		return nil, fmt.Errorf("%w: due date is before issue date", ErrInvalidInvoice)
	}
	budget, err := l.storage.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	units, err := l.storage.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	assessments, validation, err := assessment.ForBudget(budget, units)
	if err != nil {
		return nil, err
	}
	if !validation.IsValid {
		l.log.Warn().
			Str("budget_id", budgetID.String()).
			Str("difference", validation.Difference.StringFixed(2)).
			Msg("Assessment total drifts from budget beyond tolerance")
	}

	run := &AssessmentRun{Assessments: assessments, Validation: validation}
	period := issueDate.Format("2006-01")
	for _, a := range assessments {
		if !a.MonthlyAssessment.IsPositive() {
			continue
		}
		inv, err := l.CreateInvoice(ctx, NewInvoice{
			UnitID:        a.UnitID,
			BudgetID:      &budget.ID,
			InvoiceNumber: fmt.Sprintf("INV-%s-%s", period, a.UnitNumber),
			Title:         fmt.Sprintf("%s assessment %s", budget.Name, issueDate.Format("January 2006")),
			Amount:        a.MonthlyAssessment,
			IssueDate:     issueDate,
			DueDate:       dueDate,
		})
		if err != nil {
			return run, fmt.Errorf("failed to create invoice for unit %s: %w", a.UnitNumber, err)
		}
		run.Invoices = append(run.Invoices, *inv)
	}

	l.log.Info().Str("budget_id", budgetID.String()).Int("invoices", len(run.Invoices)).Msg("Assessment invoices generated")
	return run, nil
}

// keyedMutex serializes work per invoice id. Entries are dropped once no
// goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
