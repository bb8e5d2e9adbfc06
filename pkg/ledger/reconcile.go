package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/money"
	"github.com/shopspring/decimal"
)

// Reconciliation is an invoice's financial state derived from its payment history.
type Reconciliation struct {
	InvoiceID        uuid.UUID            `json:"invoice_id"`
	TotalDue         decimal.Decimal      `json:"total_due"`
	TotalPaid        decimal.Decimal      `json:"total_paid"`
	RemainingBalance decimal.Decimal      `json:"remaining_balance"` // negative means a credit
	Status           models.InvoiceStatus `json:"status"`
}

// TotalDue is amount - discount + late fee, in cents.
func TotalDue(inv *models.Invoice) decimal.Decimal {
	return money.RoundCents(inv.Amount.Sub(inv.Discount).Add(inv.LateFee))
}

// ReconcileInvoice derives due, paid and remaining amounts from the complete
// payment history of inv. The caller supplies only that invoice's payments.
//
// The status rule: paid when totalPaid covers totalDue, partial when something
// was paid. With nothing paid the status is left as it was, because pending vs.
// overdue depends on the current date (see DueStatus). Soft-deleted invoices
// are always deleted; draft and cancelled invoices keep their status.
func ReconcileInvoice(inv models.Invoice, payments []models.Payment) Reconciliation {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	totalDue := TotalDue(&inv)
	totalPaid := money.RoundCents(paid)

	return Reconciliation{
		InvoiceID:        inv.ID,
		TotalDue:         totalDue,
		TotalPaid:        totalPaid,
		RemainingBalance: totalDue.Sub(totalPaid),
		Status:           deriveStatus(&inv, totalDue, totalPaid),
	}
}

func deriveStatus(inv *models.Invoice, totalDue, totalPaid decimal.Decimal) models.InvoiceStatus {
	if inv.IsDeleted() {
		return models.InvoiceStatusDeleted
	}
	switch inv.Status {
	case models.InvoiceStatusDraft, models.InvoiceStatusCancelled:
		return inv.Status
	}

	switch {
	case totalPaid.GreaterThanOrEqual(totalDue):
		return models.InvoiceStatusPaid
	case totalPaid.IsPositive():
		return models.InvoiceStatusPartial
	case inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusPartial:
		// Stored status claimed payments the history does not contain.
		return models.InvoiceStatusPending
	}
	return inv.Status
}

// DueStatus classifies an unpaid invoice as pending or overdue on the calendar
// day of now.
func DueStatus(dueDate, now time.Time) models.InvoiceStatus {
	if DaysPastDue(dueDate, now) > 0 {
		return models.InvoiceStatusOverdue
	}
	return models.InvoiceStatusPending
}

// DaysPastDue is floor((now - dueDate) / 1 day), never negative.
func DaysPastDue(dueDate, now time.Time) int {
	if !now.After(dueDate) {
		return 0
	}
	return int(now.Sub(dueDate) / (24 * time.Hour))
}

// PaymentsByInvoice groups a flat payment list by invoice.
func PaymentsByInvoice(payments []models.Payment) map[uuid.UUID][]models.Payment {
	grouped := make(map[uuid.UUID][]models.Payment)
	for _, p := range payments {
		grouped[p.InvoiceID] = append(grouped[p.InvoiceID], p)
	}
	return grouped
}

// ReconcileAll reconciles every live invoice against its payments. Soft-deleted
// invoices are skipped.
func ReconcileAll(invoices []models.Invoice, payments []models.Payment) []Reconciliation {
	byInvoice := PaymentsByInvoice(payments)
	out := make([]Reconciliation, 0, len(invoices))
	for _, inv := range invoices {
		if inv.IsDeleted() {
			continue
		}
		out = append(out, ReconcileInvoice(inv, byInvoice[inv.ID]))
	}
	return out
}
