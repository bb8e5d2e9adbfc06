package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func payments(amounts ...string) []models.Payment {
	out := make([]models.Payment, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, models.Payment{ID: uuid.New(), Amount: d(a)})
	}
	return out
}

func TestReconcileInvoice(t *testing.T) {
	tests := []struct {
		name      string
		invoice   models.Invoice
		payments  []models.Payment
		due       string
		paid      string
		remaining string
		status    models.InvoiceStatus
	}{
		{
			name:      "partial payment",
			invoice:   models.Invoice{Amount: d("1000"), Status: models.InvoiceStatusPending},
			payments:  payments("600"),
			due:       "1000",
			paid:      "600",
			remaining: "400",
			status:    models.InvoiceStatusPartial,
		},
		{
			name:      "paid in full",
			invoice:   models.Invoice{Amount: d("1000"), Status: models.InvoiceStatusOverdue},
			payments:  payments("1000"),
			due:       "1000",
			paid:      "1000",
			remaining: "0",
			status:    models.InvoiceStatusPaid,
		},
		{
			name:      "discount and late fee",
			invoice:   models.Invoice{Amount: d("500"), Discount: d("25.50"), LateFee: d("10"), Status: models.InvoiceStatusPending},
			payments:  payments("200", "284.50"),
			due:       "484.50",
			paid:      "484.50",
			remaining: "0",
			status:    models.InvoiceStatusPaid,
		},
		{
			name:      "overpayment is a credit",
			invoice:   models.Invoice{Amount: d("100"), Status: models.InvoiceStatusPending},
			payments:  payments("150"),
			due:       "100",
			paid:      "150",
			remaining: "-50",
			status:    models.InvoiceStatusPaid,
		},
		{
			name:      "no payments keeps overdue",
			invoice:   models.Invoice{Amount: d("100"), Status: models.InvoiceStatusOverdue},
			due:       "100",
			paid:      "0",
			remaining: "100",
			status:    models.InvoiceStatusOverdue,
		},
		{
			name:      "stale partial without payments",
			invoice:   models.Invoice{Amount: d("100"), Status: models.InvoiceStatusPartial},
			due:       "100",
			paid:      "0",
			remaining: "100",
			status:    models.InvoiceStatusPending,
		},
		{
			name:      "cancelled keeps status",
			invoice:   models.Invoice{Amount: d("100"), Status: models.InvoiceStatusCancelled},
			payments:  payments("100"),
			due:       "100",
			paid:      "100",
			remaining: "0",
			status:    models.InvoiceStatusCancelled,
		},
		{
			name:      "rounding of fractional cents",
			invoice:   models.Invoice{Amount: d("100.005"), Status: models.InvoiceStatusPending},
			payments:  payments("0.333", "0.333"),
			due:       "100.01",
			paid:      "0.67",
			remaining: "99.34",
			status:    models.InvoiceStatusPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ReconcileInvoice(tt.invoice, tt.payments)
			assert.True(t, rec.TotalDue.Equal(d(tt.due)), "total due %s", rec.TotalDue)
			assert.True(t, rec.TotalPaid.Equal(d(tt.paid)), "total paid %s", rec.TotalPaid)
			assert.True(t, rec.RemainingBalance.Equal(d(tt.remaining)), "remaining %s", rec.RemainingBalance)
			assert.Equal(t, tt.status, rec.Status)
		})
	}
}

func TestReconcileInvoice_SoftDeleted(t *testing.T) {
	at := time.Now()
	inv := models.Invoice{Amount: d("100"), Status: models.InvoiceStatusPartial, DeletedAt: &at}
	rec := ReconcileInvoice(inv, payments("40"))
	assert.Equal(t, models.InvoiceStatusDeleted, rec.Status)
	assert.True(t, rec.RemainingBalance.Equal(d("60")))
}

func TestDueStatus(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, models.InvoiceStatusPending, DueStatus(due, due.Add(-time.Hour)))
	assert.Equal(t, models.InvoiceStatusPending, DueStatus(due, due.Add(23*time.Hour)))
	assert.Equal(t, models.InvoiceStatusOverdue, DueStatus(due, due.AddDate(0, 0, 1)))

	assert.Equal(t, 0, DaysPastDue(due, due.AddDate(0, 0, -10)))
	assert.Equal(t, 45, DaysPastDue(due, due.AddDate(0, 0, 45).Add(6*time.Hour)))
}

func TestReconcileAll_SkipsDeleted(t *testing.T) {
	at := time.Now()
	live := models.Invoice{ID: uuid.New(), Amount: d("100"), Status: models.InvoiceStatusPending}
	gone := models.Invoice{ID: uuid.New(), Amount: d("100"), Status: models.InvoiceStatusDeleted, DeletedAt: &at}
	pays := []models.Payment{
		{InvoiceID: live.ID, Amount: d("30")},
		{InvoiceID: gone.ID, Amount: d("100")},
	}

	recs := ReconcileAll([]models.Invoice{live, gone}, pays)
	if assert.Len(t, recs, 1) {
		assert.Equal(t, live.ID, recs[0].InvoiceID)
		assert.True(t, recs[0].RemainingBalance.Equal(d("70")))
	}
}
