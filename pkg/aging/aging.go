// Package aging classifies unpaid invoice balances by how long they are past due.
package aging

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/ledger"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/shopspring/decimal"
)

type Bucket string

const (
	BucketCurrent Bucket = "current"
	Bucket1To30   Bucket = "1-30"
	Bucket31To60  Bucket = "31-60"
	Bucket61To90  Bucket = "61-90"
	Bucket90Plus  Bucket = "90+"
)

// Buckets lists every bucket from youngest to oldest.
var Buckets = []Bucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, Bucket90Plus}

// DaysOverdue is max(0, floor((today - dueDate) / 1 day)).
func DaysOverdue(dueDate, today time.Time) int {
	return ledger.DaysPastDue(dueDate, today)
}

// ClassifyBucket places an invoice by its due date alone. Late fees do not
// move an invoice between buckets.
func ClassifyBucket(dueDate, today time.Time) Bucket {
	days := DaysOverdue(dueDate, today)
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket1To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	}
	return Bucket90Plus
}

// Row is one unit's outstanding balance split by bucket.
type Row struct {
	UnitID     uuid.UUID       `json:"unit_id"`
	UnitNumber string          `json:"unit_number"`
	Current    decimal.Decimal `json:"current"`
	Days1To30  decimal.Decimal `json:"days_1_30"`
	Days31To60 decimal.Decimal `json:"days_31_60"`
	Days61To90 decimal.Decimal `json:"days_61_90"`
	Days90Plus decimal.Decimal `json:"days_90_plus"`
	TotalDue   decimal.Decimal `json:"total_due"`
}

func (r *Row) add(b Bucket, amount decimal.Decimal) {
	switch b {
	case BucketCurrent:
		r.Current = r.Current.Add(amount)
	case Bucket1To30:
		r.Days1To30 = r.Days1To30.Add(amount)
	case Bucket31To60:
		r.Days31To60 = r.Days31To60.Add(amount)
	case Bucket61To90:
		r.Days61To90 = r.Days61To90.Add(amount)
	default:
		r.Days90Plus = r.Days90Plus.Add(amount)
	}
	r.TotalDue = r.TotalDue.Add(amount)
}

// Report is an aging report with column totals.
type Report struct {
	AsOf   time.Time `json:"as_of"`
	Rows   []Row     `json:"rows"`
	Totals Row       `json:"totals"`
}

// outstanding yields each receivable, non-deleted invoice with a positive
// remaining balance.
func outstanding(invoices []models.Invoice, payments []models.Payment, fn func(inv *models.Invoice, remaining decimal.Decimal)) {
	byInvoice := ledger.PaymentsByInvoice(payments)
	for i := range invoices {
		inv := &invoices[i]
		if inv.IsDeleted() || !inv.Status.Receivable() {
			continue
		}
		rec := ledger.ReconcileInvoice(*inv, byInvoice[inv.ID])
		if rec.RemainingBalance.IsPositive() {
			fn(inv, rec.RemainingBalance)
		}
	}
}

// BuildAgingReport aggregates remaining balances per unit per bucket. Units
// owing nothing are omitted; rows are ordered by total due, largest first.
func BuildAgingReport(units []models.Unit, invoices []models.Invoice, payments []models.Payment, today time.Time) Report {
	rows := make(map[uuid.UUID]*Row, len(units))
	for _, u := range units {
		rows[u.ID] = &Row{UnitID: u.ID, UnitNumber: u.UnitNumber}
	}

	report := Report{AsOf: today, Rows: []Row{}}
	outstanding(invoices, payments, func(inv *models.Invoice, remaining decimal.Decimal) {
		row, ok := rows[inv.UnitID]
		if !ok {
			return
		}
		b := ClassifyBucket(inv.DueDate, today)
		row.add(b, remaining)
		report.Totals.add(b, remaining)
	})

	for _, u := range units {
		if row := rows[u.ID]; row.TotalDue.IsPositive() {
			report.Rows = append(report.Rows, *row)
		}
	}
	slices.SortStableFunc(report.Rows, func(a, b Row) int {
		if c := b.TotalDue.Cmp(a.TotalDue); c != 0 {
			return c
		}
		return strings.Compare(a.UnitNumber, b.UnitNumber)
	})
	return report
}

// DelinquencyRow summarizes a unit's past-due balance.
type DelinquencyRow struct {
	UnitID        uuid.UUID       `json:"unit_id"`
	UnitNumber    string          `json:"unit_number"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	OldestDueDate time.Time       `json:"oldest_due_date"`
	DaysPastDue   int             `json:"days_past_due"`
}

// BuildDelinquencyReport lists units with a positive balance on invoices whose
// due date has passed, most days past due first.
func BuildDelinquencyReport(units []models.Unit, invoices []models.Invoice, payments []models.Payment, today time.Time) []DelinquencyRow {
	rows := make(map[uuid.UUID]*DelinquencyRow, len(units))
	for _, u := range units {
		rows[u.ID] = &DelinquencyRow{UnitID: u.ID, UnitNumber: u.UnitNumber}
	}

	outstanding(invoices, payments, func(inv *models.Invoice, remaining decimal.Decimal) {
		row, ok := rows[inv.UnitID]
		if !ok || !inv.DueDate.Before(today) {
			return
		}
		row.BalanceDue = row.BalanceDue.Add(remaining)
		if row.OldestDueDate.IsZero() || inv.DueDate.Before(row.OldestDueDate) {
			row.OldestDueDate = inv.DueDate
		}
	})

	out := []DelinquencyRow{}
	for _, u := range units {
		row := rows[u.ID]
		if !row.BalanceDue.IsPositive() {
			continue
		}
		row.DaysPastDue = DaysOverdue(row.OldestDueDate, today)
		out = append(out, *row)
	}
	slices.SortStableFunc(out, func(a, b DelinquencyRow) int {
		if a.DaysPastDue != b.DaysPastDue {
			return b.DaysPastDue - a.DaysPastDue
		}
		return b.BalanceDue.Cmp(a.BalanceDue)
	})
	return out
}
