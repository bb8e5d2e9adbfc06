package reporting

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/ledger"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/money"
	"github.com/shopspring/decimal"
)

// UnitAssessed is what a unit was billed over the reporting period.
type UnitAssessed struct {
	UnitNumber string          `json:"unit_number"`
	Assessed   decimal.Decimal `json:"assessed"`
}

// CollectedPayment is a payment with the caller's days-to-collect figure.
type CollectedPayment struct {
	UnitNumber    string          `json:"unit_number"`
	Amount        decimal.Decimal `json:"amount"`
	DaysToCollect int             `json:"days_to_collect"`
}

type UnitCollection struct {
	UnitNumber           string          `json:"unit_number"`
	Assessed             decimal.Decimal `json:"assessed"`
	Collected            decimal.Decimal `json:"collected"`
	Balance              decimal.Decimal `json:"balance"`
	AverageDaysToCollect decimal.Decimal `json:"average_days_to_collect"`
}

type CollectionReport struct {
	TotalAssessed         decimal.Decimal  `json:"total_assessed"`
	TotalCollected        decimal.Decimal  `json:"total_collected"`
	TotalDelinquent       decimal.Decimal  `json:"total_delinquent"`
	CollectionRate        decimal.Decimal  `json:"collection_rate"`
	AverageCollectionDays decimal.Decimal  `json:"average_collection_days"`
	Units                 []UnitCollection `json:"units"`
}

// CalculateCollectionReport matches payments to units by unit number.
// Delinquency counts only positive balances; credits do not offset other
// units. AverageCollectionDays is the mean over every payment.
func CalculateCollectionReport(units []UnitAssessed, payments []CollectedPayment) CollectionReport {
	type acc struct {
		collected decimal.Decimal
		days      int64
		count     int64
	}
	byUnit := make(map[string]*acc, len(units))
	for _, p := range payments {
		a, ok := byUnit[p.UnitNumber]
		if !ok {
			a = &acc{}
			byUnit[p.UnitNumber] = a
		}
		a.collected = a.collected.Add(p.Amount)
		a.days += int64(p.DaysToCollect)
		a.count++
	}

	report := CollectionReport{Units: make([]UnitCollection, 0, len(units))}
	var allDays, allCount int64
	for _, u := range units {
		a := byUnit[u.UnitNumber]
		if a == nil {
			a = &acc{}
		}
		balance := u.Assessed.Sub(a.collected)
		report.Units = append(report.Units, UnitCollection{
			UnitNumber:           u.UnitNumber,
			Assessed:             u.Assessed,
			Collected:            a.collected,
			Balance:              balance,
			AverageDaysToCollect: money.SafeDivide(decimal.NewFromInt(a.days), decimal.NewFromInt(a.count), decimal.Zero),
		})
		report.TotalAssessed = report.TotalAssessed.Add(u.Assessed)
		report.TotalCollected = report.TotalCollected.Add(a.collected)
		report.TotalDelinquent = report.TotalDelinquent.Add(money.Max(balance, decimal.Zero))
		allDays += a.days
		allCount += a.count
	}

	report.CollectionRate = money.Percent(report.TotalCollected, report.TotalAssessed)
	report.AverageCollectionDays = money.SafeDivide(decimal.NewFromInt(allDays), decimal.NewFromInt(allCount), decimal.Zero)
	return report
}

// OverduePayment is a payment with how late it arrived.
type OverduePayment struct {
	Amount      decimal.Decimal `json:"amount"`
	DaysOverdue int             `json:"days_overdue"`
}

type CollectionMetrics struct {
	TotalAssessed      decimal.Decimal `json:"total_assessed"`
	TotalCollected     decimal.Decimal `json:"total_collected"`
	TotalOverdue       decimal.Decimal `json:"total_overdue"`
	CollectionRate     decimal.Decimal `json:"collection_rate"`
	AverageDaysOverdue decimal.Decimal `json:"average_days_overdue"`
}

// CalculateCollectionMetrics is the portfolio-level summary without a per-unit
// breakdown. TotalOverdue goes negative when collections exceed assessments.
func CalculateCollectionMetrics(assessments []decimal.Decimal, payments []OverduePayment) CollectionMetrics {
	m := CollectionMetrics{TotalAssessed: money.Sum(assessments...)}
	var days int64
	for _, p := range payments {
		m.TotalCollected = m.TotalCollected.Add(p.Amount)
		days += int64(p.DaysOverdue)
	}
	m.TotalOverdue = m.TotalAssessed.Sub(m.TotalCollected)
	m.CollectionRate = money.Percent(m.TotalCollected, m.TotalAssessed)
	m.AverageDaysOverdue = money.SafeDivide(decimal.NewFromInt(days), decimal.NewFromInt(int64(len(payments))), decimal.Zero)
	return m
}

// MonthlyCollections splits one calendar month's receipts by payment method.
type MonthlyCollections struct {
	Month      string          `json:"month"` // YYYY-MM
	Label      string          `json:"label"`
	Check      decimal.Decimal `json:"check"`
	ACH        decimal.Decimal `json:"ach"`
	CreditCard decimal.Decimal `json:"credit_card"`
	Cash       decimal.Decimal `json:"cash"`
	Other      decimal.Decimal `json:"other"`
	Total      decimal.Decimal `json:"total"`
}

// CollectionsByMethod groups payments by the month of their payment date,
// newest month first. Bank transfers and unknown methods count as other.
func CollectionsByMethod(payments []models.Payment) []MonthlyCollections {
	months := make(map[string]*MonthlyCollections)
	for _, p := range payments {
		key := p.PaymentDate.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthlyCollections{Month: key, Label: p.PaymentDate.Format("Jan 2006")}
			months[key] = m
		}
		switch p.Method {
		case models.PaymentMethodCheck:
			m.Check = m.Check.Add(p.Amount)
		case models.PaymentMethodACH:
			m.ACH = m.ACH.Add(p.Amount)
		case models.PaymentMethodCreditCard:
			m.CreditCard = m.CreditCard.Add(p.Amount)
		case models.PaymentMethodCash:
			m.Cash = m.Cash.Add(p.Amount)
		default:
			m.Other = m.Other.Add(p.Amount)
		}
		m.Total = m.Total.Add(p.Amount)
	}

	out := make([]MonthlyCollections, 0, len(months))
	for _, m := range months {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b MonthlyCollections) int { return strings.Compare(b.Month, a.Month) })
	return out
}

// CollectionInputs derives the per-unit assessed amounts and per-payment
// collection delays from stored records. Assessed is the total due of every
// live, non-draft, non-cancelled invoice; days to collect runs from the
// invoice's issue date to the payment date.
func CollectionInputs(units []models.Unit, invoices []models.Invoice, payments []models.Payment) ([]UnitAssessed, []CollectedPayment) {
	numbers := make(map[uuid.UUID]string, len(units))
	assessed := make(map[uuid.UUID]decimal.Decimal, len(units))
	for _, u := range units {
		numbers[u.ID] = u.UnitNumber
	}

	billed := make(map[uuid.UUID]*models.Invoice, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		if inv.IsDeleted() || inv.Status == models.InvoiceStatusDraft || inv.Status == models.InvoiceStatusCancelled {
			continue
		}
		billed[inv.ID] = inv
		assessed[inv.UnitID] = assessed[inv.UnitID].Add(ledger.TotalDue(inv))
	}

	unitRows := make([]UnitAssessed, 0, len(units))
	for _, u := range units {
		unitRows = append(unitRows, UnitAssessed{UnitNumber: u.UnitNumber, Assessed: assessed[u.ID]})
	}

	collected := make([]CollectedPayment, 0, len(payments))
	for _, p := range payments {
		inv, ok := billed[p.InvoiceID]
		if !ok {
			continue
		}
		collected = append(collected, CollectedPayment{
			UnitNumber:    numbers[p.UnitID],
			Amount:        p.Amount,
			DaysToCollect: ledger.DaysPastDue(inv.IssueDate, p.PaymentDate),
		})
	}
	return unitRows, collected
}

// StatementEntry is one line of a unit's running-balance statement.
type StatementEntry struct {
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"` // invoice or payment
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// BuildUnitStatement interleaves a unit's invoices (by issue date) and payments
// (by payment date) with a running balance. Deleted invoices and payments
// against them are left out.
func BuildUnitStatement(unitID uuid.UUID, invoices []models.Invoice, payments []models.Payment) []StatementEntry {
	titles := make(map[uuid.UUID]string)
	entries := []StatementEntry{}
	for i := range invoices {
		inv := &invoices[i]
		if inv.UnitID != unitID || inv.IsDeleted() {
			continue
		}
		titles[inv.ID] = inv.Title
		entries = append(entries, StatementEntry{
			Date:        inv.IssueDate,
			Type:        "invoice",
			Description: "Invoice: " + inv.Title,
			Debit:       ledger.TotalDue(inv),
		})
	}
	for _, p := range payments {
		title, ok := titles[p.InvoiceID]
		if p.UnitID != unitID || !ok {
			continue
		}
		entries = append(entries, StatementEntry{
			Date:        p.PaymentDate,
			Type:        "payment",
			Description: "Payment: " + title,
			Credit:      p.Amount,
		})
	}

	slices.SortStableFunc(entries, func(a, b StatementEntry) int { return a.Date.Compare(b.Date) })
	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].Balance = balance
	}
	return entries
}
