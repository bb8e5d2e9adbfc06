package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCommonAreaPercentage applies when a budget does not set one.
var DefaultCommonAreaPercentage = decimal.NewFromInt(45)

// MonthNames are the budget columns in calendar order.
var MonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type Unit struct {
	ID         uuid.UUID       `json:"id"`
	UnitNumber string          `json:"unit_number"`
	Address    string          `json:"address,omitempty"`
	SquareFeet decimal.Decimal `json:"square_feet"` // Sole basis for the private-area share
	CreatedAt  time.Time       `json:"created_at"`
}

type Budget struct {
	ID                   uuid.UUID           `json:"id"`
	Name                 string              `json:"name"`
	FiscalYear           int                 `json:"fiscal_year"`
	CommonAreaPercentage decimal.NullDecimal `json:"common_area_percentage"` // Null means DefaultCommonAreaPercentage
	Lines                []BudgetLine        `json:"lines"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// EffectiveCommonAreaPercentage resolves the unset case to the default.
func (b *Budget) EffectiveCommonAreaPercentage() decimal.Decimal {
	if !b.CommonAreaPercentage.Valid {
		return DefaultCommonAreaPercentage
	}
	return b.CommonAreaPercentage.Decimal
}

// Total is derived from the lines on every read; no stored copy exists.
func (b *Budget) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range b.Lines {
		total = total.Add(b.Lines[i].AnnualTotal())
	}
	return total
}

func (b Budget) MarshalJSON() ([]byte, error) {
	type alias Budget
	return json.Marshal(struct {
		alias
		CommonAreaPercentage decimal.Decimal `json:"common_area_percentage"`
		TotalAmount          decimal.Decimal `json:"total_amount"`
	}{
		alias:                alias(b),
		CommonAreaPercentage: b.EffectiveCommonAreaPercentage(),
		TotalAmount:          b.Total(),
	})
}

type BudgetLine struct {
	ID           uuid.UUID           `json:"id"`
	BudgetID     uuid.UUID           `json:"budget_id"`
	CategoryName string              `json:"category_name"`
	Months       [12]decimal.Decimal `json:"months"` // January..December
}

// AnnualTotal is always the sum of the twelve months.
func (l *BudgetLine) AnnualTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range l.Months {
		total = total.Add(m)
	}
	return total
}

func (l BudgetLine) MarshalJSON() ([]byte, error) {
	type alias BudgetLine
	return json.Marshal(struct {
		alias
		AnnualTotal decimal.Decimal `json:"annual_total"`
	}{
		alias:       alias(l),
		AnnualTotal: l.AnnualTotal(),
	})
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusDeleted   InvoiceStatus = "deleted"
)

// Receivable reports whether an invoice in this status can still be owed money.
func (s InvoiceStatus) Receivable() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	UnitID        uuid.UUID       `json:"unit_id"`
	BudgetID      *uuid.UUID      `json:"budget_id,omitempty"` // Set when generated from an assessment run
	InvoiceNumber string          `json:"invoice_number"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal `json:"discount"`
	LateFee       decimal.Decimal `json:"late_fee"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Status        InvoiceStatus   `json:"status"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsDeleted reports a soft delete. Deleted invoices are excluded from every aggregate.
func (i *Invoice) IsDeleted() bool {
	return i.DeletedAt != nil || i.Status == InvoiceStatusDeleted
}

type PaymentMethod string

const (
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodACH          PaymentMethod = "ach"
	PaymentMethodOther        PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCheck, PaymentMethodCash, PaymentMethodBankTransfer,
		PaymentMethodCreditCard, PaymentMethodACH, PaymentMethodOther:
		return true
	}
	return false
}

// Payment rows are append-only.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	UnitID          uuid.UUID       `json:"unit_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     time.Time       `json:"payment_date"`
	Method          PaymentMethod   `json:"method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
