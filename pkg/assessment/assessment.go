// Package assessment apportions a budget across units. The common-area share of
// the budget is split equally per unit and the private share is split by square
// footage.
package assessment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/money"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the accepted rounding drift between a budget and the sum
// of its annual assessments.
var DefaultTolerance = decimal.New(1, -2)

var (
	ErrNegativeBudget              = errors.New("budget total must not be negative")
	ErrInvalidCommonAreaPercentage = errors.New("common area percentage must be between 0 and 100")
	ErrNegativeSquareFeet          = errors.New("square footage must not be negative")
)

// Params are the inputs of one allocation run.
//
// TotalSquareFeet is supplied by the caller. When the units' true total is zero
// the caller passes 1 (see TotalSquareFeet); the allocator does not infer it.
type Params struct {
	BudgetTotal          decimal.Decimal
	Units                []models.Unit
	TotalSquareFeet      decimal.Decimal
	CommonAreaPercentage decimal.Decimal
}

// UnitAssessment is one unit's share of a budget. It is derived, never stored.
type UnitAssessment struct {
	UnitID            uuid.UUID       `json:"unit_id"`
	UnitNumber        string          `json:"unit_number"`
	RawSquareFeet     decimal.Decimal `json:"raw_square_feet"`
	PercentageShare   decimal.Decimal `json:"percentage_share"` // unrounded
	MonthlyAssessment decimal.Decimal `json:"monthly_assessment"`
	AnnualAssessment  decimal.Decimal `json:"annual_assessment"`
}

// TotalSquareFeet sums the units' square footage. A zero sum is reported as 1 so
// that the private share allocates nothing instead of dividing by zero.
func TotalSquareFeet(units []models.Unit) decimal.Decimal {
	total := decimal.Zero
	for _, u := range units {
		total = total.Add(u.SquareFeet)
	}
	if total.IsZero() {
		return decimal.NewFromInt(1)
	}
	return total
}

func (p Params) validate() error {
	if p.BudgetTotal.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeBudget, p.BudgetTotal)
	}
	if p.CommonAreaPercentage.IsNegative() || p.CommonAreaPercentage.GreaterThan(money.Hundred) {
		return fmt.Errorf("%w: %s", ErrInvalidCommonAreaPercentage, p.CommonAreaPercentage)
	}
	if p.TotalSquareFeet.IsNegative() {
		return fmt.Errorf("%w: total %s", ErrNegativeSquareFeet, p.TotalSquareFeet)
	}
	for _, u := range p.Units {
		if u.SquareFeet.IsNegative() {
			return fmt.Errorf("%w: unit %s", ErrNegativeSquareFeet, u.UnitNumber)
		}
	}
	return nil
}

// CalculateUnitAssessments returns one assessment per unit, in input order.
//
// Annual and monthly figures are each rounded to cents from the unrounded share,
// so twelve monthly assessments need not add up to the annual one.
func CalculateUnitAssessments(p Params) ([]UnitAssessment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(p.Units) == 0 {
		return []UnitAssessment{}, nil
	}

	privatePct := money.Hundred.Sub(p.CommonAreaPercentage)
	commonBudget := money.PercentOf(p.BudgetTotal, p.CommonAreaPercentage)
	privateBudget := money.PercentOf(p.BudgetTotal, privatePct)
	commonPerUnit := money.SafeDivide(commonBudget, decimal.NewFromInt(int64(len(p.Units))), decimal.Zero)

	assessments := make([]UnitAssessment, 0, len(p.Units))
	for _, u := range p.Units {
		ratio := money.SafeDivide(u.SquareFeet, p.TotalSquareFeet, decimal.Zero)
		share := privateBudget.Mul(ratio).Add(commonPerUnit)

		assessments = append(assessments, UnitAssessment{
			UnitID:            u.ID,
			UnitNumber:        u.UnitNumber,
			RawSquareFeet:     u.SquareFeet,
			PercentageShare:   ratio.Mul(money.Hundred),
			MonthlyAssessment: money.RoundCents(money.SafeDivide(share, money.MonthsPerYear, decimal.Zero)),
			AnnualAssessment:  money.RoundCents(share),
		})
	}
	return assessments, nil
}

// Validation compares a budget with the sum of its annual assessments.
type Validation struct {
	IsValid    bool            `json:"is_valid"`
	Difference decimal.Decimal `json:"difference"`
}

// ValidateAssessmentCalculation reports drift beyond tolerance. Callers warn on
// an invalid result; they do not reject the allocation.
func ValidateAssessmentCalculation(budget decimal.Decimal, assessments []UnitAssessment, tolerance decimal.Decimal) Validation {
	total := decimal.Zero
	for _, a := range assessments {
		total = total.Add(a.AnnualAssessment)
	}
	diff := budget.Sub(total).Abs()
	return Validation{
		IsValid:    diff.LessThanOrEqual(tolerance),
		Difference: diff,
	}
}

// UnitShare is one unit's annual portion of a single budget category.
type UnitShare struct {
	UnitID     uuid.UUID       `json:"unit_id"`
	UnitNumber string          `json:"unit_number"`
	Share      decimal.Decimal `json:"share"`
}

// CategoryAssessment splits one budget line across every unit.
type CategoryAssessment struct {
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	UnitBreakdown []UnitShare     `json:"unit_breakdown"`
}

// CalculateAssessmentByCategory runs the allocator once per budget line, using
// the line's annual total as the budget.
func CalculateAssessmentByCategory(lines []models.BudgetLine, units []models.Unit, totalSquareFeet, commonAreaPct decimal.Decimal) ([]CategoryAssessment, error) {
	results := make([]CategoryAssessment, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		amount := line.AnnualTotal()
		assessments, err := CalculateUnitAssessments(Params{
			BudgetTotal:          amount,
			Units:                units,
			TotalSquareFeet:      totalSquareFeet,
			CommonAreaPercentage: commonAreaPct,
		})
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", line.CategoryName, err)
		}

		breakdown := make([]UnitShare, 0, len(assessments))
		for _, a := range assessments {
			breakdown = append(breakdown, UnitShare{UnitID: a.UnitID, UnitNumber: a.UnitNumber, Share: a.AnnualAssessment})
		}
		results = append(results, CategoryAssessment{
			Category:      line.CategoryName,
			Amount:        amount,
			UnitBreakdown: breakdown,
		})
	}
	return results, nil
}

// MonthlyAssignment holds the allocation of one calendar month's amount.
type MonthlyAssignment struct {
	Month       string           `json:"month"`
	Assessments []UnitAssessment `json:"assessments"`
}

// CalculateMonthlyAssignments allocates each month's budget amount separately,
// for budgets whose monthly amounts vary.
func CalculateMonthlyAssignments(monthly [12]decimal.Decimal, units []models.Unit, totalSquareFeet, commonAreaPct decimal.Decimal) ([]MonthlyAssignment, error) {
	out := make([]MonthlyAssignment, 0, len(monthly))
	for i, amount := range monthly {
		assessments, err := CalculateUnitAssessments(Params{
			BudgetTotal:          amount,
			Units:                units,
			TotalSquareFeet:      totalSquareFeet,
			CommonAreaPercentage: commonAreaPct,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", models.MonthNames[i], err)
		}
		out = append(out, MonthlyAssignment{Month: models.MonthNames[i], Assessments: assessments})
	}
	return out, nil
}

// ForBudget allocates a stored budget across units using the budget's own
// common-area percentage and the units' true square-footage total.
func ForBudget(budget *models.Budget, units []models.Unit) ([]UnitAssessment, Validation, error) {
	total := budget.Total()
	assessments, err := CalculateUnitAssessments(Params{
		BudgetTotal:          total,
		Units:                units,
		TotalSquareFeet:      TotalSquareFeet(units),
		CommonAreaPercentage: budget.EffectiveCommonAreaPercentage(),
	})
	if err != nil {
		return nil, Validation{}, err
	}
	return assessments, ValidateAssessmentCalculation(total, assessments, DefaultTolerance), nil
}
