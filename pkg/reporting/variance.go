// Package reporting computes budget variance, budget pacing and collection
// metrics from already-loaded budgets, invoices and payments.
package reporting

import (
	"errors"
	"slices"

	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/money"
	"github.com/shopspring/decimal"
)

type VarianceStatus string

const (
	StatusUnder   VarianceStatus = "under"
	StatusOver    VarianceStatus = "over"
	StatusOnTrack VarianceStatus = "on-track"
)

// OnTrackBand is the inclusive variance percentage treated as on track.
var OnTrackBand = decimal.NewFromInt(5)

var ErrInvalidElapsedMonths = errors.New("elapsed months must be between 0 and 12")

// Expense is an actual spend against a budget category.
type Expense struct {
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
}

type BudgetVariance struct {
	Category        string          `json:"category"`
	Budgeted        decimal.Decimal `json:"budgeted"`
	Actual          decimal.Decimal `json:"actual"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
	Status          VarianceStatus  `json:"status"`
}

type BudgetSummary struct {
	TotalBudgeted   decimal.Decimal  `json:"total_budgeted"`
	TotalActual     decimal.Decimal  `json:"total_actual"`
	TotalVariance   decimal.Decimal  `json:"total_variance"`
	VariancePercent decimal.Decimal  `json:"variance_percent"`
	Status          VarianceStatus   `json:"status"`
	Categories      []BudgetVariance `json:"categories"`
}

// varianceStatus: within the band is on track, otherwise a positive variance
// (spent less than budgeted) is under.
func varianceStatus(variance, percent decimal.Decimal) VarianceStatus {
	switch {
	case percent.Abs().LessThanOrEqual(OnTrackBand):
		return StatusOnTrack
	case variance.IsPositive():
		return StatusUnder
	}
	return StatusOver
}

// CalculateBudgetVariance compares each budget line's annual total with the
// actual expenses recorded under the same category name. Expenses for
// categories without a line are ignored.
func CalculateBudgetVariance(lines []models.BudgetLine, actual []Expense) BudgetSummary {
	spent := make(map[string]decimal.Decimal, len(actual))
	for _, e := range actual {
		spent[e.CategoryName] = spent[e.CategoryName].Add(e.Amount)
	}

	summary := BudgetSummary{Categories: make([]BudgetVariance, 0, len(lines))}
	for i := range lines {
		budgeted := lines[i].AnnualTotal()
		act := spent[lines[i].CategoryName]
		variance := budgeted.Sub(act)
		pct := money.Percent(variance, budgeted)

		summary.Categories = append(summary.Categories, BudgetVariance{
			Category:        lines[i].CategoryName,
			Budgeted:        budgeted,
			Actual:          act,
			Variance:        variance,
			VariancePercent: pct,
			Status:          varianceStatus(variance, pct),
		})
		summary.TotalBudgeted = summary.TotalBudgeted.Add(budgeted)
		summary.TotalActual = summary.TotalActual.Add(act)
	}

	summary.TotalVariance = summary.TotalBudgeted.Sub(summary.TotalActual)
	summary.VariancePercent = money.Percent(summary.TotalVariance, summary.TotalBudgeted)
	summary.Status = varianceStatus(summary.TotalVariance, summary.VariancePercent)
	return summary
}

type BudgetProgress struct {
	ElapsedMonths    int             `json:"elapsed_months"`
	ExpectedSpend    decimal.Decimal `json:"expected_spend"`
	ActualSpend      decimal.Decimal `json:"actual_spend"`
	SpendingRate     decimal.Decimal `json:"spending_rate"`      // percent of expected
	OnPaceAmount     decimal.Decimal `json:"on_pace_amount"`     // expected minus actual
	ProjectedYearEnd decimal.Decimal `json:"projected_year_end"` // if the current rate continues
}

// CalculateBudgetProgress paces actual spend against a straight-line monthly
// budget. Zero elapsed months yields a zero rate and projection.
func CalculateBudgetProgress(budgetTotal, actualSpend decimal.Decimal, elapsedMonths int) (BudgetProgress, error) {
	if elapsedMonths < 0 || elapsedMonths > 12 {
		return BudgetProgress{}, ErrInvalidElapsedMonths
	}
	elapsed := decimal.NewFromInt(int64(elapsedMonths))
	// The rate is taken against the unrounded expectation; only reported
	// amounts are rounded.
	expected := money.SafeDivide(budgetTotal, money.MonthsPerYear, decimal.Zero).Mul(elapsed)

	return BudgetProgress{
		ElapsedMonths:    elapsedMonths,
		ExpectedSpend:    money.RoundCents(expected),
		ActualSpend:      actualSpend,
		SpendingRate:     money.Percent(actualSpend, expected),
		OnPaceAmount:     money.RoundCents(expected.Sub(actualSpend)),
		ProjectedYearEnd: money.RoundCents(money.SafeDivide(actualSpend, elapsed, decimal.Zero).Mul(money.MonthsPerYear)),
	}, nil
}

// BudgetYear and YearSpend feed CalculateBudgetTrends.
type BudgetYear struct {
	FiscalYear  int             `json:"fiscal_year"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type YearSpend struct {
	FiscalYear int             `json:"fiscal_year"`
	Amount     decimal.Decimal `json:"amount"`
}

type BudgetTrend struct {
	Year          int             `json:"year"`
	BudgetAmount  decimal.Decimal `json:"budget_amount"`
	SpentAmount   decimal.Decimal `json:"spent_amount"`
	PercentChange decimal.Decimal `json:"percent_change"` // against the previous year's budget
}

// CalculateBudgetTrends orders budgets by fiscal year and reports each year's
// spend and change from the year before. The first year shows no change.
func CalculateBudgetTrends(budgets []BudgetYear, spending []YearSpend) []BudgetTrend {
	sorted := slices.Clone(budgets)
	slices.SortStableFunc(sorted, func(a, b BudgetYear) int { return a.FiscalYear - b.FiscalYear })

	spent := make(map[int]decimal.Decimal)
	for _, s := range spending {
		spent[s.FiscalYear] = spent[s.FiscalYear].Add(s.Amount)
	}

	trends := make([]BudgetTrend, 0, len(sorted))
	for i, b := range sorted {
		previous := b.TotalAmount
		if i > 0 {
			previous = sorted[i-1].TotalAmount
		}
		trends = append(trends, BudgetTrend{
			Year:          b.FiscalYear,
			BudgetAmount:  b.TotalAmount,
			SpentAmount:   spent[b.FiscalYear],
			PercentChange: money.Percent(b.TotalAmount.Sub(previous), previous),
		})
	}
	return trends
}

// BudgetYears summarizes stored budgets for CalculateBudgetTrends.
func BudgetYears(budgets []models.Budget) []BudgetYear {
	out := make([]BudgetYear, 0, len(budgets))
	for i := range budgets {
		out = append(out, BudgetYear{FiscalYear: budgets[i].FiscalYear, TotalAmount: budgets[i].Total()})
	}
	return out
}
