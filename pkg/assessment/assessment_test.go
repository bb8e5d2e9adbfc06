package assessment

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func unit(number string, sqft int64) models.Unit {
	return models.Unit{ID: uuid.New(), UnitNumber: number, SquareFeet: decimal.NewFromInt(sqft)}
}

func TestCalculateUnitAssessments_TwoFactorSplit(t *testing.T) {
	units := []models.Unit{unit("101", 1000), unit("102", 3000)}

	got, err := CalculateUnitAssessments(Params{
		BudgetTotal:          d("12000"),
		Units:                units,
		TotalSquareFeet:      TotalSquareFeet(units),
		CommonAreaPercentage: d("50"),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// 6000 common split equally, 6000 private split 1:3
	assert.Equal(t, units[0].ID, got[0].UnitID)
	assert.Equal(t, "101", got[0].UnitNumber)
	assert.True(t, got[0].AnnualAssessment.Equal(d("4500")), got[0].AnnualAssessment.String())
	assert.True(t, got[0].MonthlyAssessment.Equal(d("375")), got[0].MonthlyAssessment.String())
	assert.True(t, got[0].PercentageShare.Equal(d("25")))
	assert.True(t, got[0].RawSquareFeet.Equal(d("1000")))

	assert.True(t, got[1].AnnualAssessment.Equal(d("7500")))
	assert.True(t, got[1].MonthlyAssessment.Equal(d("625")))
	assert.True(t, got[1].PercentageShare.Equal(d("75")))
}

func TestCalculateUnitAssessments_FullCommonAreaIsEqual(t *testing.T) {
	units := []models.Unit{
		unit("A", 500), unit("B", 900), unit("C", 1200), unit("D", 1750),
		unit("E", 2000), unit("F", 640), unit("G", 3100),
	}

	got, err := CalculateUnitAssessments(Params{
		BudgetTotal:          d("100"),
		Units:                units,
		TotalSquareFeet:      TotalSquareFeet(units),
		CommonAreaPercentage: d("100"),
	})
	require.NoError(t, err)

	for _, a := range got {
		assert.True(t, a.AnnualAssessment.Equal(got[0].AnnualAssessment), "unit %s: %s", a.UnitNumber, a.AnnualAssessment)
	}
	assert.True(t, got[0].AnnualAssessment.Equal(d("14.29")))

	// Seven independently rounded shares drift 3 cents past the budget.
	v := ValidateAssessmentCalculation(d("100"), got, DefaultTolerance)
	assert.False(t, v.IsValid)
	assert.True(t, v.Difference.Equal(d("0.03")), v.Difference.String())
}

func TestCalculateUnitAssessments_PercentageSharesSumToHundred(t *testing.T) {
	units := []models.Unit{unit("1", 1000), unit("2", 1000), unit("3", 1000), unit("4", 1333)}

	got, err := CalculateUnitAssessments(Params{
		BudgetTotal:          d("250000"),
		Units:                units,
		TotalSquareFeet:      TotalSquareFeet(units),
		CommonAreaPercentage: d("45"),
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, a := range got {
		sum = sum.Add(a.PercentageShare)
	}
	assert.True(t, sum.Sub(d("100")).Abs().LessThanOrEqual(d("0.000001")), sum.String())
}

func TestCalculateUnitAssessments_DriftBoundedByUnitCount(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	halfCent := d("0.005")

	for i := 0; i < 500; i++ {
		n := 1 + r.Intn(12)
		units := make([]models.Unit, 0, n)
		for j := 0; j < n; j++ {
			units = append(units, unit(fmt.Sprintf("U%d", j), r.Int63n(5000)+1))
		}
		budget := decimal.New(r.Int63n(100_000_000), -2)
		pct := decimal.NewFromInt(r.Int63n(101))

		got, err := CalculateUnitAssessments(Params{
			BudgetTotal:          budget,
			Units:                units,
			TotalSquareFeet:      TotalSquareFeet(units),
			CommonAreaPercentage: pct,
		})
		require.NoError(t, err)
		require.Len(t, got, n)

		// No penny adjustment: each unit may round by up to half a cent.
		v := ValidateAssessmentCalculation(budget, got, DefaultTolerance)
		bound := halfCent.Mul(decimal.NewFromInt(int64(n)))
		assert.True(t, v.Difference.LessThanOrEqual(bound), "%d units, budget %s pct %s drifted %s", n, budget, pct, v.Difference)
		if n <= 2 {
			assert.True(t, v.IsValid, "%d units, budget %s pct %s drifted %s", n, budget, pct, v.Difference)
		}
		assert.Equal(t, v.Difference.LessThanOrEqual(DefaultTolerance), v.IsValid)
	}
}

func TestCalculateUnitAssessments_DriftReportedNotAdjusted(t *testing.T) {
	units := make([]models.Unit, 0, 7)
	for j := 1; j <= 7; j++ {
		units = append(units, unit(fmt.Sprintf("%d", 100+j), 1000))
	}

	got, err := CalculateUnitAssessments(Params{
		BudgetTotal:          d("100"),
		Units:                units,
		TotalSquareFeet:      TotalSquareFeet(units),
		CommonAreaPercentage: d("45"),
	})
	require.NoError(t, err)
	for _, a := range got {
		assert.Equal(t, "14.29", a.AnnualAssessment.String())
	}

	v := ValidateAssessmentCalculation(d("100"), got, DefaultTolerance)
	assert.False(t, v.IsValid)
	assert.Equal(t, "0.03", v.Difference.String())
}

func TestCalculateUnitAssessments_MonthlyRoundedIndependently(t *testing.T) {
	units := []models.Unit{unit("1", 800), unit("2", 800), unit("3", 800)}

	got, err := CalculateUnitAssessments(Params{
		BudgetTotal:          d("1000"),
		Units:                units,
		TotalSquareFeet:      TotalSquareFeet(units),
		CommonAreaPercentage: d("45"),
	})
	require.NoError(t, err)

	assert.True(t, got[0].AnnualAssessment.Equal(d("333.33")))
	assert.True(t, got[0].MonthlyAssessment.Equal(d("27.78")))
}

func TestCalculateUnitAssessments_EdgeCases(t *testing.T) {
	t.Run("no units", func(t *testing.T) {
		got, err := CalculateUnitAssessments(Params{BudgetTotal: d("1000"), TotalSquareFeet: d("1"), CommonAreaPercentage: d("45")})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("zero square footage", func(t *testing.T) {
		units := []models.Unit{unit("1", 0), unit("2", 0)}
		total := TotalSquareFeet(units)
		assert.True(t, total.Equal(d("1")))

		got, err := CalculateUnitAssessments(Params{
			BudgetTotal:          d("1000"),
			Units:                units,
			TotalSquareFeet:      total,
			CommonAreaPercentage: d("45"),
		})
		require.NoError(t, err)
		for _, a := range got {
			assert.True(t, a.AnnualAssessment.Equal(d("225")), a.AnnualAssessment.String())
			assert.True(t, a.PercentageShare.IsZero())
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		units := []models.Unit{unit("1", 100)}
		_, err := CalculateUnitAssessments(Params{BudgetTotal: d("-1"), Units: units, TotalSquareFeet: d("100"), CommonAreaPercentage: d("45")})
		assert.ErrorIs(t, err, ErrNegativeBudget)

		_, err = CalculateUnitAssessments(Params{BudgetTotal: d("1"), Units: units, TotalSquareFeet: d("100"), CommonAreaPercentage: d("100.5")})
		assert.ErrorIs(t, err, ErrInvalidCommonAreaPercentage)

		bad := []models.Unit{{ID: uuid.New(), UnitNumber: "X", SquareFeet: d("-5")}}
		_, err = CalculateUnitAssessments(Params{BudgetTotal: d("1"), Units: bad, TotalSquareFeet: d("100"), CommonAreaPercentage: d("45")})
		assert.ErrorIs(t, err, ErrNegativeSquareFeet)
	})
}

func TestValidateAssessmentCalculation(t *testing.T) {
	assessments := []UnitAssessment{
		{AnnualAssessment: d("500.00")},
		{AnnualAssessment: d("499.99")},
	}

	v := ValidateAssessmentCalculation(d("1000"), assessments, DefaultTolerance)
	assert.True(t, v.IsValid)
	assert.True(t, v.Difference.Equal(d("0.01")))

	v = ValidateAssessmentCalculation(d("1000.02"), assessments, DefaultTolerance)
	assert.False(t, v.IsValid)
	assert.True(t, v.Difference.Equal(d("0.03")))
}

func TestCalculateAssessmentByCategory(t *testing.T) {
	units := []models.Unit{unit("1", 1000), unit("2", 1000)}
	var landscaping, insurance models.BudgetLine
	landscaping.CategoryName = "Landscaping, Grounds"
	insurance.CategoryName = "Insurance"
	for i := range landscaping.Months {
		landscaping.Months[i] = d("100")
		insurance.Months[i] = d("50")
	}

	got, err := CalculateAssessmentByCategory([]models.BudgetLine{landscaping, insurance}, units, TotalSquareFeet(units), d("45"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Landscaping, Grounds", got[0].Category)
	assert.True(t, got[0].Amount.Equal(d("1200")))
	require.Len(t, got[0].UnitBreakdown, 2)
	assert.True(t, got[0].UnitBreakdown[0].Share.Equal(d("600")))
	assert.True(t, got[1].UnitBreakdown[1].Share.Equal(d("300")))
}

func TestCalculateMonthlyAssignments(t *testing.T) {
	units := []models.Unit{unit("1", 1000), unit("2", 3000)}
	var monthly [12]decimal.Decimal
	for i := range monthly {
		monthly[i] = decimal.NewFromInt(int64(100 * (i + 1)))
	}

	got, err := CalculateMonthlyAssignments(monthly, units, TotalSquareFeet(units), d("0"))
	require.NoError(t, err)
	require.Len(t, got, 12)
	assert.Equal(t, "January", got[0].Month)
	assert.Equal(t, "December", got[11].Month)
	assert.True(t, got[0].Assessments[0].AnnualAssessment.Equal(d("25")))
	assert.True(t, got[11].Assessments[1].AnnualAssessment.Equal(d("900")))
}

func TestForBudget_UsesDefaultCommonArea(t *testing.T) {
	units := []models.Unit{unit("1", 1000), unit("2", 3000)}
	budget := &models.Budget{Name: "FY", FiscalYear: 2026}
	line := models.BudgetLine{CategoryName: "Operating"}
	for i := range line.Months {
		line.Months[i] = d("1000")
	}
	budget.Lines = []models.BudgetLine{line}

	got, v, err := ForBudget(budget, units)
	require.NoError(t, err)
	assert.True(t, v.IsValid)

	// 45% of 12000 = 5400 common (2700 each); 6600 private split 1:3.
	assert.True(t, got[0].AnnualAssessment.Equal(d("4350")), got[0].AnnualAssessment.String())
	assert.True(t, got[1].AnnualAssessment.Equal(d("7650")), got[1].AnnualAssessment.String())
}
