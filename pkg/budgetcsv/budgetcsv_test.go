package budgetcsv

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budgetLine(category string, monthly ...string) models.BudgetLine {
	l := models.BudgetLine{CategoryName: category}
	for i := range l.Months {
		l.Months[i] = decimal.RequireFromString(monthly[i%len(monthly)])
	}
	return l
}

func TestExportBudgetCSV(t *testing.T) {
	generated := time.Date(2026, 2, 3, 15, 4, 5, 0, time.UTC)
	out := ExportBudgetCSV([]models.BudgetLine{budgetLine("Water, Sewer", "100")}, "FY26 Operating", generated)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Budget: FY26 Operating", lines[0])
	assert.Equal(t, "Generated: 2026-02-03", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "Category,January,February,March,April,May,June,July,August,September,October,November,December,Annual Total", lines[3])
	assert.Equal(t, `"Water, Sewer",100.00,100.00,100.00,100.00,100.00,100.00,100.00,100.00,100.00,100.00,100.00,100.00,1200.00`, lines[4])
}

func TestRoundTrip(t *testing.T) {
	lines := []models.BudgetLine{
		budgetLine("Insurance", "1250.5", "0"),
		budgetLine(`Landscaping, "Premium" Tier`, "333.33", "333.34", "333.33"),
		budgetLine("Reserves", "0.07"),
	}

	rows, err := ParseBudgetCSV(ExportBudgetCSV(lines, "X", time.Now()))
	require.NoError(t, err)
	require.Len(t, rows, len(lines))

	for i, row := range rows {
		assert.Equal(t, lines[i].CategoryName, row.Category)
		for m := range row.Months {
			assert.True(t, lines[i].Months[m].Round(2).Equal(row.Months[m]), "%s month %d: %s", row.Category, m, row.Months[m])
		}
		assert.True(t, row.Total.Equal(lines[i].AnnualTotal()))
	}

	v := ValidateBudgetImport(rows)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Warnings)
}

func TestParseBudgetCSV(t *testing.T) {
	text := strings.Join([]string{
		"Some preamble",
		"CATEGORY,January,Feb,Mar,Apr,May,Jun,Jul,Aug,Sep,Oct,Nov,Dec",
		"Snow Removal,10,20,30,40,50,60,70,80,90,100,110,abc",
		"",
		"Too,Short,1,2",
		`"Unterminated,1,2,3,4,5,6,7,8,9,10,11,12`,
		"  Pool  ,1,1,1,1,1,1,1,1,1,1,1,1\r",
	}, "\n")

	rows, err := ParseBudgetCSV(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Snow Removal", rows[0].Category)
	assert.True(t, rows[0].Months[11].IsZero(), "unparseable month reads as zero")
	assert.True(t, rows[0].Total.IsZero(), "no total column")
	assert.True(t, rows[0].MonthSum().Equal(decimal.NewFromInt(660)))

	assert.Equal(t, "Pool", rows[1].Category)
	assert.True(t, rows[1].Months[11].Equal(decimal.NewFromInt(1)))
}

func TestParseBudgetCSV_Errors(t *testing.T) {
	_, err := ParseBudgetCSV("Budget: X\n\nName,Amount\nfoo,1")
	assert.ErrorIs(t, err, ErrMissingHeader)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "header", verr.Field)

	_, err = ParseBudgetCSV("Category,January\nonly,two")
	assert.ErrorIs(t, err, ErrNoValidRows)

	_, err = ParseBudgetCSV("")
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{`,,`, []string{"", "", ""}},
		{`""`, []string{""}},
	}
	for _, tt := range tests {
		got, err := tokenize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := tokenize(`"open,1`)
	assert.Error(t, err)
}

func TestValidateBudgetImport(t *testing.T) {
	mismatch := ImportRow{Category: "Gas", Total: decimal.NewFromInt(1300)}
	for i := range mismatch.Months {
		mismatch.Months[i] = decimal.NewFromInt(100)
	}
	withinTolerance := ImportRow{Category: "Power", Total: decimal.RequireFromString("1200.01")}
	for i := range withinTolerance.Months {
		withinTolerance.Months[i] = decimal.NewFromInt(100)
	}
	zero := ImportRow{Category: "Misc"}
	unnamed := ImportRow{}
	unnamed.Months[0] = decimal.NewFromInt(5)

	v := ValidateBudgetImport([]ImportRow{mismatch, withinTolerance, zero})
	assert.True(t, v.IsValid)
	require.Len(t, v.Warnings, 2)
	assert.Contains(t, v.Warnings[0], "1200.00")
	assert.Contains(t, v.Warnings[0], "1300.00")
	assert.Contains(t, v.Warnings[1], "Misc")

	lines := ToBudgetLines([]ImportRow{mismatch})
	assert.True(t, lines[0].AnnualTotal().Equal(decimal.NewFromInt(1200)))

	v = ValidateBudgetImport([]ImportRow{unnamed})
	assert.False(t, v.IsValid)
	assert.Len(t, v.Errors, 1)

	v = ValidateBudgetImport(nil)
	assert.False(t, v.IsValid)
	assert.Equal(t, []string{ErrNoRows.Error()}, v.Errors)
}
