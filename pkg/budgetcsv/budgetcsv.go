// Package budgetcsv exports and imports budget line items as comma-delimited
// text. Only the subset of quoting the export produces is understood: comma
// delimiters, double-quoted fields and "" as an escaped quote. Fields never
// span lines.
package budgetcsv

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/shopspring/decimal"
)

// MinColumns is the category plus twelve months. The annual total column is optional.
const MinColumns = 13

// ImportRow is one parsed budget line. Total is the declared annual total, zero
// when the column is absent.
type ImportRow struct {
	Line     int                 `json:"line"`
	Category string              `json:"category"`
	Months   [12]decimal.Decimal `json:"months"`
	Total    decimal.Decimal     `json:"total"`
}

// MonthSum is the sum of the twelve months, the only amount that gets imported.
func (r *ImportRow) MonthSum() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range r.Months {
		sum = sum.Add(m)
	}
	return sum
}

func header() string {
	cols := make([]string, 0, MinColumns+1)
	cols = append(cols, "Category")
	cols = append(cols, models.MonthNames[:]...)
	cols = append(cols, "Annual Total")
	return strings.Join(cols, ",")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportBudgetCSV renders lines under two metadata lines and a blank line.
// Amounts are written with two decimals.
func ExportBudgetCSV(lines []models.BudgetLine, budgetName string, generated time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Budget: %s\n", budgetName)
	fmt.Fprintf(&b, "Generated: %s\n", generated.Format(time.DateOnly))
	b.WriteString("\n")
	b.WriteString(header())

	for i := range lines {
		b.WriteString("\n")
		b.WriteString(quote(lines[i].CategoryName))
		for _, m := range lines[i].Months {
			b.WriteString(",")
			b.WriteString(m.StringFixed(2))
		}
		b.WriteString(",")
		b.WriteString(lines[i].AnnualTotal().StringFixed(2))
	}
	return b.String()
}

func isHeader(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "category") && strings.Contains(lower, "january")
}

// ParseBudgetCSV finds the header row and parses every following non-blank
// line. Short rows are skipped; rows whose category cannot be tokenized are
// rejected. Unparseable amounts read as zero.
func ParseBudgetCSV(text string) ([]ImportRow, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	start := -1
	for i, line := range lines {
		if isHeader(line) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, newValidationError("header", "", ErrMissingHeader)
	}

	rows := []ImportRow{}
	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields, err := tokenize(line)
		if err != nil {
			continue
		}
		if len(fields) < MinColumns {
			continue
		}

		row := ImportRow{Line: i + 1, Category: strings.TrimSpace(fields[0])}
		for m := range row.Months {
			row.Months[m] = parseAmount(fields[m+1])
		}
		if len(fields) > MinColumns {
			row.Total = parseAmount(fields[MinColumns])
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, newValidationError("rows", "", ErrNoValidRows)
	}
	return rows, nil
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

type tokenState int

const (
	stateFieldStart tokenState = iota
	stateUnquoted
	stateQuoted
	stateQuoteInQuoted // saw a quote inside a quoted field: escape or closing quote
)

// tokenize splits one line into fields. Text after a closing quote is kept as
// part of the field, which matches how the export's output reads back.
func tokenize(line string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
		state  = stateFieldStart
	)
	emit := func() {
		fields = append(fields, cur.String())
		cur.Reset()
		state = stateFieldStart
	}

	for _, r := range line {
		switch state {
		case stateFieldStart, stateUnquoted:
			switch r {
			case ',':
				emit()
			case '"':
				state = stateQuoted
			default:
				cur.WriteRune(r)
				state = stateUnquoted
			}
		case stateQuoted:
			if r == '"' {
				state = stateQuoteInQuoted
			} else {
				cur.WriteRune(r)
			}
		case stateQuoteInQuoted:
			switch r {
			case '"':
				cur.WriteRune('"')
				state = stateQuoted
			case ',':
				emit()
			default:
				cur.WriteRune(r)
				state = stateUnquoted
			}
		}
	}
	if state == stateQuoted {
		return nil, errUnterminated
	}
	fields = append(fields, cur.String())
	return fields, nil
}

// ImportValidation collects blocking errors and non-blocking warnings.
type ImportValidation struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var totalTolerance = decimal.New(1, -2)

// ValidateBudgetImport checks parsed rows before they become budget lines.
// A declared total that disagrees with the months is only a warning; the sum of
// the months is what gets imported.
func ValidateBudgetImport(rows []ImportRow) ImportValidation {
	v := ImportValidation{Errors: []string{}, Warnings: []string{}}
	if len(rows) == 0 {
		v.Errors = append(v.Errors, ErrNoRows.Error())
		return v
	}

	for i := range rows {
		row := &rows[i]
		n := i + 1
		if row.Category == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Line %d: category name is required", n))
		}
		sum := row.MonthSum()
		if sum.IsZero() {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Line %d (%s): no monthly amounts found, the line will be created with zero values", n, row.Category))
		}
		if !row.Total.IsZero() && sum.Sub(row.Total).Abs().GreaterThan(totalTolerance) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Line %d (%s): monthly total (%s) does not match annual total (%s), the sum of months will be used",
				n, row.Category, sum.StringFixed(2), row.Total.StringFixed(2)))
		}
	}
	v.IsValid = len(v.Errors) == 0
	return v
}

// ToBudgetLines converts rows to budget lines. The annual total of each line is
// derived from its months; declared totals are dropped.
func ToBudgetLines(rows []ImportRow) []models.BudgetLine {
	lines := make([]models.BudgetLine, 0, len(rows))
	for i := range rows {
		lines = append(lines, models.BudgetLine{CategoryName: rows[i].Category, Months: rows[i].Months})
	}
	return lines
}
