// Package money holds the arithmetic policy shared by every calculation in the
// engine: how division by zero resolves and how amounts are rounded to cents.
package money

import "github.com/shopspring/decimal"

var (
	// Hundred converts between ratios and percentages.
	Hundred = decimal.NewFromInt(100)
	// MonthsPerYear is the divisor for monthly figures.
	MonthsPerYear = decimal.NewFromInt(12)
	// Cent is the smallest currency step.
	Cent = decimal.New(1, -2)
)

// SafeDivide returns numerator/denominator, or fallback when the denominator is
// zero. Division by zero never panics anywhere in the engine.
func SafeDivide(numerator, denominator, fallback decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return fallback
	}
	return numerator.Div(denominator)
}

// RoundCents rounds to two decimal places, half away from zero.
func RoundCents(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

// Percent returns part as a percentage of whole, 0 when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	return SafeDivide(part, whole, decimal.Zero).Mul(Hundred)
}

// PercentOf returns pct percent of amount.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return SafeDivide(amount.Mul(pct), Hundred, decimal.Zero)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
