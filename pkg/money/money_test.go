package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSafeDivide(t *testing.T) {
	tests := []struct {
		name        string
		numerator   string
		denominator string
		fallback    string
		want        string
	}{
		{"regular division", "10", "4", "0", "2.5"},
		{"zero denominator uses fallback", "10", "0", "0", "0"},
		{"zero denominator custom fallback", "10", "0", "1", "1"},
		{"zero numerator", "0", "7", "3", "0"},
		{"negative values", "-9", "3", "0", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeDivide(d(tt.numerator), d(tt.denominator), d(tt.fallback))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"},
		{"-1.004", "-1"},
		{"100", "100"},
		{"33.333333", "33.33"},
	}

	for _, tt := range tests {
		got := RoundCents(d(tt.in))
		assert.True(t, got.Equal(d(tt.want)), "RoundCents(%s) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(d("50"), d("1000")).Equal(d("5")))
	assert.True(t, Percent(d("50"), decimal.Zero).IsZero())
}

func TestPercentOf(t *testing.T) {
	assert.True(t, PercentOf(d("12000"), d("45")).Equal(d("5400")))
	assert.True(t, PercentOf(d("100"), d("55")).Equal(d("55")))
	assert.True(t, PercentOf(d("100"), decimal.Zero).IsZero())
}

func TestSumAndMax(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(d("1.10"), d("2.20"), d("3.30")).Equal(d("6.6")))
	assert.True(t, Max(d("-1"), decimal.Zero).IsZero())
	assert.True(t, Max(d("4"), d("3")).Equal(d("4")))
}
