package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundCurrency rounds v half away from zero to cents.
func RoundCurrency(v float64) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return rounded
}

// FormatBRL renders v as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(v float64) string {
	return FormatBRLPlaces(v, 2)
}

// FormatBRLPlaces is FormatBRL with a chosen number of decimal places. Unit
// prices of bulk ingredients need more than cents.
func FormatBRLPlaces(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(places)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	if fracPart == "" {
		return sign + "R$ " + grouped.String()
	}
	return sign + "R$ " + grouped.String() + "," + fracPart
}
