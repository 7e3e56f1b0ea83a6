package rules

import "github.com/shopspring/decimal"

// FlatInstallment computes a monthly payment with flat annual interest on
// the financed principal, rounded to whole rupiah. Returns 0 for
// non-positive principal or tenor.
func FlatInstallment(price, downPayment float64, tenorMonths int, annualRatePercent float64) float64 {
	if tenorMonths <= 0 {
		return 0
	}
	principal := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(downPayment))
	if !principal.IsPositive() {
		return 0
	}

	years := decimal.NewFromInt(int64(tenorMonths)).Div(decimal.NewFromInt(12))
	interest := principal.
		Mul(decimal.NewFromFloat(annualRatePercent)).
		Div(decimal.NewFromInt(100)).
		Mul(years)

	return principal.Add(interest).
		Div(decimal.NewFromInt(int64(tenorMonths))).
		Round(0).
		InexactFloat64()
}
