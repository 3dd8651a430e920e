package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// MonthlyInstallment computes the fixed reducing-balance installment
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// where r = annualRatePct / 12 / 100 and n = tenureMonths. A zero rate
// degenerates to P / n. The result is rounded to 2 decimal places.
func MonthlyInstallment(principal, annualRatePct decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if tenureMonths <= 0 {
		return decimal.Zero, validationError("tenure must be positive, got %d", tenureMonths)
	}
	if principal.IsNegative() {
		return decimal.Zero, validationError("principal must not be negative, got %s", principal)
	}
	if annualRatePct.IsNegative() {
		return decimal.Zero, validationError("interest rate must not be negative, got %s", annualRatePct)
	}

	n := decimal.NewFromInt(int64(tenureMonths))
	if annualRatePct.IsZero() {
		return principal.Div(n).Round(2), nil
	}

	// float64 for the power term, decimal for the money.
	monthlyRate := annualRatePct.InexactFloat64() / 12.0 / 100.0
	factor := math.Pow(1+monthlyRate, float64(tenureMonths))
	if factor == 1 {
		// Rate too small to register in float64.
		return principal.Div(n).Round(2), nil
	}
	payment := principal.InexactFloat64() * monthlyRate * factor / (factor - 1)
	if math.IsInf(factor, 0) || math.IsNaN(payment) || math.IsInf(payment, 0) {
		return decimal.Zero, validationError("installment overflows for rate %s over %d months", annualRatePct, tenureMonths)
	}

	return decimal.NewFromFloat(payment).Round(2), nil
}
