package model

import "github.com/shopspring/decimal"

// MaxTenureMonths bounds requested tenures to 50 years.
const MaxTenureMonths = 600

// LoanApplication is a request to borrow, evaluated but never stored.
type LoanApplication struct {
	CustomerID   int64
	Amount       decimal.Decimal
	InterestRate decimal.Decimal // annual, percent
	Tenure       int             // months
}

// Validate rejects applications that no credit profile could approve.
func (a LoanApplication) Validate() error {
	if a.CustomerID <= 0 {
		return validationError("customer ID must be positive, got %d", a.CustomerID)
	}
	if a.Amount.LessThanOrEqual(decimal.Zero) {
		return validationError("loan amount must be positive, got %s", a.Amount)
	}
	if a.Tenure <= 0 {
		return validationError("tenure must be positive, got %d", a.Tenure)
	}
	if a.Tenure > MaxTenureMonths {
		return validationError("tenure must not exceed %d months, got %d", MaxTenureMonths, a.Tenure)
	}
	if a.InterestRate.IsNegative() {
		return validationError("interest rate must not be negative, got %s", a.InterestRate)
	}
	return nil
}
