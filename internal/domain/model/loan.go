package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Loan aggregate
// ---------------------------------------------------------------------------

// Loan is a disbursed loan held by one customer. Start and end dates carry no
// time-of-day component. An ID of zero means the loan has not been persisted yet.
type Loan struct {
	id               int64
	customerID       int64
	principal        decimal.Decimal
	tenure           int
	interestRate     decimal.Decimal
	monthlyRepayment decimal.Decimal
	emisPaidOnTime   int
	startDate        time.Time
	endDate          time.Time
	createdAt        time.Time
}

// NewLoan creates a loan starting on the given day and ending tenure months later.
// Nothing has been repaid yet.
func NewLoan(
	customerID int64,
	principal decimal.Decimal,
	tenure int,
	interestRate decimal.Decimal,
	monthlyRepayment decimal.Decimal,
	startDate time.Time,
	now time.Time,
) (Loan, error) {
	if customerID <= 0 {
		return Loan{}, validationError("customer ID must be positive, got %d", customerID)
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return Loan{}, validationError("loan amount must be positive, got %s", principal)
	}
	if tenure <= 0 {
		return Loan{}, validationError("tenure must be positive, got %d", tenure)
	}
	if interestRate.IsNegative() {
		return Loan{}, validationError("interest rate must not be negative, got %s", interestRate)
	}

	start := DateOf(startDate)
	return Loan{
		customerID:       customerID,
		principal:        principal,
		tenure:           tenure,
		interestRate:     interestRate,
		monthlyRepayment: monthlyRepayment,
		startDate:        start,
		endDate:          start.AddDate(0, tenure, 0),
		createdAt:        now,
	}, nil
}

// ReconstructLoan rebuilds a loan from persistence or an import row.
func ReconstructLoan(
	id, customerID int64,
	principal decimal.Decimal,
	tenure int,
	interestRate, monthlyRepayment decimal.Decimal,
	emisPaidOnTime int,
	startDate, endDate time.Time,
	createdAt time.Time,
) Loan {
	return Loan{
		id:               id,
		customerID:       customerID,
		principal:        principal,
		tenure:           tenure,
		interestRate:     interestRate,
		monthlyRepayment: monthlyRepayment,
		emisPaidOnTime:   emisPaidOnTime,
		startDate:        DateOf(startDate),
		endDate:          DateOf(endDate),
		createdAt:        createdAt,
	}
}

// WithID returns a copy carrying the identifier assigned by the store.
func (l Loan) WithID(id int64) Loan {
	l.id = id
	return l
}

// IsActive reports whether asOf falls within [start, end], compared by calendar day.
func (l Loan) IsActive(asOf time.Time) bool {
	day := DateOf(asOf)
	return !day.Before(l.startDate) && !day.After(l.endDate)
}

// StartedIn reports whether the loan was approved in the given calendar year.
func (l Loan) StartedIn(year int) bool {
	return l.startDate.Year() == year
}

// RepaymentsLeft is the number of installments not yet paid on time, never negative.
func (l Loan) RepaymentsLeft() int {
	if left := l.tenure - l.emisPaidOnTime; left > 0 {
		return left
	}
	return 0
}

// OutstandingDebt is the sum of installments still owed.
func (l Loan) OutstandingDebt() decimal.Decimal {
	return l.monthlyRepayment.Mul(decimal.NewFromInt(int64(l.RepaymentsLeft())))
}

// Accessors

func (l Loan) ID() int64                         { return l.id }
func (l Loan) CustomerID() int64                 { return l.customerID }
func (l Loan) Principal() decimal.Decimal        { return l.principal }
func (l Loan) Tenure() int                       { return l.tenure }
func (l Loan) InterestRate() decimal.Decimal     { return l.interestRate }
func (l Loan) MonthlyRepayment() decimal.Decimal { return l.monthlyRepayment }
func (l Loan) EMIsPaidOnTime() int               { return l.emisPaidOnTime }
func (l Loan) StartDate() time.Time              { return l.startDate }
func (l Loan) EndDate() time.Time                { return l.endDate }
func (l Loan) CreatedAt() time.Time              { return l.createdAt }

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
