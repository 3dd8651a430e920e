package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation marks input that can never succeed. Callers match it with errors.Is.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// approvedLimitMultiplier is the number of months of income granted as credit.
const approvedLimitMultiplier = 36

// ApprovedLimitFor returns 36 months of income rounded half-to-even to the
// nearest 100,000.
func ApprovedLimitFor(monthlyIncome decimal.Decimal) decimal.Decimal {
	return monthlyIncome.Mul(decimal.NewFromInt(approvedLimitMultiplier)).RoundBank(-5)
}

// ---------------------------------------------------------------------------
// Customer aggregate
// ---------------------------------------------------------------------------

// Customer is an immutable aggregate. Every mutation returns a new copy.
// An ID of zero means the customer has not been persisted yet.
type Customer struct {
	id            int64
	firstName     string
	lastName      string
	age           int
	phoneNumber   string
	monthlyIncome decimal.Decimal
	approvedLimit decimal.Decimal
	currentDebt   decimal.Decimal
	createdAt     time.Time
	updatedAt     time.Time
}

// NewCustomer registers a brand-new customer with a derived approved limit and no debt.
func NewCustomer(
	firstName, lastName string,
	age int,
	phoneNumber string,
	monthlyIncome decimal.Decimal,
	now time.Time,
) (Customer, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)

	if firstName == "" {
		return Customer{}, validationError("first name is required")
	}
	if lastName == "" {
		return Customer{}, validationError("last name is required")
	}
	if age <= 0 {
		return Customer{}, validationError("age must be positive, got %d", age)
	}
	if phoneNumber == "" {
		return Customer{}, validationError("phone number is required")
	}
	if monthlyIncome.LessThanOrEqual(decimal.Zero) {
		return Customer{}, validationError("monthly income must be positive, got %s", monthlyIncome)
	}

	return Customer{
		firstName:     firstName,
		lastName:      lastName,
		age:           age,
		phoneNumber:   phoneNumber,
		monthlyIncome: monthlyIncome,
		approvedLimit: ApprovedLimitFor(monthlyIncome),
		currentDebt:   decimal.Zero,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructCustomer rebuilds a customer from persistence or an import row
// without applying registration rules.
func ReconstructCustomer(
	id int64,
	firstName, lastName string,
	age int,
	phoneNumber string,
	monthlyIncome, approvedLimit, currentDebt decimal.Decimal,
	createdAt, updatedAt time.Time,
) Customer {
	return Customer{
		id:            id,
		firstName:     firstName,
		lastName:      lastName,
		age:           age,
		phoneNumber:   phoneNumber,
		monthlyIncome: monthlyIncome,
		approvedLimit: approvedLimit,
		currentDebt:   currentDebt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// WithID returns a copy carrying the identifier assigned by the store.
func (c Customer) WithID(id int64) Customer {
	c.id = id
	return c
}

// AddDebt returns a copy whose current debt is increased by amount.
func (c Customer) AddDebt(amount decimal.Decimal, now time.Time) Customer {
	c.currentDebt = c.currentDebt.Add(amount)
	c.updatedAt = now
	return c
}

// WithCurrentDebt returns a copy whose current debt is replaced.
func (c Customer) WithCurrentDebt(debt decimal.Decimal, now time.Time) Customer {
	c.currentDebt = debt
	c.updatedAt = now
	return c
}

// Accessors

func (c Customer) ID() int64                      { return c.id }
func (c Customer) FirstName() string              { return c.firstName }
func (c Customer) LastName() string               { return c.lastName }
func (c Customer) Age() int                       { return c.age }
func (c Customer) PhoneNumber() string            { return c.phoneNumber }
func (c Customer) MonthlyIncome() decimal.Decimal { return c.monthlyIncome }
func (c Customer) ApprovedLimit() decimal.Decimal { return c.approvedLimit }
func (c Customer) CurrentDebt() decimal.Decimal   { return c.currentDebt }
func (c Customer) CreatedAt() time.Time           { return c.createdAt }
func (c Customer) UpdatedAt() time.Time           { return c.updatedAt }

// FullName joins first and last name with a single space.
func (c Customer) FullName() string {
	return c.firstName + " " + c.lastName
}
