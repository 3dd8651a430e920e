package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/domain/model"
)

// FixedTime is a deterministic instant for fixtures.
var FixedTime = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

// Customer builds a stored customer whose limit follows the registration rule.
func Customer(id int64, monthlyIncome int64) model.Customer {
	income := decimal.NewFromInt(monthlyIncome)
	return model.ReconstructCustomer(
		id, "Test", "Customer", 30, "9000000000",
		income, model.ApprovedLimitFor(income), decimal.Zero,
		FixedTime, FixedTime,
	)
}

// Loan builds a stored loan that started on start and runs for tenure months.
func Loan(id, customerID int64, principal, rate string, tenure, paidOnTime int, start time.Time) model.Loan {
	p := decimal.RequireFromString(principal)
	r := decimal.RequireFromString(rate)
	emi, err := model.MonthlyInstallment(p, r, tenure)
	if err != nil {
		panic(err)
	}
	start = model.DateOf(start)
	return model.ReconstructLoan(
		id, customerID, p, tenure, r, emi, paidOnTime,
		start, start.AddDate(0, tenure, 0), FixedTime,
	)
}
