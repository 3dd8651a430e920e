package event

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	TypeCustomerRegistered = "origination.customer.registered"
	TypeLoanCreated        = "origination.loan.created"
	TypeLoanRejected       = "origination.loan.rejected"
	TypeImportFinished     = "origination.import.finished"
)

// ---------------------------------------------------------------------------
// Customer Events
// ---------------------------------------------------------------------------

// CustomerRegistered is raised when a customer registers through the API.
type CustomerRegistered struct {
	events.BaseEvent
	CustomerID    int64           `json:"customer_id"`
	Name          string          `json:"name"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	ApprovedLimit decimal.Decimal `json:"approved_limit"`
}

func NewCustomerRegistered(customerID int64, name string, income, limit decimal.Decimal) CustomerRegistered {
	return CustomerRegistered{
		BaseEvent:     events.NewBaseEvent(TypeCustomerRegistered, strconv.FormatInt(customerID, 10), "Customer"),
		CustomerID:    customerID,
		Name:          name,
		MonthlyIncome: income,
		ApprovedLimit: limit,
	}
}

// ---------------------------------------------------------------------------
// Loan Events
// ---------------------------------------------------------------------------

// LoanCreated is raised when an approved loan is persisted.
type LoanCreated struct {
	events.BaseEvent
	LoanID             int64           `json:"loan_id"`
	CustomerID         int64           `json:"customer_id"`
	Amount             decimal.Decimal `json:"loan_amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	Tenure             int             `json:"tenure"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	CreditScore        decimal.Decimal `json:"credit_score"`
}

func NewLoanCreated(
	loanID, customerID int64,
	amount, rate decimal.Decimal,
	tenure int,
	installment, score decimal.Decimal,
) LoanCreated {
	return LoanCreated{
		BaseEvent:          events.NewBaseEvent(TypeLoanCreated, strconv.FormatInt(loanID, 10), "Loan"),
		LoanID:             loanID,
		CustomerID:         customerID,
		Amount:             amount,
		InterestRate:       rate,
		Tenure:             tenure,
		MonthlyInstallment: installment,
		CreditScore:        score,
	}
}

// LoanRejected is raised when loan creation is refused.
type LoanRejected struct {
	events.BaseEvent
	CustomerID  int64           `json:"customer_id"`
	Amount      decimal.Decimal `json:"loan_amount"`
	Reason      string          `json:"reason"`
	CreditScore decimal.Decimal `json:"credit_score"`
}

func NewLoanRejected(customerID int64, amount decimal.Decimal, reason string, score decimal.Decimal) LoanRejected {
	return LoanRejected{
		BaseEvent:   events.NewBaseEvent(TypeLoanRejected, strconv.FormatInt(customerID, 10), "Customer"),
		CustomerID:  customerID,
		Amount:      amount,
		Reason:      reason,
		CreditScore: score,
	}
}

// ---------------------------------------------------------------------------
// Import Events
// ---------------------------------------------------------------------------

// ImportFinished is raised when a background import reaches a terminal state.
type ImportFinished struct {
	events.BaseEvent
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	Failure          string `json:"failure,omitempty"`
	CustomersCreated int    `json:"customers_created"`
	CustomersUpdated int    `json:"customers_updated"`
	LoansCreated     int    `json:"loans_created"`
	LoansDeleted     int    `json:"loans_deleted"`
}

func NewImportFinished(jobID, status, failure string, customersCreated, customersUpdated, loansCreated, loansDeleted int) ImportFinished {
	return ImportFinished{
		BaseEvent:        events.NewBaseEvent(TypeImportFinished, jobID, "ImportJob"),
		JobID:            jobID,
		Status:           status,
		Failure:          failure,
		CustomersCreated: customersCreated,
		CustomersUpdated: customersUpdated,
		LoansCreated:     loansCreated,
		LoansDeleted:     loansDeleted,
	}
}
