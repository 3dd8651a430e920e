package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// RegisterCustomerRequest carries the data needed to register a customer.
type RegisterCustomerRequest struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	PhoneNumber   string          `json:"phone_number"`
}

// EligibilityRequest describes a prospective loan.
type EligibilityRequest struct {
	CustomerID   int64           `json:"customer_id"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Tenure       int             `json:"tenure"`
}

// CreateLoanRequest carries the same terms as an eligibility check.
type CreateLoanRequest = EligibilityRequest

// ViewLoanRequest identifies a loan to retrieve.
type ViewLoanRequest struct {
	LoanID int64 `json:"loan_id"`
}

// ViewCustomerLoansRequest identifies the customer whose loans are listed.
type ViewCustomerLoansRequest struct {
	CustomerID int64 `json:"customer_id"`
}

// ScheduleImportRequest asks for a background import of server-side workbooks.
type ScheduleImportRequest struct {
	Kind         string `json:"kind"`
	CustomerFile string `json:"customer_file"`
	LoanFile     string `json:"loan_file"`
}

// GetImportJobRequest identifies an import job.
type GetImportJobRequest struct {
	JobID string `json:"job_id"`
}

// RunImportRequest is the message a worker receives from the import queue.
type RunImportRequest struct {
	JobID string `json:"job_id"`
}

// IngestFileRequest names one workbook to ingest synchronously.
type IngestFileRequest struct {
	Path string `json:"path"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// CustomerResponse is the external representation of a registered customer.
type CustomerResponse struct {
	CustomerID    int64           `json:"customer_id"`
	Name          string          `json:"name"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	ApprovedLimit decimal.Decimal `json:"approved_limit"`
	PhoneNumber   string          `json:"phone_number"`
}

// EligibilityResponse is the outcome of an eligibility check.
type EligibilityResponse struct {
	CustomerID            int64           `json:"customer_id"`
	Approval              bool            `json:"approval"`
	InterestRate          decimal.Decimal `json:"interest_rate"`
	CorrectedInterestRate decimal.Decimal `json:"corrected_interest_rate"`
	Tenure                int             `json:"tenure"`
	MonthlyInstallment    decimal.Decimal `json:"monthly_installment"`
	ApprovedLoanAmount    decimal.Decimal `json:"approved_loan_amount"`
	CreditScore           decimal.Decimal `json:"credit_score"`
	ReasonCode            string          `json:"reason_code"`
	Reason                string          `json:"reason,omitempty"`
}

// CreateLoanResponse reports whether a loan was created. LoanID is nil when it was not.
type CreateLoanResponse struct {
	LoanID             *int64          `json:"loan_id"`
	CustomerID         int64           `json:"customer_id"`
	LoanApproved       bool            `json:"loan_approved"`
	Message            string          `json:"message"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	// ApprovedLoanAmount is the booked principal, below the requested amount
	// when capped to the remaining limit. Zero when not approved.
	ApprovedLoanAmount decimal.Decimal `json:"approved_loan_amount"`
}

// CustomerSummary is the customer block embedded in loan views.
type CustomerSummary struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         int    `json:"age"`
}

// LoanDetailResponse is a single loan with its customer.
type LoanDetailResponse struct {
	LoanID             int64           `json:"loan_id"`
	Customer           CustomerSummary `json:"customer"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Tenure             int             `json:"tenure"`
}

// CustomerLoanItem is one entry of a customer's loan list.
type CustomerLoanItem struct {
	LoanID             int64           `json:"loan_id"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	RepaymentsLeft     int             `json:"repayments_left"`
}

// ImportJobResponse is the external representation of an import job.
type ImportJobResponse struct {
	JobID        string            `json:"job_id"`
	Kind         string            `json:"kind"`
	Status       string            `json:"status"`
	CustomerFile string            `json:"customer_file,omitempty"`
	LoanFile     string            `json:"loan_file,omitempty"`
	Stats        model.ImportStats `json:"stats"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
}

// LoanSample is a compact loan row used by data status reports.
type LoanSample struct {
	LoanID     int64           `json:"loan_id"`
	CustomerID int64           `json:"customer_id"`
	LoanAmount decimal.Decimal `json:"loan_amount"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
}

// DataStatusResponse summarises what is stored.
type DataStatusResponse struct {
	CustomerCount   int64             `json:"customer_count"`
	LoanCount       int64             `json:"loan_count"`
	SampleCustomers []CustomerSummary `json:"sample_customers"`
	SampleLoans     []LoanSample      `json:"sample_loans"`
}
