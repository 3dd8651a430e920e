package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/application/usecase"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/pkg/auth"
)

var _ OriginationServiceServer = (*Handler)(nil)

// UseCases groups the operations exposed over gRPC.
type UseCases struct {
	Register      usecase.Executor[dto.RegisterCustomerRequest, dto.CustomerResponse]
	Eligibility   usecase.Executor[dto.EligibilityRequest, dto.EligibilityResponse]
	CreateLoan    usecase.Executor[dto.CreateLoanRequest, dto.CreateLoanResponse]
	ViewLoan      usecase.Executor[dto.ViewLoanRequest, dto.LoanDetailResponse]
	CustomerLoans usecase.Executor[dto.ViewCustomerLoansRequest, []dto.CustomerLoanItem]
}

// Handler implements OriginationServiceServer.
type Handler struct {
	UnimplementedOriginationServiceServer
	uc     UseCases
	logger *slog.Logger
}

// NewHandler creates the gRPC origination handler.
func NewHandler(uc UseCases, logger *slog.Logger) *Handler {
	return &Handler{uc: uc, logger: logger}
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// Amounts and rates are decimal strings so no precision is lost in transit.

// RegisterCustomerRequest registers a new customer.
type RegisterCustomerRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Age           int32  `json:"age"`
	MonthlyIncome string `json:"monthly_income"`
	PhoneNumber   string `json:"phone_number"`
}

// CustomerResponse is a registered customer.
type CustomerResponse struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	Age           int32  `json:"age"`
	MonthlyIncome string `json:"monthly_income"`
	ApprovedLimit string `json:"approved_limit"`
	PhoneNumber   string `json:"phone_number"`
}

// CheckEligibilityRequest describes a prospective loan.
type CheckEligibilityRequest struct {
	CustomerID   int64  `json:"customer_id"`
	LoanAmount   string `json:"loan_amount"`
	InterestRate string `json:"interest_rate"`
	Tenure       int32  `json:"tenure"`
}

// EligibilityResponse is the outcome of an eligibility check.
type EligibilityResponse struct {
	CustomerID            int64  `json:"customer_id"`
	Approval              bool   `json:"approval"`
	InterestRate          string `json:"interest_rate"`
	CorrectedInterestRate string `json:"corrected_interest_rate"`
	Tenure                int32  `json:"tenure"`
	MonthlyInstallment    string `json:"monthly_installment"`
	ApprovedLoanAmount    string `json:"approved_loan_amount"`
	CreditScore           string `json:"credit_score"`
	ReasonCode            string `json:"reason_code"`
	Reason                string `json:"reason,omitempty"`
}

// CreateLoanRequest carries the same terms as CheckEligibilityRequest.
type CreateLoanRequest struct {
	CustomerID   int64  `json:"customer_id"`
	LoanAmount   string `json:"loan_amount"`
	InterestRate string `json:"interest_rate"`
	Tenure       int32  `json:"tenure"`
}

// CreateLoanResponse reports whether a loan was booked. LoanID is zero when it was not.
type CreateLoanResponse struct {
	LoanID             int64  `json:"loan_id"`
	CustomerID         int64  `json:"customer_id"`
	LoanApproved       bool   `json:"loan_approved"`
	Message            string `json:"message"`
	MonthlyInstallment string `json:"monthly_installment"`
	ApprovedLoanAmount string `json:"approved_loan_amount"`
}

// ViewLoanRequest identifies a loan.
type ViewLoanRequest struct {
	LoanID int64 `json:"loan_id"`
}

// CustomerSummary is the customer block of a loan view.
type CustomerSummary struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         int32  `json:"age"`
}

// LoanDetailResponse is a loan with its customer.
type LoanDetailResponse struct {
	LoanID             int64            `json:"loan_id"`
	Customer           *CustomerSummary `json:"customer"`
	LoanAmount         string           `json:"loan_amount"`
	InterestRate       string           `json:"interest_rate"`
	MonthlyInstallment string           `json:"monthly_installment"`
	Tenure             int32            `json:"tenure"`
}

// ViewCustomerLoansRequest identifies a customer.
type ViewCustomerLoansRequest struct {
	CustomerID int64 `json:"customer_id"`
}

// CustomerLoan is one entry of a customer's loan list.
type CustomerLoan struct {
	LoanID             int64  `json:"loan_id"`
	LoanAmount         string `json:"loan_amount"`
	InterestRate       string `json:"interest_rate"`
	MonthlyInstallment string `json:"monthly_installment"`
	RepaymentsLeft     int32  `json:"repayments_left"`
}

// ViewCustomerLoansResponse lists a customer's loans.
type ViewCustomerLoansResponse struct {
	Loans []*CustomerLoan `json:"loans"`
}

// ---------------------------------------------------------------------------
// RPCs
// ---------------------------------------------------------------------------

// RegisterCustomer creates a customer with a derived credit limit.
func (h *Handler) RegisterCustomer(ctx context.Context, req *RegisterCustomerRequest) (*CustomerResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	income, err := parseDecimal("monthly_income", req.MonthlyIncome)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Register.Execute(ctx, dto.RegisterCustomerRequest{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Age:           int(req.Age),
		MonthlyIncome: income,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "RegisterCustomer", err)
	}

	return &CustomerResponse{
		CustomerID:    result.CustomerID,
		Name:          result.Name,
		Age:           int32(result.Age), //nolint:gosec // ages are small
		MonthlyIncome: result.MonthlyIncome.String(),
		ApprovedLimit: result.ApprovedLimit.String(),
		PhoneNumber:   result.PhoneNumber,
	}, nil
}

// CheckEligibility evaluates a prospective loan without booking it.
func (h *Handler) CheckEligibility(ctx context.Context, req *CheckEligibilityRequest) (*EligibilityResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAuditor); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	terms, err := loanTerms(req.CustomerID, req.LoanAmount, req.InterestRate, req.Tenure)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Eligibility.Execute(ctx, terms)
	if err != nil {
		return nil, h.toStatus(ctx, "CheckEligibility", err)
	}

	return &EligibilityResponse{
		CustomerID:            result.CustomerID,
		Approval:              result.Approval,
		InterestRate:          result.InterestRate.String(),
		CorrectedInterestRate: result.CorrectedInterestRate.String(),
		Tenure:                int32(result.Tenure), //nolint:gosec // validated on input
		MonthlyInstallment:    result.MonthlyInstallment.String(),
		ApprovedLoanAmount:    result.ApprovedLoanAmount.String(),
		CreditScore:           result.CreditScore.String(),
		ReasonCode:            result.ReasonCode,
		Reason:                result.Reason,
	}, nil
}

// CreateLoan books a loan when the application is approved. A rejection is
// a successful call with LoanApproved false.
func (h *Handler) CreateLoan(ctx context.Context, req *CreateLoanRequest) (*CreateLoanResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	terms, err := loanTerms(req.CustomerID, req.LoanAmount, req.InterestRate, req.Tenure)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.CreateLoan.Execute(ctx, terms)
	if err != nil {
		return nil, h.toStatus(ctx, "CreateLoan", err)
	}

	resp := &CreateLoanResponse{
		CustomerID:         result.CustomerID,
		LoanApproved:       result.LoanApproved,
		Message:            result.Message,
		MonthlyInstallment: result.MonthlyInstallment.String(),
		ApprovedLoanAmount: result.ApprovedLoanAmount.String(),
	}
	if result.LoanID != nil {
		resp.LoanID = *result.LoanID
	}
	return resp, nil
}

// ViewLoan returns a loan with its customer.
func (h *Handler) ViewLoan(ctx context.Context, req *ViewLoanRequest) (*LoanDetailResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAuditor); err != nil {
		return nil, err
	}
	if req == nil || req.LoanID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "loan_id is required")
	}

	result, err := h.uc.ViewLoan.Execute(ctx, dto.ViewLoanRequest{LoanID: req.LoanID})
	if err != nil {
		return nil, h.toStatus(ctx, "ViewLoan", err)
	}

	return &LoanDetailResponse{
		LoanID: result.LoanID,
		Customer: &CustomerSummary{
			ID:          result.Customer.ID,
			FirstName:   result.Customer.FirstName,
			LastName:    result.Customer.LastName,
			PhoneNumber: result.Customer.PhoneNumber,
			Age:         int32(result.Customer.Age), //nolint:gosec // ages are small
		},
		LoanAmount:         result.LoanAmount.String(),
		InterestRate:       result.InterestRate.String(),
		MonthlyInstallment: result.MonthlyInstallment.String(),
		Tenure:             int32(result.Tenure), //nolint:gosec // tenures are small
	}, nil
}

// ViewCustomerLoans lists a customer's loans.
func (h *Handler) ViewCustomerLoans(ctx context.Context, req *ViewCustomerLoansRequest) (*ViewCustomerLoansResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAuditor); err != nil {
		return nil, err
	}
	if req == nil || req.CustomerID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}

	items, err := h.uc.CustomerLoans.Execute(ctx, dto.ViewCustomerLoansRequest{CustomerID: req.CustomerID})
	if err != nil {
		return nil, h.toStatus(ctx, "ViewCustomerLoans", err)
	}

	loans := make([]*CustomerLoan, 0, len(items))
	for _, it := range items {
		loans = append(loans, &CustomerLoan{
			LoanID:             it.LoanID,
			LoanAmount:         it.LoanAmount.String(),
			InterestRate:       it.InterestRate.String(),
			MonthlyInstallment: it.MonthlyInstallment.String(),
			RepaymentsLeft:     int32(it.RepaymentsLeft), //nolint:gosec // bounded by tenure
		})
	}
	return &ViewCustomerLoansResponse{Loans: loans}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// requireRole checks that the caller has at least one of the given roles.
func requireRole(ctx context.Context, roles ...string) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "authentication required")
	}
	if !claims.HasAnyRole(roles...) {
		return status.Error(codes.PermissionDenied, "insufficient permissions")
	}
	return nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return d, nil
}

// loanTerms applies the same required-field rule as the HTTP API: a zero ID,
// amount or tenure counts as missing, while the rate is missing only when empty.
func loanTerms(customerID int64, amount, rate string, tenure int32) (dto.EligibilityRequest, error) {
	loanAmount, err := parseDecimal("loan_amount", amount)
	if err != nil {
		return dto.EligibilityRequest{}, err
	}
	interestRate, err := parseDecimal("interest_rate", rate)
	if err != nil {
		return dto.EligibilityRequest{}, err
	}
	if customerID == 0 || loanAmount.IsZero() || rate == "" || tenure == 0 {
		return dto.EligibilityRequest{}, status.Error(codes.InvalidArgument, "Missing required fields")
	}
	return dto.EligibilityRequest{
		CustomerID:   customerID,
		LoanAmount:   loanAmount,
		InterestRate: interestRate,
		Tenure:       int(tenure),
	}, nil
}

func (h *Handler) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, port.ErrCustomerNotFound):
		return status.Error(codes.NotFound, "Customer not found")
	case errors.Is(err, port.ErrLoanNotFound):
		return status.Error(codes.NotFound, "Loan not found")
	case errors.Is(err, model.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		h.logger.ErrorContext(ctx, "rpc failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
