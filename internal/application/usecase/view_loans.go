package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
)

// ViewLoanUseCase retrieves a loan together with its customer.
type ViewLoanUseCase struct {
	loans     port.LoanRepository
	customers port.CustomerRepository
}

// NewViewLoanUseCase wires dependencies.
func NewViewLoanUseCase(loans port.LoanRepository, customers port.CustomerRepository) *ViewLoanUseCase {
	return &ViewLoanUseCase{loans: loans, customers: customers}
}

// Execute returns the loan detail for the given ID.
func (uc *ViewLoanUseCase) Execute(
	ctx context.Context,
	req dto.ViewLoanRequest,
) (dto.LoanDetailResponse, error) {
	loan, err := uc.loans.FindByID(ctx, req.LoanID)
	if err != nil {
		return dto.LoanDetailResponse{}, fmt.Errorf("find loan: %w", err)
	}

	customer, err := uc.customers.FindByID(ctx, loan.CustomerID())
	if err != nil {
		return dto.LoanDetailResponse{}, fmt.Errorf("find customer: %w", err)
	}

	return dto.LoanDetailResponse{
		LoanID:             loan.ID(),
		Customer:           toCustomerSummary(customer),
		LoanAmount:         loan.Principal(),
		InterestRate:       loan.InterestRate(),
		MonthlyInstallment: loan.MonthlyRepayment(),
		Tenure:             loan.Tenure(),
	}, nil
}

// ViewCustomerLoansUseCase lists every loan of a customer.
type ViewCustomerLoansUseCase struct {
	customers port.CustomerRepository
	loans     port.LoanRepository
}

// NewViewCustomerLoansUseCase wires dependencies.
func NewViewCustomerLoansUseCase(customers port.CustomerRepository, loans port.LoanRepository) *ViewCustomerLoansUseCase {
	return &ViewCustomerLoansUseCase{customers: customers, loans: loans}
}

// Execute fails with port.ErrCustomerNotFound for unknown customers and returns
// an empty list for customers without loans.
func (uc *ViewCustomerLoansUseCase) Execute(
	ctx context.Context,
	req dto.ViewCustomerLoansRequest,
) ([]dto.CustomerLoanItem, error) {
	if _, err := uc.customers.FindByID(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	loans, err := uc.loans.FindByCustomerID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("find loans: %w", err)
	}

	items := make([]dto.CustomerLoanItem, 0, len(loans))
	for _, l := range loans {
		items = append(items, toCustomerLoanItem(l))
	}
	return items, nil
}

func toCustomerLoanItem(l model.Loan) dto.CustomerLoanItem {
	return dto.CustomerLoanItem{
		LoanID:             l.ID(),
		LoanAmount:         l.Principal(),
		InterestRate:       l.InterestRate(),
		MonthlyInstallment: l.MonthlyRepayment(),
		RepaymentsLeft:     l.RepaymentsLeft(),
	}
}
