package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/port"
)

const dataStatusSampleSize = 3

// DataStatusUseCase reports stored counts with a few sample rows.
type DataStatusUseCase struct {
	customers port.CustomerRepository
	loans     port.LoanRepository
}

// NewDataStatusUseCase wires dependencies.
func NewDataStatusUseCase(customers port.CustomerRepository, loans port.LoanRepository) *DataStatusUseCase {
	return &DataStatusUseCase{customers: customers, loans: loans}
}

// Execute returns counts and up to three customers and loans.
func (uc *DataStatusUseCase) Execute(ctx context.Context) (dto.DataStatusResponse, error) {
	customerCount, err := uc.customers.Count(ctx)
	if err != nil {
		return dto.DataStatusResponse{}, fmt.Errorf("count customers: %w", err)
	}
	loanCount, err := uc.loans.Count(ctx)
	if err != nil {
		return dto.DataStatusResponse{}, fmt.Errorf("count loans: %w", err)
	}

	customers, err := uc.customers.List(ctx, dataStatusSampleSize)
	if err != nil {
		return dto.DataStatusResponse{}, fmt.Errorf("list customers: %w", err)
	}
	loans, err := uc.loans.List(ctx, dataStatusSampleSize)
	if err != nil {
		return dto.DataStatusResponse{}, fmt.Errorf("list loans: %w", err)
	}

	resp := dto.DataStatusResponse{
		CustomerCount:   customerCount,
		LoanCount:       loanCount,
		SampleCustomers: make([]dto.CustomerSummary, 0, len(customers)),
		SampleLoans:     make([]dto.LoanSample, 0, len(loans)),
	}
	for _, c := range customers {
		resp.SampleCustomers = append(resp.SampleCustomers, toCustomerSummary(c))
	}
	for _, l := range loans {
		resp.SampleLoans = append(resp.SampleLoans, dto.LoanSample{
			LoanID:     l.ID(),
			CustomerID: l.CustomerID(),
			LoanAmount: l.Principal(),
			StartDate:  l.StartDate(),
			EndDate:    l.EndDate(),
		})
	}
	return resp, nil
}
