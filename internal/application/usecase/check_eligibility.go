package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/internal/domain/service"
)

// CheckEligibilityUseCase evaluates a prospective loan without creating it.
type CheckEligibilityUseCase struct {
	customers port.CustomerRepository
	loans     port.LoanRepository
	evaluator *service.CreditEvaluator
	metrics   port.Metrics
}

// NewCheckEligibilityUseCase wires dependencies.
func NewCheckEligibilityUseCase(
	customers port.CustomerRepository,
	loans port.LoanRepository,
	evaluator *service.CreditEvaluator,
	metrics port.Metrics,
) *CheckEligibilityUseCase {
	return &CheckEligibilityUseCase{
		customers: customers,
		loans:     loans,
		evaluator: evaluator,
		metrics:   metrics,
	}
}

// Execute evaluates the request against the customer's latest committed loans.
func (uc *CheckEligibilityUseCase) Execute(
	ctx context.Context,
	req dto.EligibilityRequest,
) (dto.EligibilityResponse, error) {
	app := toLoanApplication(req)
	if err := app.Validate(); err != nil {
		return dto.EligibilityResponse{}, fmt.Errorf("validate application: %w", err)
	}

	customer, err := uc.customers.FindByID(ctx, app.CustomerID)
	if err != nil {
		return dto.EligibilityResponse{}, fmt.Errorf("find customer: %w", err)
	}

	loans, err := uc.loans.FindByCustomerID(ctx, app.CustomerID)
	if err != nil {
		return dto.EligibilityResponse{}, fmt.Errorf("find loans: %w", err)
	}

	result, err := uc.evaluator.Evaluate(customer, loans, app, time.Now().UTC())
	if err != nil {
		return dto.EligibilityResponse{}, fmt.Errorf("evaluate: %w", err)
	}
	uc.metrics.RecordEvaluation(ctx, result.Approved, result.Reason.String(), result.CreditScore)

	return toEligibilityResponse(result), nil
}

func toLoanApplication(req dto.EligibilityRequest) model.LoanApplication {
	return model.LoanApplication{
		CustomerID:   req.CustomerID,
		Amount:       req.LoanAmount,
		InterestRate: req.InterestRate,
		Tenure:       req.Tenure,
	}
}

func toEligibilityResponse(r service.EligibilityResult) dto.EligibilityResponse {
	resp := dto.EligibilityResponse{
		CustomerID:            r.CustomerID,
		Approval:              r.Approved,
		InterestRate:          r.RequestedRate,
		CorrectedInterestRate: r.CorrectedRate,
		Tenure:                r.Tenure,
		MonthlyInstallment:    r.MonthlyInstallment,
		ApprovedLoanAmount:    r.LoanAmount,
		CreditScore:           r.CreditScore,
		ReasonCode:            r.Reason.String(),
	}
	if !r.Approved {
		resp.Reason = r.Reason.Description()
	}
	return resp
}
