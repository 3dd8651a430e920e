package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/event"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/internal/domain/service"
)

// CreateLoanUseCase evaluates an application and, when approved, books the loan
// and raises the customer's debt in one transaction.
type CreateLoanUseCase struct {
	tx        port.Transactor
	evaluator *service.CreditEvaluator
	publisher port.EventPublisher
	metrics   port.Metrics
	logger    *slog.Logger
}

// NewCreateLoanUseCase wires dependencies.
func NewCreateLoanUseCase(
	tx port.Transactor,
	evaluator *service.CreditEvaluator,
	publisher port.EventPublisher,
	metrics port.Metrics,
	logger *slog.Logger,
) *CreateLoanUseCase {
	return &CreateLoanUseCase{
		tx:        tx,
		evaluator: evaluator,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute returns a non-error response with LoanApproved=false when the application is rejected.
func (uc *CreateLoanUseCase) Execute(
	ctx context.Context,
	req dto.CreateLoanRequest,
) (dto.CreateLoanResponse, error) {
	app := toLoanApplication(req)
	if err := app.Validate(); err != nil {
		return dto.CreateLoanResponse{}, fmt.Errorf("validate application: %w", err)
	}

	now := time.Now().UTC()
	var (
		result service.EligibilityResult
		loan   model.Loan
	)

	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		// The row lock serialises concurrent applications of the same customer.
		customer, err := repos.Customers.FindByIDForUpdate(ctx, app.CustomerID)
		if err != nil {
			return fmt.Errorf("lock customer: %w", err)
		}

		loans, err := repos.Loans.FindByCustomerID(ctx, app.CustomerID)
		if err != nil {
			return fmt.Errorf("find loans: %w", err)
		}

		result, err = uc.evaluator.Evaluate(customer, loans, app, now)
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		if !result.Approved {
			return nil
		}

		loan, err = model.NewLoan(
			customer.ID(), result.LoanAmount, result.Tenure,
			result.CorrectedRate, result.MonthlyInstallment, now, now,
		)
		if err != nil {
			return fmt.Errorf("build loan: %w", err)
		}

		loan, err = repos.Loans.Create(ctx, loan)
		if err != nil {
			return fmt.Errorf("save loan: %w", err)
		}

		if err := repos.Customers.Update(ctx, customer.AddDebt(loan.Principal(), now)); err != nil {
			return fmt.Errorf("update customer debt: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.CreateLoanResponse{}, err
	}

	uc.metrics.RecordEvaluation(ctx, result.Approved, result.Reason.String(), result.CreditScore)

	if !result.Approved {
		uc.publish(ctx, event.NewLoanRejected(app.CustomerID, app.Amount, result.Reason.String(), result.CreditScore))
		return dto.CreateLoanResponse{
			CustomerID:         app.CustomerID,
			LoanApproved:       false,
			Message:            result.Reason.LoanMessage(),
			MonthlyInstallment: decimal.Zero,
			ApprovedLoanAmount: decimal.Zero,
		}, nil
	}

	uc.metrics.RecordLoanCreated(ctx, loan.Principal())
	uc.publish(ctx, event.NewLoanCreated(
		loan.ID(), loan.CustomerID(), loan.Principal(), loan.InterestRate(),
		loan.Tenure(), loan.MonthlyRepayment(), result.CreditScore,
	))

	loanID := loan.ID()
	return dto.CreateLoanResponse{
		LoanID:             &loanID,
		CustomerID:         app.CustomerID,
		LoanApproved:       true,
		Message:            result.Reason.LoanMessage(),
		MonthlyInstallment: loan.MonthlyRepayment(),
		ApprovedLoanAmount: loan.Principal(),
	}, nil
}

func (uc *CreateLoanUseCase) publish(ctx context.Context, evt event.DomainEvent) {
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish loan event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"error", err,
		)
	}
}
