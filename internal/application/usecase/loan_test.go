package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/application/usecase"
	"github.com/bibbank/origination/internal/domain/event"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/internal/domain/service"
)

func newEvaluator() *service.CreditEvaluator {
	return service.NewCreditEvaluator(service.DefaultScoringWeights())
}

// A customer without history scores the baseline 50, which puts the rate floor at 12%.
func validEligibilityRequest() dto.EligibilityRequest {
	return dto.EligibilityRequest{
		CustomerID:   1,
		LoanAmount:   decimal.NewFromInt(100000),
		InterestRate: decimal.NewFromInt(10),
		Tenure:       12,
	}
}

func TestCheckEligibility_Execute(t *testing.T) {
	t.Run("corrects the rate for a customer without history", func(t *testing.T) {
		metrics := &mockMetrics{}
		uc := usecase.NewCheckEligibilityUseCase(
			newMockCustomerRepository(fixtureCustomer(1)), newMockLoanRepository(), newEvaluator(), metrics,
		)

		resp, err := uc.Execute(context.Background(), validEligibilityRequest())

		require.NoError(t, err)
		assert.True(t, resp.Approval)
		assert.True(t, decimal.NewFromInt(10).Equal(resp.InterestRate))
		assert.True(t, decimal.NewFromInt(12).Equal(resp.CorrectedInterestRate))
		assert.Equal(t, "8884.88", resp.MonthlyInstallment.StringFixed(2))
		assert.Equal(t, "RATE_CORRECTED", resp.ReasonCode)
		assert.Empty(t, resp.Reason)
		require.Len(t, metrics.evaluations, 1)
		assert.True(t, metrics.evaluations[0].approved)
	})

	t.Run("rejects when the installment burden is too high", func(t *testing.T) {
		uc := usecase.NewCheckEligibilityUseCase(
			newMockCustomerRepository(fixtureCustomer(1)), newMockLoanRepository(), newEvaluator(), &mockMetrics{},
		)
		req := validEligibilityRequest()
		req.LoanAmount = decimal.NewFromInt(1000000)

		resp, err := uc.Execute(context.Background(), req)

		require.NoError(t, err)
		assert.False(t, resp.Approval)
		assert.Equal(t, "EMI_BURDEN_EXCEEDED", resp.ReasonCode)
		assert.Equal(t, "Existing EMI burden exceeds 50% of salary", resp.Reason)
		assert.True(t, resp.MonthlyInstallment.IsZero())
	})

	t.Run("does not write anything", func(t *testing.T) {
		customers := newMockCustomerRepository(fixtureCustomer(1))
		loans := newMockLoanRepository()
		uc := usecase.NewCheckEligibilityUseCase(customers, loans, newEvaluator(), &mockMetrics{})

		_, err := uc.Execute(context.Background(), validEligibilityRequest())

		require.NoError(t, err)
		assert.Empty(t, customers.updated)
		assert.Empty(t, loans.loans)
	})

	t.Run("unknown customer", func(t *testing.T) {
		uc := usecase.NewCheckEligibilityUseCase(
			newMockCustomerRepository(), newMockLoanRepository(), newEvaluator(), &mockMetrics{},
		)

		_, err := uc.Execute(context.Background(), validEligibilityRequest())

		assert.ErrorIs(t, err, port.ErrCustomerNotFound)
	})

	t.Run("invalid tenure", func(t *testing.T) {
		uc := usecase.NewCheckEligibilityUseCase(
			newMockCustomerRepository(fixtureCustomer(1)), newMockLoanRepository(), newEvaluator(), &mockMetrics{},
		)
		req := validEligibilityRequest()
		req.Tenure = 0

		_, err := uc.Execute(context.Background(), req)

		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("loan lookup failure", func(t *testing.T) {
		loans := newMockLoanRepository()
		loans.findByCustomerIDFunc = func(context.Context, int64) ([]model.Loan, error) {
			return nil, errors.New("connection reset")
		}
		uc := usecase.NewCheckEligibilityUseCase(newMockCustomerRepository(fixtureCustomer(1)), loans, newEvaluator(), &mockMetrics{})

		_, err := uc.Execute(context.Background(), validEligibilityRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "find loans")
	})
}

func newCreateLoanFixture(customers *mockCustomerRepository, loans *mockLoanRepository) (*usecase.CreateLoanUseCase, *mockTransactor, *mockEventPublisher, *mockMetrics) {
	tx := &mockTransactor{repos: port.Repositories{Customers: customers, Loans: loans}}
	publisher := &mockEventPublisher{}
	metrics := &mockMetrics{}
	return usecase.NewCreateLoanUseCase(tx, newEvaluator(), publisher, metrics, discardLogger()), tx, publisher, metrics
}

func TestCreateLoan_Execute(t *testing.T) {
	t.Run("books an approved loan and raises the debt", func(t *testing.T) {
		customers := newMockCustomerRepository(fixtureCustomer(1))
		loans := newMockLoanRepository()
		uc, tx, publisher, metrics := newCreateLoanFixture(customers, loans)

		resp, err := uc.Execute(context.Background(), validEligibilityRequest())

		require.NoError(t, err)
		require.NotNil(t, resp.LoanID)
		assert.Equal(t, int64(1), *resp.LoanID)
		assert.True(t, resp.LoanApproved)
		assert.Equal(t, "Loan approved and created successfully", resp.Message)
		assert.Equal(t, "8884.88", resp.MonthlyInstallment.StringFixed(2))
		assert.True(t, decimal.NewFromInt(100000).Equal(resp.ApprovedLoanAmount), "got %s", resp.ApprovedLoanAmount)
		assert.Equal(t, 1, tx.calls)
		assert.Equal(t, []int64{1}, customers.lockedIDs)

		require.Len(t, loans.loans, 1)
		stored := loans.loans[0]
		assert.True(t, decimal.NewFromInt(12).Equal(stored.InterestRate()))
		assert.Equal(t, model.DateOf(time.Now().UTC()), stored.StartDate())
		assert.Equal(t, stored.StartDate().AddDate(0, 12, 0), stored.EndDate())
		assert.Equal(t, 0, stored.EMIsPaidOnTime())

		customer, err := customers.FindByID(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100000).Equal(customer.CurrentDebt()))

		require.Len(t, publisher.publishedEvents, 1)
		assert.Equal(t, event.TypeLoanCreated, publisher.publishedEvents[0].EventType())
		require.Len(t, metrics.loansCreated, 1)
	})

	t.Run("caps the amount at the remaining limit", func(t *testing.T) {
		start := model.DateOf(time.Now().UTC()).AddDate(0, -1, 0)
		customers := newMockCustomerRepository(fixtureCustomer(1))
		// Interest free, so the existing installment is 1,750,000 / 120.
		existing := model.ReconstructLoan(
			1, 1, decimal.NewFromInt(1750000), 120,
			decimal.Zero, decimal.NewFromInt(14584), 1,
			start, start.AddDate(0, 120, 0), fixtureTime,
		)
		loans := newMockLoanRepository(existing)
		uc, _, _, _ := newCreateLoanFixture(customers, loans)

		req := validEligibilityRequest()
		req.InterestRate = decimal.NewFromInt(20)
		resp, err := uc.Execute(context.Background(), req)

		require.NoError(t, err)
		require.True(t, resp.LoanApproved, resp.Message)
		created, err := loans.FindByID(context.Background(), *resp.LoanID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(50000).Equal(created.Principal()), "got %s", created.Principal())
		assert.True(t, decimal.NewFromInt(50000).Equal(resp.ApprovedLoanAmount), "got %s", resp.ApprovedLoanAmount)
	})

	t.Run("rejected application creates nothing", func(t *testing.T) {
		customers := newMockCustomerRepository(fixtureCustomer(1))
		loans := newMockLoanRepository()
		uc, _, publisher, metrics := newCreateLoanFixture(customers, loans)

		req := validEligibilityRequest()
		req.LoanAmount = decimal.NewFromInt(1000000)
		resp, err := uc.Execute(context.Background(), req)

		require.NoError(t, err)
		assert.Nil(t, resp.LoanID)
		assert.False(t, resp.LoanApproved)
		assert.Equal(t, "Loan not approved due to existing EMI burden exceeding 50% of salary", resp.Message)
		assert.True(t, resp.MonthlyInstallment.IsZero())
		assert.True(t, resp.ApprovedLoanAmount.IsZero())
		assert.Empty(t, loans.loans)
		assert.Empty(t, customers.updated)

		require.Len(t, publisher.publishedEvents, 1)
		assert.Equal(t, event.TypeLoanRejected, publisher.publishedEvents[0].EventType())
		assert.Empty(t, metrics.loansCreated)
	})

	t.Run("customer over the limit is rejected", func(t *testing.T) {
		start := model.DateOf(time.Now().UTC()).AddDate(0, -1, 0)
		// Active principal of 1,900,000 against a 1,800,000 limit.
		over := model.ReconstructLoan(
			1, 1, decimal.NewFromInt(1900000), 120,
			decimal.Zero, decimal.RequireFromString("15833.33"), 1,
			start, start.AddDate(0, 120, 0), fixtureTime,
		)
		loans := newMockLoanRepository(over)
		uc, _, _, _ := newCreateLoanFixture(newMockCustomerRepository(fixtureCustomer(1)), loans)

		resp, err := uc.Execute(context.Background(), validEligibilityRequest())

		require.NoError(t, err)
		assert.False(t, resp.LoanApproved)
		assert.Len(t, loans.loans, 1)
		assert.Equal(t, "Loan not approved due to overutilized credit limit", resp.Message)
	})

	t.Run("unknown customer", func(t *testing.T) {
		uc, _, _, _ := newCreateLoanFixture(newMockCustomerRepository(), newMockLoanRepository())

		_, err := uc.Execute(context.Background(), validEligibilityRequest())

		assert.ErrorIs(t, err, port.ErrCustomerNotFound)
	})

	t.Run("save failure is returned", func(t *testing.T) {
		loans := newMockLoanRepository()
		loans.createFunc = func(context.Context, model.Loan) (model.Loan, error) {
			return model.Loan{}, errors.New("disk full")
		}
		customers := newMockCustomerRepository(fixtureCustomer(1))
		uc, _, publisher, _ := newCreateLoanFixture(customers, loans)

		_, err := uc.Execute(context.Background(), validEligibilityRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "save loan")
		assert.Empty(t, customers.updated)
		assert.Empty(t, publisher.publishedEvents)
	})

	t.Run("publish failure keeps the loan", func(t *testing.T) {
		customers := newMockCustomerRepository(fixtureCustomer(1))
		loans := newMockLoanRepository()
		tx := &mockTransactor{repos: port.Repositories{Customers: customers, Loans: loans}}
		publisher := &mockEventPublisher{
			publishFunc: func(context.Context, ...event.DomainEvent) error { return errors.New("broker down") },
		}
		uc := usecase.NewCreateLoanUseCase(tx, newEvaluator(), publisher, &mockMetrics{}, discardLogger())

		resp, err := uc.Execute(context.Background(), validEligibilityRequest())

		require.NoError(t, err)
		assert.True(t, resp.LoanApproved)
		assert.Len(t, loans.loans, 1)
	})
}
