package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
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
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRegisterRequest() dto.RegisterCustomerRequest {
	return dto.RegisterCustomerRequest{
		FirstName:     "Grace",
		LastName:      "Hopper",
		Age:           45,
		MonthlyIncome: decimal.NewFromInt(55000),
		PhoneNumber:   "9000000001",
	}
}

func TestRegisterCustomer_Execute(t *testing.T) {
	t.Run("registers a customer with a rounded limit", func(t *testing.T) {
		repo := newMockCustomerRepository()
		publisher := &mockEventPublisher{}
		uc := usecase.NewRegisterCustomerUseCase(repo, publisher, discardLogger())

		resp, err := uc.Execute(context.Background(), validRegisterRequest())

		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.CustomerID)
		assert.Equal(t, "Grace Hopper", resp.Name)
		// 36 x 55,000 = 1,980,000 rounds to 2,000,000.
		assert.True(t, decimal.NewFromInt(2000000).Equal(resp.ApprovedLimit), "got %s", resp.ApprovedLimit)

		stored, err := repo.FindByID(context.Background(), resp.CustomerID)
		require.NoError(t, err)
		assert.True(t, stored.CurrentDebt().IsZero())

		require.Len(t, publisher.publishedEvents, 1)
		assert.Equal(t, event.TypeCustomerRegistered, publisher.publishedEvents[0].EventType())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		repo := newMockCustomerRepository()
		uc := usecase.NewRegisterCustomerUseCase(repo, &mockEventPublisher{}, discardLogger())

		req := validRegisterRequest()
		req.MonthlyIncome = decimal.Zero
		_, err := uc.Execute(context.Background(), req)

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Empty(t, repo.customers)
	})

	t.Run("fails when repository create fails", func(t *testing.T) {
		repo := newMockCustomerRepository()
		repo.createFunc = func(_ context.Context, _ model.Customer) (model.Customer, error) {
			return model.Customer{}, errors.New("database unavailable")
		}
		uc := usecase.NewRegisterCustomerUseCase(repo, &mockEventPublisher{}, discardLogger())

		_, err := uc.Execute(context.Background(), validRegisterRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "save customer")
	})

	t.Run("publish failure does not fail registration", func(t *testing.T) {
		publisher := &mockEventPublisher{
			publishFunc: func(_ context.Context, _ ...event.DomainEvent) error {
				return errors.New("broker down")
			},
		}
		uc := usecase.NewRegisterCustomerUseCase(newMockCustomerRepository(), publisher, discardLogger())

		resp, err := uc.Execute(context.Background(), validRegisterRequest())

		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.CustomerID)
	})
}

func TestDataStatus_Execute(t *testing.T) {
	start := time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)
	customers := newMockCustomerRepository(fixtureCustomer(1), fixtureCustomer(2), fixtureCustomer(3), fixtureCustomer(4))
	loans := newMockLoanRepository(fixtureLoan(10, 1, 1000, start, 12), fixtureLoan(11, 2, 2000, start, 12))
	uc := usecase.NewDataStatusUseCase(customers, loans)

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.CustomerCount)
	assert.Equal(t, int64(2), resp.LoanCount)
	require.Len(t, resp.SampleCustomers, 3)
	assert.Equal(t, int64(1), resp.SampleCustomers[0].ID)
	require.Len(t, resp.SampleLoans, 2)
	assert.Equal(t, int64(10), resp.SampleLoans[0].LoanID)
	assert.Equal(t, start, resp.SampleLoans[0].StartDate)
}

func TestViewCustomerLoans_Execute(t *testing.T) {
	now := time.Now().UTC()
	start := model.DateOf(now).AddDate(0, -3, 0)

	t.Run("lists loans with repayments left", func(t *testing.T) {
		loan := model.ReconstructLoan(
			7, 1, decimal.NewFromInt(120000), 12,
			decimal.NewFromInt(12), decimal.NewFromInt(10662), 3,
			start, start.AddDate(0, 12, 0), now,
		)
		uc := usecase.NewViewCustomerLoansUseCase(newMockCustomerRepository(fixtureCustomer(1)), newMockLoanRepository(loan))

		items, err := uc.Execute(context.Background(), dto.ViewCustomerLoansRequest{CustomerID: 1})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(7), items[0].LoanID)
		assert.Equal(t, 9, items[0].RepaymentsLeft)
	})

	t.Run("returns an empty list for customers without loans", func(t *testing.T) {
		uc := usecase.NewViewCustomerLoansUseCase(newMockCustomerRepository(fixtureCustomer(1)), newMockLoanRepository())

		items, err := uc.Execute(context.Background(), dto.ViewCustomerLoansRequest{CustomerID: 1})

		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("unknown customer", func(t *testing.T) {
		uc := usecase.NewViewCustomerLoansUseCase(newMockCustomerRepository(), newMockLoanRepository())

		_, err := uc.Execute(context.Background(), dto.ViewCustomerLoansRequest{CustomerID: 99})

		assert.ErrorIs(t, err, port.ErrCustomerNotFound)
	})
}

func TestViewLoan_Execute(t *testing.T) {
	start := time.Date(2021, time.June, 15, 0, 0, 0, 0, time.UTC)

	t.Run("returns loan with customer", func(t *testing.T) {
		uc := usecase.NewViewLoanUseCase(
			newMockLoanRepository(fixtureLoan(5, 1, 50000, start, 24)),
			newMockCustomerRepository(fixtureCustomer(1)),
		)

		resp, err := uc.Execute(context.Background(), dto.ViewLoanRequest{LoanID: 5})

		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.LoanID)
		assert.Equal(t, "Ada", resp.Customer.FirstName)
		assert.Equal(t, 24, resp.Tenure)
		assert.True(t, decimal.NewFromInt(50000).Equal(resp.LoanAmount))
	})

	t.Run("unknown loan", func(t *testing.T) {
		uc := usecase.NewViewLoanUseCase(newMockLoanRepository(), newMockCustomerRepository())

		_, err := uc.Execute(context.Background(), dto.ViewLoanRequest{LoanID: 5})

		assert.ErrorIs(t, err, port.ErrLoanNotFound)
	})
}
