package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/event"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
)

// RegisterCustomerUseCase creates a customer with a derived credit limit.
type RegisterCustomerUseCase struct {
	customers port.CustomerRepository
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewRegisterCustomerUseCase wires dependencies.
func NewRegisterCustomerUseCase(
	customers port.CustomerRepository,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *RegisterCustomerUseCase {
	return &RegisterCustomerUseCase{
		customers: customers,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute validates, persists and announces a new customer.
func (uc *RegisterCustomerUseCase) Execute(
	ctx context.Context,
	req dto.RegisterCustomerRequest,
) (dto.CustomerResponse, error) {
	now := time.Now().UTC()

	customer, err := model.NewCustomer(
		req.FirstName, req.LastName, req.Age, req.PhoneNumber, req.MonthlyIncome, now,
	)
	if err != nil {
		return dto.CustomerResponse{}, fmt.Errorf("create customer: %w", err)
	}

	customer, err = uc.customers.Create(ctx, customer)
	if err != nil {
		return dto.CustomerResponse{}, fmt.Errorf("save customer: %w", err)
	}

	// The customer is already committed; a lost event must not fail registration.
	registered := event.NewCustomerRegistered(
		customer.ID(), customer.FullName(), customer.MonthlyIncome(), customer.ApprovedLimit(),
	)
	if err := uc.publisher.Publish(ctx, registered); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish customer event",
			"customer_id", customer.ID(),
			"error", err,
		)
	}

	return toCustomerResponse(customer), nil
}

func toCustomerResponse(c model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		CustomerID:    c.ID(),
		Name:          c.FullName(),
		Age:           c.Age(),
		MonthlyIncome: c.MonthlyIncome(),
		ApprovedLimit: c.ApprovedLimit(),
		PhoneNumber:   c.PhoneNumber(),
	}
}

func toCustomerSummary(c model.Customer) dto.CustomerSummary {
	return dto.CustomerSummary{
		ID:          c.ID(),
		FirstName:   c.FirstName(),
		LastName:    c.LastName(),
		PhoneNumber: c.PhoneNumber(),
		Age:         c.Age(),
	}
}
