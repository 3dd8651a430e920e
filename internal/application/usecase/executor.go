package usecase

import (
	"context"

	"github.com/bibbank/origination/internal/application/dto"
)

// Executor is the shape shared by every request/response use case. Transports
// depend on it rather than on the concrete use case types.
type Executor[Req, Resp any] interface {
	Execute(ctx context.Context, req Req) (Resp, error)
}

// Compile-time checks.
var (
	_ Executor[dto.RegisterCustomerRequest, dto.CustomerResponse]    = (*RegisterCustomerUseCase)(nil)
	_ Executor[dto.EligibilityRequest, dto.EligibilityResponse]      = (*CheckEligibilityUseCase)(nil)
	_ Executor[dto.CreateLoanRequest, dto.CreateLoanResponse]        = (*CreateLoanUseCase)(nil)
	_ Executor[dto.ViewLoanRequest, dto.LoanDetailResponse]          = (*ViewLoanUseCase)(nil)
	_ Executor[dto.ViewCustomerLoansRequest, []dto.CustomerLoanItem] = (*ViewCustomerLoansUseCase)(nil)
	_ Executor[dto.ScheduleImportRequest, dto.ImportJobResponse]     = (*ScheduleImportUseCase)(nil)
	_ Executor[dto.GetImportJobRequest, dto.ImportJobResponse]       = (*GetImportJobUseCase)(nil)
	_ Executor[dto.RunImportRequest, dto.ImportJobResponse]          = (*RunImportUseCase)(nil)
)
