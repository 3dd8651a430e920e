package port

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/domain/event"
	"github.com/bibbank/origination/internal/domain/model"
)

// Not-found conditions surfaced by the driven adapters.
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrLoanNotFound      = errors.New("loan not found")
	ErrImportJobNotFound = errors.New("import job not found")
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// CustomerRepository persists and retrieves customers.
type CustomerRepository interface {
	// Create inserts a customer and returns it with its assigned ID.
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	FindByID(ctx context.Context, id int64) (model.Customer, error)
	// FindByIDForUpdate locks the customer row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (model.Customer, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Customer, error)
	Update(ctx context.Context, c model.Customer) error
	// UpsertMany inserts or overwrites customers by ID, leaving current debt of existing rows untouched.
	UpsertMany(ctx context.Context, customers []model.Customer) (created, updated int, err error)
	SetCurrentDebts(ctx context.Context, debts map[int64]decimal.Decimal, now time.Time) (int, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit int) ([]model.Customer, error)
}

// LoanRepository persists and retrieves loans.
type LoanRepository interface {
	// Create inserts a loan and returns it with its assigned ID.
	Create(ctx context.Context, l model.Loan) (model.Loan, error)
	FindByID(ctx context.Context, id int64) (model.Loan, error)
	FindByCustomerID(ctx context.Context, customerID int64) ([]model.Loan, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int, error)
	// InsertMany inserts loans keeping their IDs.
	InsertMany(ctx context.Context, loans []model.Loan) (int, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit int) ([]model.Loan, error)
}

// Repositories groups repositories bound to the same transaction.
type Repositories struct {
	Customers CustomerRepository
	Loans     LoanRepository
}

// Transactor runs fn atomically. Returning an error from fn rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Background import ports
// ---------------------------------------------------------------------------

// ImportJobStore keeps the status of background imports.
type ImportJobStore interface {
	Save(ctx context.Context, job model.ImportJob) error
	FindByID(ctx context.Context, id string) (model.ImportJob, error)
}

// ImportQueue hands import jobs to background workers. Delivery is fire and forget.
type ImportQueue interface {
	Enqueue(ctx context.Context, job model.ImportJob) error
}

// SpreadsheetReader parses customer and loan workbooks.
type SpreadsheetReader interface {
	ReadCustomers(ctx context.Context, path string) ([]model.Customer, error)
	// ReadLoans returns loans in sheet order. Rows with an unusable loan ID come back with ID 0.
	ReadLoans(ctx context.Context, path string) ([]model.Loan, error)
}

// ---------------------------------------------------------------------------
// Telemetry port
// ---------------------------------------------------------------------------

// Metrics records business measurements.
type Metrics interface {
	RecordEvaluation(ctx context.Context, approved bool, reason string, score decimal.Decimal)
	RecordLoanCreated(ctx context.Context, amount decimal.Decimal)
	RecordImport(ctx context.Context, status string, stats model.ImportStats, elapsed time.Duration)
}
