package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/domain/event"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
)

// --- Mock implementations ---

// mockCustomerRepository keeps customers in memory unless a func field overrides a method.
type mockCustomerRepository struct {
	mu        sync.Mutex
	customers map[int64]model.Customer
	nextID    int64

	createFunc     func(ctx context.Context, c model.Customer) (model.Customer, error)
	updateFunc     func(ctx context.Context, c model.Customer) error
	upsertManyFunc func(ctx context.Context, customers []model.Customer) (int, int, error)

	updated     []model.Customer
	lockedIDs   []int64
	debtsSet    map[int64]decimal.Decimal
	upsertCalls [][]model.Customer
}

func newMockCustomerRepository(customers ...model.Customer) *mockCustomerRepository {
	m := &mockCustomerRepository{customers: make(map[int64]model.Customer), nextID: 1}
	for _, c := range customers {
		m.customers[c.ID()] = c
		if c.ID() >= m.nextID {
			m.nextID = c.ID() + 1
		}
	}
	return m
}

func (m *mockCustomerRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c = c.WithID(m.nextID)
	m.nextID++
	m.customers[c.ID()] = c
	return c, nil
}

func (m *mockCustomerRepository) FindByID(_ context.Context, id int64) (model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return model.Customer{}, port.ErrCustomerNotFound
	}
	return c, nil
}

func (m *mockCustomerRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Customer, error) {
	m.mu.Lock()
	m.lockedIDs = append(m.lockedIDs, id)
	m.mu.Unlock()
	return m.FindByID(ctx, id)
}

func (m *mockCustomerRepository) FindByIDs(_ context.Context, ids []int64) (map[int64]model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]model.Customer, len(ids))
	for _, id := range ids {
		if c, ok := m.customers[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, c model.Customer) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.ID()] = c
	m.updated = append(m.updated, c)
	return nil
}

func (m *mockCustomerRepository) UpsertMany(ctx context.Context, customers []model.Customer) (int, int, error) {
	if m.upsertManyFunc != nil {
		return m.upsertManyFunc(ctx, customers)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls = append(m.upsertCalls, customers)
	var created, updated int
	for _, c := range customers {
		if _, ok := m.customers[c.ID()]; ok {
			updated++
		} else {
			created++
		}
		m.customers[c.ID()] = c
	}
	return created, updated, nil
}

func (m *mockCustomerRepository) SetCurrentDebts(_ context.Context, debts map[int64]decimal.Decimal, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debtsSet = debts
	for id, debt := range debts {
		if c, ok := m.customers[id]; ok {
			m.customers[id] = c.WithCurrentDebt(debt, now)
		}
	}
	return len(debts), nil
}

func (m *mockCustomerRepository) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.customers)), nil
}

func (m *mockCustomerRepository) List(_ context.Context, limit int) ([]model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Customer, 0, limit)
	for id := int64(1); id < m.nextID && len(out) < limit; id++ {
		if c, ok := m.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockLoanRepository keeps loans in insertion order.
type mockLoanRepository struct {
	mu     sync.Mutex
	loans  []model.Loan
	nextID int64

	createFunc           func(ctx context.Context, l model.Loan) (model.Loan, error)
	findByCustomerIDFunc func(ctx context.Context, customerID int64) ([]model.Loan, error)

	deletedIDs []int64
}

func newMockLoanRepository(loans ...model.Loan) *mockLoanRepository {
	m := &mockLoanRepository{nextID: 1}
	for _, l := range loans {
		m.loans = append(m.loans, l)
		if l.ID() >= m.nextID {
			m.nextID = l.ID() + 1
		}
	}
	return m
}

func (m *mockLoanRepository) Create(ctx context.Context, l model.Loan) (model.Loan, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, l)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l = l.WithID(m.nextID)
	m.nextID++
	m.loans = append(m.loans, l)
	return l, nil
}

func (m *mockLoanRepository) FindByID(_ context.Context, id int64) (model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.ID() == id {
			return l, nil
		}
	}
	return model.Loan{}, port.ErrLoanNotFound
}

func (m *mockLoanRepository) FindByCustomerID(ctx context.Context, customerID int64) ([]model.Loan, error) {
	if m.findByCustomerIDFunc != nil {
		return m.findByCustomerIDFunc(ctx, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Loan
	for _, l := range m.loans {
		if l.CustomerID() == customerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLoanRepository) DeleteByIDs(_ context.Context, ids []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedIDs = append(m.deletedIDs, ids...)
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := m.loans[:0]
	deleted := 0
	for _, l := range m.loans {
		if _, ok := drop[l.ID()]; ok {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	m.loans = kept
	return deleted, nil
}

func (m *mockLoanRepository) InsertMany(_ context.Context, loans []model.Loan) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans = append(m.loans, loans...)
	return len(loans), nil
}

func (m *mockLoanRepository) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.loans)), nil
}

func (m *mockLoanRepository) List(_ context.Context, limit int) ([]model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.loans) < limit {
		limit = len(m.loans)
	}
	return append([]model.Loan(nil), m.loans[:limit]...), nil
}

// mockTransactor runs fn against the wrapped repositories. It does not roll back.
type mockTransactor struct {
	repos port.Repositories
	calls int
}

func (m *mockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	m.calls++
	return fn(ctx, m.repos)
}

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

type recordedEvaluation struct {
	approved bool
	reason   string
	score    decimal.Decimal
}

type mockMetrics struct {
	evaluations  []recordedEvaluation
	loansCreated []decimal.Decimal
	imports      []string
}

func (m *mockMetrics) RecordEvaluation(_ context.Context, approved bool, reason string, score decimal.Decimal) {
	m.evaluations = append(m.evaluations, recordedEvaluation{approved: approved, reason: reason, score: score})
}

func (m *mockMetrics) RecordLoanCreated(_ context.Context, amount decimal.Decimal) {
	m.loansCreated = append(m.loansCreated, amount)
}

func (m *mockMetrics) RecordImport(_ context.Context, status string, _ model.ImportStats, _ time.Duration) {
	m.imports = append(m.imports, status)
}

type mockSpreadsheetReader struct {
	readCustomersFunc func(ctx context.Context, path string) ([]model.Customer, error)
	readLoansFunc     func(ctx context.Context, path string) ([]model.Loan, error)
}

func (m *mockSpreadsheetReader) ReadCustomers(ctx context.Context, path string) ([]model.Customer, error) {
	if m.readCustomersFunc != nil {
		return m.readCustomersFunc(ctx, path)
	}
	return nil, nil
}

func (m *mockSpreadsheetReader) ReadLoans(ctx context.Context, path string) ([]model.Loan, error) {
	if m.readLoansFunc != nil {
		return m.readLoansFunc(ctx, path)
	}
	return nil, nil
}

type mockImportJobStore struct {
	mu       sync.Mutex
	jobs     map[string]model.ImportJob
	saveFunc func(ctx context.Context, job model.ImportJob) error
	history  []model.ImportJob
}

func newMockImportJobStore() *mockImportJobStore {
	return &mockImportJobStore{jobs: make(map[string]model.ImportJob)}
}

func (m *mockImportJobStore) Save(ctx context.Context, job model.ImportJob) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID()] = job
	m.history = append(m.history, job)
	return nil
}

func (m *mockImportJobStore) FindByID(_ context.Context, id string) (model.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return model.ImportJob{}, port.ErrImportJobNotFound
	}
	return job, nil
}

type mockImportQueue struct {
	enqueueFunc func(ctx context.Context, job model.ImportJob) error
	enqueued    []model.ImportJob
}

func (m *mockImportQueue) Enqueue(ctx context.Context, job model.ImportJob) error {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

// --- Fixtures ---

var fixtureTime = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// fixtureCustomer earns 50,000 a month, giving a limit of 1,800,000.
func fixtureCustomer(id int64) model.Customer {
	income := decimal.NewFromInt(50000)
	return model.ReconstructCustomer(
		id, "Ada", "Lovelace", 36, "9876543210",
		income, model.ApprovedLimitFor(income), decimal.Zero,
		fixtureTime, fixtureTime,
	)
}

func fixtureLoan(id, customerID int64, principal int64, start time.Time, tenure int) model.Loan {
	return model.ReconstructLoan(
		id, customerID, decimal.NewFromInt(principal), tenure,
		decimal.NewFromInt(12), decimal.NewFromInt(1000), tenure,
		start, start.AddDate(0, tenure, 0), fixtureTime,
	)
}
