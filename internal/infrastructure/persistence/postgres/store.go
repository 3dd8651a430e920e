package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/origination/internal/domain/port"
	pkgpostgres "github.com/bibbank/origination/pkg/postgres"
)

var _ port.Transactor = (*Store)(nil)

// Store owns the pool and hands out repositories bound to it or to a transaction.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Customers returns a customer repository running outside any transaction.
func (s *Store) Customers() *CustomerRepo {
	return NewCustomerRepo(s.pool)
}

// Loans returns a loan repository running outside any transaction.
func (s *Store) Loans() *LoanRepo {
	return NewLoanRepo(s.pool)
}

// WithinTransaction runs fn with repositories sharing one transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return pkgpostgres.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, port.Repositories{
			Customers: NewCustomerRepo(tx),
			Loans:     NewLoanRepo(tx),
		})
	})
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return pkgpostgres.HealthCheck(ctx, s.pool)
}
