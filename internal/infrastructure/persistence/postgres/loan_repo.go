package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	pkgpostgres "github.com/bibbank/origination/pkg/postgres"
)

var _ port.LoanRepository = (*LoanRepo)(nil)

const loanColumns = `
	loan_id, customer_id, loan_amount, tenure, interest_rate,
	monthly_repayment, emis_paid_on_time, start_date, end_date, created_at`

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	db pkgpostgres.Querier
}

// NewLoanRepo creates a loan repository on a pool or a transaction.
func NewLoanRepo(db pkgpostgres.Querier) *LoanRepo {
	return &LoanRepo{db: db}
}

// Create inserts a loan and returns it with the generated ID.
func (r *LoanRepo) Create(ctx context.Context, l model.Loan) (model.Loan, error) {
	query := `
		INSERT INTO loans (
			customer_id, loan_amount, tenure, interest_rate,
			monthly_repayment, emis_paid_on_time, start_date, end_date, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING loan_id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		l.CustomerID(), l.Principal(), l.Tenure(), l.InterestRate(),
		l.MonthlyRepayment(), l.EMIsPaidOnTime(), l.StartDate(), l.EndDate(), l.CreatedAt(),
	).Scan(&id)
	if err != nil {
		return model.Loan{}, fmt.Errorf("insert loan: %w", err)
	}
	return l.WithID(id), nil
}

// FindByID retrieves a loan by ID.
func (r *LoanRepo) FindByID(ctx context.Context, id int64) (model.Loan, error) {
	l, err := scanLoan(r.db.QueryRow(ctx, `SELECT`+loanColumns+` FROM loans WHERE loan_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Loan{}, fmt.Errorf("%w: %d", port.ErrLoanNotFound, id)
		}
		return model.Loan{}, err
	}
	return l, nil
}

// FindByCustomerID returns every loan of a customer ordered by ID.
func (r *LoanRepo) FindByCustomerID(ctx context.Context, customerID int64) ([]model.Loan, error) {
	return r.queryLoans(ctx, `SELECT`+loanColumns+` FROM loans WHERE customer_id = $1 ORDER BY loan_id`, customerID)
}

// DeleteByIDs removes the given loans and reports how many existed.
func (r *LoanRepo) DeleteByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM loans WHERE loan_id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete loans: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// InsertMany bulk-copies loans with their own IDs.
func (r *LoanRepo) InsertMany(ctx context.Context, loans []model.Loan) (int, error) {
	if len(loans) == 0 {
		return 0, nil
	}

	columns := []string{
		"loan_id", "customer_id", "loan_amount", "tenure", "interest_rate",
		"monthly_repayment", "emis_paid_on_time", "start_date", "end_date", "created_at",
	}
	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"loans"}, columns,
		pgx.CopyFromSlice(len(loans), func(i int) ([]any, error) {
			l := loans[i]
			return []any{
				l.ID(), l.CustomerID(), toNumeric(l.Principal()), l.Tenure(), toNumeric(l.InterestRate()),
				toNumeric(l.MonthlyRepayment()), l.EMIsPaidOnTime(), l.StartDate(), l.EndDate(), l.CreatedAt(),
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy loans: %w", err)
	}

	if err := syncIdentity(ctx, r.db, "loans", "loan_id"); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the number of stored loans.
func (r *LoanRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM loans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}
	return n, nil
}

// List returns up to limit loans ordered by ID.
func (r *LoanRepo) List(ctx context.Context, limit int) ([]model.Loan, error) {
	return r.queryLoans(ctx, `SELECT`+loanColumns+` FROM loans ORDER BY loan_id LIMIT $1`, limit)
}

func (r *LoanRepo) queryLoans(ctx context.Context, query string, args ...any) ([]model.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func scanLoan(s scannable) (model.Loan, error) {
	var (
		id, customerID       int64
		principal, rate, emi decimal.Decimal
		tenure, paid         int
		start, end           time.Time
		createdAt            time.Time
	)
	err := s.Scan(
		&id, &customerID, &principal, &tenure, &rate,
		&emi, &paid, &start, &end, &createdAt,
	)
	if err != nil {
		return model.Loan{}, fmt.Errorf("scan loan: %w", err)
	}
	return model.ReconstructLoan(
		id, customerID, principal, tenure,
		rate, emi, paid, start, end, createdAt,
	), nil
}
