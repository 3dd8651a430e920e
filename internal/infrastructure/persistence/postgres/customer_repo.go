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

var _ port.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `
	customer_id, first_name, last_name, age, phone_number,
	monthly_salary, approved_limit, current_debt, created_at, updated_at`

// CustomerRepo implements port.CustomerRepository.
type CustomerRepo struct {
	db pkgpostgres.Querier
}

// NewCustomerRepo creates a customer repository on a pool or a transaction.
func NewCustomerRepo(db pkgpostgres.Querier) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// Create inserts a customer and returns it with the generated ID.
func (r *CustomerRepo) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	query := `
		INSERT INTO customers (
			first_name, last_name, age, phone_number,
			monthly_salary, approved_limit, current_debt, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING customer_id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		c.FirstName(), c.LastName(), c.Age(), c.PhoneNumber(),
		c.MonthlyIncome(), c.ApprovedLimit(), c.CurrentDebt(), c.CreatedAt(), c.UpdatedAt(),
	).Scan(&id)
	if err != nil {
		return model.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c.WithID(id), nil
}

// FindByID retrieves a customer by ID.
func (r *CustomerRepo) FindByID(ctx context.Context, id int64) (model.Customer, error) {
	return r.findOne(ctx, `SELECT`+customerColumns+` FROM customers WHERE customer_id = $1`, id)
}

// FindByIDForUpdate retrieves a customer and locks its row for the rest of the transaction.
func (r *CustomerRepo) FindByIDForUpdate(ctx context.Context, id int64) (model.Customer, error) {
	return r.findOne(ctx, `SELECT`+customerColumns+` FROM customers WHERE customer_id = $1 FOR UPDATE`, id)
}

func (r *CustomerRepo) findOne(ctx context.Context, query string, id int64) (model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Customer{}, fmt.Errorf("%w: %d", port.ErrCustomerNotFound, id)
		}
		return model.Customer{}, err
	}
	return c, nil
}

// FindByIDs returns the customers that exist among ids, keyed by ID.
func (r *CustomerRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Customer, error) {
	out := make(map[int64]model.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT`+customerColumns+` FROM customers WHERE customer_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out[c.ID()] = c
	}
	return out, rows.Err()
}

// Update overwrites every mutable column of an existing customer.
func (r *CustomerRepo) Update(ctx context.Context, c model.Customer) error {
	query := `
		UPDATE customers SET
			first_name     = $2,
			last_name      = $3,
			age            = $4,
			phone_number   = $5,
			monthly_salary = $6,
			approved_limit = $7,
			current_debt   = $8,
			updated_at     = $9
		WHERE customer_id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		c.ID(), c.FirstName(), c.LastName(), c.Age(), c.PhoneNumber(),
		c.MonthlyIncome(), c.ApprovedLimit(), c.CurrentDebt(), c.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", port.ErrCustomerNotFound, c.ID())
	}
	return nil
}

// UpsertMany writes customers with their own IDs in one batch. Existing rows
// keep their current debt and creation time.
func (r *CustomerRepo) UpsertMany(ctx context.Context, customers []model.Customer) (created, updated int, err error) {
	if len(customers) == 0 {
		return 0, 0, nil
	}

	// xmax is zero only for freshly inserted tuples.
	query := `
		INSERT INTO customers (
			customer_id, first_name, last_name, age, phone_number,
			monthly_salary, approved_limit, current_debt, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (customer_id) DO UPDATE SET
			first_name     = EXCLUDED.first_name,
			last_name      = EXCLUDED.last_name,
			age            = EXCLUDED.age,
			phone_number   = EXCLUDED.phone_number,
			monthly_salary = EXCLUDED.monthly_salary,
			approved_limit = EXCLUDED.approved_limit,
			updated_at     = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`
	batch := &pgx.Batch{}
	for _, c := range customers {
		batch.Queue(query,
			c.ID(), c.FirstName(), c.LastName(), c.Age(), c.PhoneNumber(),
			c.MonthlyIncome(), c.ApprovedLimit(), c.CurrentDebt(), c.CreatedAt(), c.UpdatedAt(),
		)
	}

	results := r.db.SendBatch(ctx, batch)
	for _, c := range customers {
		var inserted bool
		if err := results.QueryRow().Scan(&inserted); err != nil {
			_ = results.Close() //nolint:errcheck // the scan error is the one to report
			return 0, 0, fmt.Errorf("upsert customer %d: %w", c.ID(), err)
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}
	if err := results.Close(); err != nil {
		return 0, 0, fmt.Errorf("close batch: %w", err)
	}

	if err := syncIdentity(ctx, r.db, "customers", "customer_id"); err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

// SetCurrentDebts overwrites the current debt of the given customers.
func (r *CustomerRepo) SetCurrentDebts(ctx context.Context, debts map[int64]decimal.Decimal, now time.Time) (int, error) {
	if len(debts) == 0 {
		return 0, nil
	}
	ids := make([]int64, 0, len(debts))
	amounts := make([]string, 0, len(debts))
	for id, debt := range debts {
		ids = append(ids, id)
		amounts = append(amounts, debt.String())
	}

	query := `
		UPDATE customers AS c SET
			current_debt = d.debt::numeric,
			updated_at   = $3
		FROM unnest($1::bigint[], $2::text[]) AS d(customer_id, debt)
		WHERE c.customer_id = d.customer_id
	`
	tag, err := r.db.Exec(ctx, query, ids, amounts, now)
	if err != nil {
		return 0, fmt.Errorf("set current debts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Count returns the number of stored customers.
func (r *CustomerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// List returns up to limit customers ordered by ID.
func (r *CustomerRepo) List(ctx context.Context, limit int) ([]model.Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT`+customerColumns+` FROM customers ORDER BY customer_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func scanCustomer(s scannable) (model.Customer, error) {
	var (
		id                         int64
		firstName, lastName, phone string
		age                        int
		income, limit, debt        decimal.Decimal
		createdAt, updatedAt       time.Time
	)
	err := s.Scan(
		&id, &firstName, &lastName, &age, &phone,
		&income, &limit, &debt, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Customer{}, fmt.Errorf("scan customer: %w", err)
	}
	return model.ReconstructCustomer(
		id, firstName, lastName, age, phone,
		income, limit, debt, createdAt, updatedAt,
	), nil
}
