package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/origination/pkg/testutil"
)

func newTestStore(t *testing.T) (*postgres.Store, *testutil.PostgresContainer) {
	t.Helper()
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	pc.Migrate(t, postgres.Migrations, postgres.MigrationsDir)
	return postgres.NewStore(pc.Pool), pc
}

func TestStore(t *testing.T) {
	store, pc := newTestStore(t)
	ctx := context.Background()

	reset := func(t *testing.T) {
		t.Helper()
		pc.Truncate(ctx, t, "loans", "customers")
	}

	t.Run("customer round trip", func(t *testing.T) {
		reset(t)
		customers := store.Customers()

		c, err := model.NewCustomer("Ada", "Lovelace", 36, "9876543210", decimal.NewFromInt(50000), testutil.FixedTime)
		require.NoError(t, err)
		created, err := customers.Create(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID())

		found, err := customers.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "Ada", found.FirstName())
		testutil.AssertDecimal(t, "1800000", found.ApprovedLimit())
		testutil.AssertDecimal(t, "0", found.CurrentDebt())

		_, err = customers.FindByID(ctx, 404)
		assert.ErrorIs(t, err, port.ErrCustomerNotFound)
	})

	t.Run("import keeps explicit ids and later inserts continue after them", func(t *testing.T) {
		reset(t)
		customers := store.Customers()

		created, updated, err := customers.UpsertMany(ctx, []model.Customer{
			testutil.Customer(10, 30000),
			testutil.Customer(20, 40000),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, created)
		assert.Zero(t, updated)

		created, updated, err = customers.UpsertMany(ctx, []model.Customer{testutil.Customer(20, 45000)})
		require.NoError(t, err)
		assert.Zero(t, created)
		assert.Equal(t, 1, updated)

		c, err := model.NewCustomer("New", "Comer", 20, "1", decimal.NewFromInt(1000), testutil.FixedTime)
		require.NoError(t, err)
		c, err = customers.Create(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, int64(21), c.ID())

		n, err := customers.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("loan bulk insert and debts", func(t *testing.T) {
		reset(t)
		_, _, err := store.Customers().UpsertMany(ctx, []model.Customer{testutil.Customer(1, 50000)})
		require.NoError(t, err)

		start := time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC)
		err = store.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
			if _, err := repos.Loans.InsertMany(ctx, []model.Loan{
				testutil.Loan(5, 1, "100000", "12", 12, 3, start),
				testutil.Loan(6, 1, "50000", "10.5", 24, 0, start),
			}); err != nil {
				return err
			}
			_, err := repos.Customers.SetCurrentDebts(ctx, map[int64]decimal.Decimal{1: decimal.RequireFromString("1234.56")}, testutil.FixedTime)
			return err
		})
		require.NoError(t, err)

		loans, err := store.Loans().FindByCustomerID(ctx, 1)
		require.NoError(t, err)
		require.Len(t, loans, 2)
		assert.Equal(t, int64(5), loans[0].ID())
		assert.Equal(t, start, loans[0].StartDate())
		assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), loans[0].EndDate())
		testutil.AssertDecimal(t, "10.5", loans[1].InterestRate())
		testutil.AssertDecimal(t, "8884.88", loans[0].MonthlyRepayment())

		c, err := store.Customers().FindByID(ctx, 1)
		require.NoError(t, err)
		testutil.AssertDecimal(t, "1234.56", c.CurrentDebt())

		deleted, err := store.Loans().DeleteByIDs(ctx, []int64{5, 99})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		created, err := model.NewLoan(1, decimal.NewFromInt(1000), 6, decimal.NewFromInt(12), decimal.NewFromInt(172), start, testutil.FixedTime)
		require.NoError(t, err)
		created, err = store.Loans().Create(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, int64(7), created.ID())
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		reset(t)
		boom := errors.New("boom")

		err := store.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
			if _, _, err := repos.Customers.UpsertMany(ctx, []model.Customer{testutil.Customer(1, 50000)}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		n, err := store.Customers().Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("update of a missing customer", func(t *testing.T) {
		reset(t)
		err := store.Customers().Update(ctx, testutil.Customer(77, 1000))
		assert.ErrorIs(t, err, port.ErrCustomerNotFound)

		_, err = store.Loans().FindByID(ctx, 77)
		assert.ErrorIs(t, err, port.ErrLoanNotFound)
	})
}
