package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/origination/internal/domain/model"
)

func TestApprovedLimitFor(t *testing.T) {
	tests := []struct {
		income string
		want   string
	}{
		{income: "50000", want: "1800000"},
		{income: "40000", want: "1400000"},  // 1,440,000 rounds down
		{income: "37500", want: "1400000"},  // 1,350,000 ties to even
		{income: "12500", want: "400000"},   // 450,000 ties to even
		{income: "1000", want: "0"},         // 36,000 rounds down
		{income: "97222", want: "3500000"},  // 3,499,992 rounds up
	}

	for _, tt := range tests {
		t.Run(tt.income, func(t *testing.T) {
			got := model.ApprovedLimitFor(decimal.RequireFromString(tt.income))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestNewCustomer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("derives the approved limit and starts without debt", func(t *testing.T) {
		c, err := model.NewCustomer(" Grace ", "Hopper", 45, "9876543210", decimal.NewFromInt(50000), now)
		require.NoError(t, err)

		assert.Zero(t, c.ID())
		assert.Equal(t, "Grace", c.FirstName())
		assert.Equal(t, "Grace Hopper", c.FullName())
		assert.True(t, c.ApprovedLimit().Equal(decimal.NewFromInt(1800000)))
		assert.True(t, c.CurrentDebt().IsZero())
		assert.Equal(t, now, c.CreatedAt())
	})

	invalid := []struct {
		name   string
		first  string
		last   string
		age    int
		phone  string
		income int64
	}{
		{name: "missing first name", first: "", last: "Hopper", age: 45, phone: "1", income: 1000},
		{name: "missing last name", first: "Grace", last: "  ", age: 45, phone: "1", income: 1000},
		{name: "zero age", first: "Grace", last: "Hopper", age: 0, phone: "1", income: 1000},
		{name: "missing phone", first: "Grace", last: "Hopper", age: 45, phone: "", income: 1000},
		{name: "zero income", first: "Grace", last: "Hopper", age: 45, phone: "1", income: 0},
		{name: "negative income", first: "Grace", last: "Hopper", age: 45, phone: "1", income: -10},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.NewCustomer(tt.first, tt.last, tt.age, tt.phone, decimal.NewFromInt(tt.income), now)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestCustomer_Debt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	c, err := model.NewCustomer("Grace", "Hopper", 45, "9876543210", decimal.NewFromInt(50000), now)
	require.NoError(t, err)

	withLoan := c.WithID(7).AddDebt(decimal.NewFromInt(250000), later)
	assert.Equal(t, int64(7), withLoan.ID())
	assert.True(t, withLoan.CurrentDebt().Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, later, withLoan.UpdatedAt())

	// the original copy is untouched
	assert.True(t, c.CurrentDebt().IsZero())
	assert.Zero(t, c.ID())

	reset := withLoan.WithCurrentDebt(decimal.NewFromInt(10), later)
	assert.True(t, reset.CurrentDebt().Equal(decimal.NewFromInt(10)))
}
