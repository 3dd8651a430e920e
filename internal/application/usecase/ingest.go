package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
)

// ---------------------------------------------------------------------------
// IngestCustomersUseCase
// ---------------------------------------------------------------------------

// IngestCustomersUseCase loads a customer workbook, upserting by customer ID.
type IngestCustomersUseCase struct {
	tx     port.Transactor
	reader port.SpreadsheetReader
}

// NewIngestCustomersUseCase wires dependencies.
func NewIngestCustomersUseCase(tx port.Transactor, reader port.SpreadsheetReader) *IngestCustomersUseCase {
	return &IngestCustomersUseCase{tx: tx, reader: reader}
}

// Execute creates unknown customers with zero debt and overwrites the profile
// of known ones. Later rows win over earlier rows with the same ID.
func (uc *IngestCustomersUseCase) Execute(ctx context.Context, req dto.IngestFileRequest) (model.ImportStats, error) {
	rows, err := uc.reader.ReadCustomers(ctx, req.Path)
	if err != nil {
		return model.ImportStats{}, fmt.Errorf("read customers: %w", err)
	}

	customers := dedupeCustomers(rows)
	if len(customers) == 0 {
		return model.ImportStats{}, nil
	}

	var stats model.ImportStats
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		created, updated, err := repos.Customers.UpsertMany(ctx, customers)
		if err != nil {
			return fmt.Errorf("upsert customers: %w", err)
		}
		stats.CustomersCreated = created
		stats.CustomersUpdated = updated
		return nil
	})
	if err != nil {
		return model.ImportStats{}, err
	}
	return stats, nil
}

func dedupeCustomers(rows []model.Customer) []model.Customer {
	index := make(map[int64]int, len(rows))
	out := make([]model.Customer, 0, len(rows))
	for _, c := range rows {
		if i, seen := index[c.ID()]; seen {
			out[i] = c
			continue
		}
		index[c.ID()] = len(out)
		out = append(out, c)
	}
	return out
}

// ---------------------------------------------------------------------------
// IngestLoansUseCase
// ---------------------------------------------------------------------------

// IngestLoansUseCase loads a loan workbook, replacing loans with the same IDs.
type IngestLoansUseCase struct {
	tx     port.Transactor
	reader port.SpreadsheetReader
}

// NewIngestLoansUseCase wires dependencies.
func NewIngestLoansUseCase(tx port.Transactor, reader port.SpreadsheetReader) *IngestLoansUseCase {
	return &IngestLoansUseCase{tx: tx, reader: reader}
}

// Execute drops rows without a positive loan ID, keeps the first row per loan
// ID, skips rows of unknown customers and, atomically, replaces the loans and
// resets each touched customer's debt to what remains unpaid on the imported loans.
func (uc *IngestLoansUseCase) Execute(ctx context.Context, req dto.IngestFileRequest) (model.ImportStats, error) {
	rows, err := uc.reader.ReadLoans(ctx, req.Path)
	if err != nil {
		return model.ImportStats{}, fmt.Errorf("read loans: %w", err)
	}

	loans := make([]model.Loan, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, l := range rows {
		if l.ID() <= 0 {
			continue
		}
		if _, dup := seen[l.ID()]; dup {
			continue
		}
		seen[l.ID()] = struct{}{}
		loans = append(loans, l)
	}

	stats := model.ImportStats{LoansSkipped: len(rows) - len(loans)}
	if len(loans) == 0 {
		return stats, nil
	}

	now := time.Now().UTC()
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		ids := make([]int64, 0, len(loans))
		customerIDs := make([]int64, 0, len(loans))
		for _, l := range loans {
			ids = append(ids, l.ID())
			customerIDs = append(customerIDs, l.CustomerID())
		}

		deleted, err := repos.Loans.DeleteByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("delete loans: %w", err)
		}
		stats.LoansDeleted = deleted

		known, err := repos.Customers.FindByIDs(ctx, customerIDs)
		if err != nil {
			return fmt.Errorf("find customers: %w", err)
		}

		kept := make([]model.Loan, 0, len(loans))
		debts := make(map[int64]decimal.Decimal)
		for _, l := range loans {
			if _, ok := known[l.CustomerID()]; !ok {
				stats.LoansSkipped++
				continue
			}
			kept = append(kept, l)
			debts[l.CustomerID()] = debts[l.CustomerID()].Add(l.OutstandingDebt())
		}

		created, err := repos.Loans.InsertMany(ctx, kept)
		if err != nil {
			return fmt.Errorf("insert loans: %w", err)
		}
		stats.LoansCreated = created

		updated, err := repos.Customers.SetCurrentDebts(ctx, debts, now)
		if err != nil {
			return fmt.Errorf("update customer debts: %w", err)
		}
		stats.DebtsUpdated = updated
		return nil
	})
	if err != nil {
		return model.ImportStats{}, err
	}
	return stats, nil
}
