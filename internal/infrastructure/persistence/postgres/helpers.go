package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	pkgpostgres "github.com/bibbank/origination/pkg/postgres"
)

// scannable is implemented by pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// syncIdentity moves the identity sequence of table past the largest stored ID,
// so generated IDs never collide with IDs written explicitly by an import.
func syncIdentity(ctx context.Context, db pkgpostgres.Querier, table, column string) error {
	query := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', '%[2]s'), GREATEST((SELECT COALESCE(MAX(%[2]s), 0) FROM %[1]s), 1))`,
		table, column,
	)
	if _, err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("sync %s identity: %w", table, err)
	}
	return nil
}

// toNumeric converts a decimal for the binary COPY protocol, which has no text fallback.
func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
