package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	pkgpostgres "github.com/bibbank/origination/pkg/postgres"
)

const connectTimeout = 10 * time.Second

// openPool connects to the configured database.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pkgpostgres.NewPool(connCtx, cfg.DB.Postgres())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
