package main

import (
	"github.com/spf13/cobra"

	"github.com/bibbank/origination/internal/application/usecase"
	"github.com/bibbank/origination/internal/infrastructure/persistence/postgres"
)

func checkDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-data",
		Short: "Print record counts and a sample of stored customers and loans",
		Args:  cobra.NoArgs,
		RunE:  runCheckData,
	}
}

func runCheckData(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	status, err := usecase.NewDataStatusUseCase(store.Customers(), store.Loans()).Execute(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), status)
}
