package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/application/usecase"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/origination/internal/infrastructure/spreadsheet"
)

func loadDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load-data",
		Short: "Load the customer and loan workbooks synchronously",
		Long: `Load customers first, then loans, from the configured workbooks.

Customers are upserted by customer ID. Loans replace any stored loan with the
same ID, and every touched customer's current debt is recomputed from their
approved loans.`,
		RunE: runLoadData,
	}

	cmd.Flags().String("customer-file", "", "customer workbook (default: $IMPORT_CUSTOMER_FILE)")
	cmd.Flags().String("loan-file", "", "loan workbook (default: $IMPORT_LOAN_FILE)")
	cmd.Flags().Bool("skip-customers", false, "only load loans")
	cmd.Flags().Bool("skip-loans", false, "only load customers")

	_ = viper.BindPFlag("import.customer_file", cmd.Flags().Lookup("customer-file"))
	_ = viper.BindPFlag("import.loan_file", cmd.Flags().Lookup("loan-file"))

	return cmd
}

func runLoadData(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	skipCustomers, _ := cmd.Flags().GetBool("skip-customers")
	skipLoans, _ := cmd.Flags().GetBool("skip-loans")
	if skipCustomers && skipLoans {
		return fmt.Errorf("--skip-customers and --skip-loans cannot both be set")
	}

	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	reader := spreadsheet.NewReader()

	var stats model.ImportStats
	if !skipCustomers {
		logger.Info("loading customers", "file", cfg.Import.CustomerFile)
		s, err := usecase.NewIngestCustomersUseCase(store, reader).Execute(ctx, dto.IngestFileRequest{Path: cfg.Import.CustomerFile})
		if err != nil {
			return fmt.Errorf("load customers: %w", err)
		}
		stats = stats.Add(s)
	}
	if !skipLoans {
		logger.Info("loading loans", "file", cfg.Import.LoanFile)
		s, err := usecase.NewIngestLoansUseCase(store, reader).Execute(ctx, dto.IngestFileRequest{Path: cfg.Import.LoanFile})
		if err != nil {
			return fmt.Errorf("load loans: %w", err)
		}
		stats = stats.Add(s)
	}

	logger.Info("data loaded",
		"customers_created", stats.CustomersCreated,
		"customers_updated", stats.CustomersUpdated,
		"loans_created", stats.LoansCreated,
		"loans_skipped", stats.LoansSkipped,
	)
	return printJSON(cmd.OutOrStdout(), stats)
}
