package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibbank/origination/internal/infrastructure/persistence/postgres"
	pkgpostgres "github.com/bibbank/origination/pkg/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded schema migrations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrateUp,
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE:  runMigrateDown,
	}
	down.Flags().Bool("yes", false, "confirm dropping all origination tables")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE:  runMigrateVersion,
	})

	return cmd
}

func runMigrateUp(_ *cobra.Command, _ []string) error {
	if err := pkgpostgres.RunMigrations(cfg.DB.Postgres().DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	confirmed, _ := cmd.Flags().GetBool("yes")
	if !confirmed {
		return fmt.Errorf("refusing to roll back without --yes")
	}
	if err := pkgpostgres.RunMigrationsDown(cfg.DB.Postgres().DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
		return err
	}
	logger.Info("migrations rolled back")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	version, dirty, err := pkgpostgres.MigrationVersion(cfg.DB.Postgres().DSN(), postgres.Migrations, postgres.MigrationsDir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
	return err
}
