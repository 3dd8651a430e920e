package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bibbank/origination/internal/infrastructure/config"
	"github.com/bibbank/origination/pkg/observability"
)

var (
	cfgFile string
	cfg     config.Config
	logger  = slog.Default()
	rootCmd = &cobra.Command{
		Use:   "originationctl",
		Short: "Operate the loan origination service",
		Long: `originationctl runs maintenance tasks against the origination database:
loading the customer and loan workbooks, checking what has been loaded,
applying schema migrations and generating development TLS certificates.

Configuration is read from the same environment variables as originationd.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $ORIGINATION_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(loadDataCmd())
	rootCmd.AddCommand(checkDataCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(devCertsCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	decimal.MarshalJSONWithoutQuotes = true

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	v := viper.GetViper()
	config.SetDefaults(v)

	file := cfgFile
	if file == "" {
		file = os.Getenv(config.EnvConfigFile)
	}

	loaded, err := config.FromViper(v, file)
	if err != nil {
		return err
	}
	cfg = loaded

	// Logs go to stderr so command output on stdout stays parseable.
	logger = observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
	return nil
}
