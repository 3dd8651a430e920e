package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibbank/origination/pkg/tlsutil"
)

func devCertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev-certs",
		Short: "Generate a development CA and gRPC server certificate",
		Long: `Write a throwaway CA and a server certificate signed by it. Point
GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE at the server files to enable TLS
locally. Never use these certificates outside development.`,
		Args: cobra.NoArgs,
		RunE: runDevCerts,
	}

	cmd.Flags().String("out", "certs", "output directory")
	cmd.Flags().StringSlice("host", []string{"localhost", "127.0.0.1"}, "DNS names or IPs the server certificate covers")

	return cmd
}

func runDevCerts(cmd *cobra.Command, _ []string) error {
	outDir, _ := cmd.Flags().GetString("out")
	hosts, _ := cmd.Flags().GetStringSlice("host")
	if len(hosts) == 0 {
		return fmt.Errorf("at least one --host is required")
	}

	paths, err := tlsutil.GenerateSelfSignedCert(hosts, outDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "CA certificate:     %s\n", paths.CACert)
	fmt.Fprintf(out, "CA key:             %s\n", paths.CAKey)
	fmt.Fprintf(out, "Server certificate: %s\n", paths.ServerCert)
	fmt.Fprintf(out, "Server key:         %s\n", paths.ServerKey)
	return nil
}
