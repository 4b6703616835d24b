package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/service/sentinel"
	"github.com/oshokin/sos-sentinel/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// grpcAddress overrides the gRPC listen address.
	grpcAddress string
	// httpAddress overrides the HTTP listen address.
	httpAddress string
	// allowMultiple skips the single instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "sos-sentinel",
		Short: "Watch screen toggles and raise an SOS alert on the panic gesture.",
		Long: `Runs the SOS sentinel daemon.

While monitoring is armed, five screen toggles within three seconds raise an
SOS alert: every emergency contact receives a text message with the current
location and every subscriber gets a distress record.

Screen toggles arrive over gRPC, HTTP or the MQTT topic <prefix>/screen.
Only the port of grpc_addr is used for listening unless --grpc overrides it.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &sentinel.Options{
				ConfigPath:    configPath,
				GRPCAddress:   grpcAddress,
				HTTPAddress:   httpAddress,
				AllowMultiple: allowMultiple,
			}

			return sentinel.Run(ctx, options)
		},
	}
)

// Execute runs the sos-sentinel CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&grpcAddress, "grpc", "", "gRPC listen address override, e.g. :7000")
	rootCmd.Flags().StringVar(&httpAddress, "http", "", "HTTP listen address override, e.g. :8080")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single instance check")

	rootCmd.AddCommand(directoryCmd, sessionCmd)
}
