package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/service/client"
	"github.com/oshokin/sos-sentinel/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides grpc_addr from the configuration.
	serverAddress string
	// timestampMs stamps a reported toggle.
	timestampMs int64

	// rootCmd is the base command; every action is a subcommand.
	rootCmd = &cobra.Command{
		Use:   "sos-ctl",
		Short: "Control a running sos-sentinel daemon.",
		Long: `Reads or changes the monitoring flag of sos-sentinel, reports screen
toggles and starts a manual SOS alert.

"on" and "off" retry until the daemon confirms the new state or the command is
interrupted.`,
	}
)

// newActionCommand builds a subcommand that runs one client action.
func newActionCommand(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.Run(ctx, &client.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Action:        action,
				TimestampMs:   timestampMs,
				Out:           cmd.OutOrStdout(),
			})
		},
	}
}

// Execute runs the sos-ctl CLI and exits with non-zero status on error.
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
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "sentinel gRPC address override")

	toggleCmd := newActionCommand(client.ActionToggle, "Report one screen toggle.")
	toggleCmd.Flags().Int64Var(&timestampMs, "timestamp", 0, "toggle time in unix milliseconds, zero for now")

	rootCmd.AddCommand(
		newActionCommand(client.ActionStatus, "Print the monitoring state."),
		newActionCommand(client.ActionArm, "Arm monitoring."),
		newActionCommand(client.ActionDisarm, "Disarm monitoring."),
		toggleCmd,
		newActionCommand(client.ActionTrigger, "Start an SOS alert now."),
	)
}
