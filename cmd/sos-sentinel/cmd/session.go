package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/sos-sentinel/internal/service/sentinel"
)

var (
	// sessionTTL bounds the issued token lifetime.
	sessionTTL time.Duration
	// sessionSave stores the token in the settings file.
	sessionSave bool

	// sessionCmd issues a session token signed with identity.signing_key.
	sessionCmd = &cobra.Command{
		Use:   "session <user-id>",
		Short: "Issue a session token for the device owner.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sentinel.IssueSession(cmd.Context(), &sentinel.SessionOptions{
				ConfigPath: configPath,
				UserID:     args[0],
				TTL:        sessionTTL,
				Save:       sessionSave,
				Out:        cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	sessionCmd.Flags().DurationVar(&sessionTTL, "ttl", 0, "token lifetime, zero never expires")
	sessionCmd.Flags().BoolVar(&sessionSave, "save", false, "write the token into the configuration file")
}
