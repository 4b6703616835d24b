package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/sos-sentinel/internal/service/sentinel"
)

var (
	// directoryCmd groups the directory store subcommands.
	directoryCmd = &cobra.Command{
		Use:   "directory",
		Short: "Manage emergency contacts and subscribers.",
	}

	// contactsCmd edits the emergency phone numbers of a user.
	contactsCmd = newListCommand(sentinel.ListContacts, "phone-number",
		"Manage the phone numbers that receive SOS text messages.")

	// subscribersCmd edits who receives distress records of a user.
	subscribersCmd = newListCommand(sentinel.ListSubscribers, "subscriber-id",
		"Manage the users that receive distress records.")
)

// newListCommand builds `<list> add|remove|list <user-id> [values...]`.
func newListCommand(list, valueName, short string) *cobra.Command {
	command := &cobra.Command{
		Use:   list,
		Short: short,
	}

	run := func(action string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return sentinel.ManageDirectory(cmd.Context(), &sentinel.DirectoryOptions{
				ConfigPath: configPath,
				List:       list,
				Action:     action,
				UserID:     args[0],
				Values:     args[1:],
				Out:        cmd.OutOrStdout(),
			})
		}
	}

	command.AddCommand(
		&cobra.Command{
			Use:   "add <user-id> <" + valueName + ">...",
			Short: "Add entries.",
			Args:  cobra.MinimumNArgs(2), //nolint:mnd // User plus at least one value.
			RunE:  run(sentinel.ActionAdd),
		},
		&cobra.Command{
			Use:   "remove <user-id> <" + valueName + ">...",
			Short: "Remove entries.",
			Args:  cobra.MinimumNArgs(2), //nolint:mnd // User plus at least one value.
			RunE:  run(sentinel.ActionRemove),
		},
		&cobra.Command{
			Use:   "list <user-id>",
			Short: "Print entries.",
			Args:  cobra.ExactArgs(1),
			RunE:  run(sentinel.ActionList),
		},
	)

	return command
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	directoryCmd.AddCommand(contactsCmd, subscribersCmd)
}
