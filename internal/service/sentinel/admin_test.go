package sentinel

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/identity"
)

func writeSettings(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultConfigFilename)

	//nolint:exhaustruct // Validate fills defaults.
	settings := &config.Config{
		GRPCAddress: "127.0.0.1:7000",
		Storage:     config.Storage{Driver: config.DriverSQLite, DSN: filepath.Join(dir, "directory.db")},
		Identity:    config.Identity{SigningKey: "secret"},
	}

	require.NoError(t, config.Save(path, settings))

	return path
}

func TestManageDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := writeSettings(t)

	run := func(list, action string, values ...string) string {
		var out bytes.Buffer

		require.NoError(t, ManageDirectory(ctx, &DirectoryOptions{
			ConfigPath: path,
			List:       list,
			Action:     action,
			UserID:     "alice",
			Values:     values,
			Out:        &out,
		}))

		return out.String()
	}

	run(ListContacts, ActionAdd, "+15550001", "+15550002")
	run(ListSubscribers, ActionAdd, "bob")
	require.Equal(t, "+15550001\n+15550002\n", run(ListContacts, ActionList))

	run(ListContacts, ActionRemove, "+15550001")
	require.Equal(t, "+15550002\n", run(ListContacts, ActionList))
	require.Equal(t, "bob\n", run(ListSubscribers, ActionList))
}

func TestManageDirectory_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := writeSettings(t)

	err := ManageDirectory(ctx, &DirectoryOptions{ConfigPath: path, List: ListContacts, Action: ActionList})
	require.ErrorIs(t, err, errUserRequired)

	err = ManageDirectory(ctx, &DirectoryOptions{ConfigPath: path, List: "friends", Action: ActionList, UserID: "a"})
	require.ErrorIs(t, err, errUnknownList)

	err = ManageDirectory(ctx, &DirectoryOptions{ConfigPath: path, List: ListContacts, Action: "purge", UserID: "a"})
	require.ErrorIs(t, err, errUnknownAction)
}

func TestIssueSession(t *testing.T) {
	t.Parallel()

	path := writeSettings(t)

	var out bytes.Buffer

	require.NoError(t, IssueSession(context.Background(), &SessionOptions{
		ConfigPath: path,
		UserID:     "alice",
		TTL:        time.Hour,
		Save:       true,
		Out:        &out,
	}))

	settings, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.Identity.SessionToken+"\n", out.String())

	user, err := identity.NewProvider(settings.Identity.SessionToken, "secret").CurrentUserID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", user)

	err = IssueSession(context.Background(), &SessionOptions{ConfigPath: path, Out: &out})
	require.ErrorIs(t, err, errUserRequired)
}
