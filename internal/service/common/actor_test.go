//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectActor(t *testing.T) {
	t.Parallel()

	a, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, a.Hostname)
	require.NotEmpty(t, a.Username)
}

func TestDetectActor_Sources(t *testing.T) {
	t.Parallel()

	fixed := func(value string) func() (string, error) {
		return func() (string, error) { return value, nil }
	}
	failing := func() (string, error) { return "", errors.New("boom") }

	a, err := detectActor(fixed(" phone-1\n"), fixed("alice"))
	require.NoError(t, err)
	require.Equal(t, "alice@phone-1", a.String())

	_, err = detectActor(failing, fixed("alice"))
	require.ErrorContains(t, err, "hostname")

	_, err = detectActor(fixed("phone-1"), failing)
	require.ErrorContains(t, err, "current user")
}
