//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/oshokin/sos-sentinel/internal/domain/monitoring"
)

// Environment variables consulted when the user database has no entry, as in
// minimal containers running under an arbitrary uid.
var usernameEnvVars = []string{"SUDO_USER", "USER", "USERNAME", "LOGNAME"} //nolint:gochecknoglobals // Read-only lookup list.

// DetectActor identifies the operator flipping the monitoring flag.
func DetectActor() (*monitoring.Actor, error) {
	return detectActor(os.Hostname, currentUsername)
}

func detectActor(hostname, username func() (string, error)) (*monitoring.Actor, error) {
	host, err := hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	name, err := username()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &monitoring.Actor{
		Hostname: strings.TrimSpace(host),
		Username: strings.TrimSpace(name),
	}, nil
}

func currentUsername() (string, error) {
	current, err := user.Current()
	if err == nil && current.Username != "" {
		return current.Username, nil
	}

	for _, key := range usernameEnvVars {
		if value := os.Getenv(key); value != "" {
			return value, nil
		}
	}

	if err != nil {
		return "", err
	}

	return "", errNoUsername
}
