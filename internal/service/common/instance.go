//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another daemon process is alive.
var ErrAlreadyRunning = errors.New("another instance is already running")

// listProcesses is replaced in tests.
//
//nolint:gochecknoglobals // Test seam over the process table.
var listProcesses = ps.Processes

// EnsureSingleInstance fails if another process runs the same executable.
// Two daemons would double every alert.
func EnsureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	return ensureSingle(filepath.Base(executable), os.Getpid())
}

func ensureSingle(executable string, thisProcessID int) error {
	processList, err := listProcesses()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != executable {
			continue
		}

		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, executable, process.Pid())
	}

	return nil
}
