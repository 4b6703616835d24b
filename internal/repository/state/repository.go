package state

import (
	"context"
	"errors"
	"time"

	domain "github.com/oshokin/sos-sentinel/internal/domain/monitoring"
)

// Repository defines persistence operations for the monitoring flag.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

// ErrNotFound is returned when the flag was never saved.
var ErrNotFound = errors.New("state not found")

// record is the storage shape shared by the file and redis backends.
type record struct {
	Armed     bool   `yaml:"armed"`
	Timestamp string `yaml:"timestamp,omitempty"`
	Hostname  string `yaml:"hostname,omitempty"`
	Username  string `yaml:"username,omitempty"`
}

func toRecord(state *domain.State) record {
	r := record{Armed: state.Armed}

	if !state.Timestamp.IsZero() {
		r.Timestamp = state.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	if state.LastActor != nil {
		r.Hostname = state.LastActor.Hostname
		r.Username = state.LastActor.Username
	}

	return r
}

func fromRecord(r record) (*domain.State, error) {
	state := &domain.State{Armed: r.Armed}

	if r.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return nil, err
		}

		state.Timestamp = ts
	}

	if r.Hostname != "" || r.Username != "" {
		state.LastActor = &domain.Actor{
			Hostname: r.Hostname,
			Username: r.Username,
		}
	}

	return state, nil
}
