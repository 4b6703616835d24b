package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/domain/monitoring"
	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/service/common"
)

// Actions understood by Run.
const (
	ActionStatus  = "status"
	ActionArm     = "on"
	ActionDisarm  = "off"
	ActionToggle  = "toggle"
	ActionTrigger = "trigger"
)

// Options configures one sos-ctl invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the gRPC address from config when specified.
	ServerAddress string
	// Action is one of the Action constants.
	Action string
	// TimestampMs stamps a toggle; zero lets the daemon use its clock.
	TimestampMs int64
	// Out receives the human readable result.
	Out io.Writer
}

// Sentinel is the part of the gRPC client Run needs.
type Sentinel interface {
	GetMonitoring(ctx context.Context) (*monitoring.State, error)
	SetMonitoring(ctx context.Context, actor *monitoring.Actor, armed bool) (*monitoring.State, error)
	ReportToggle(ctx context.Context, timestampMs int64) (bool, error)
	Trigger(ctx context.Context) error
}

// defaultPushInterval defines retry delay when pushing the monitoring flag.
const defaultPushInterval = 1 * time.Second

// errUnknownAction is returned for an unsupported action.
var errUnknownAction = errors.New("unknown action")

// Run connects to the daemon and performs opts.Action.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sos-ctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.GRPCAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	return Execute(ctx, client, opts)
}

// Execute performs opts.Action against an already connected daemon.
func Execute(ctx context.Context, sentinel Sentinel, opts *Options) error {
	switch opts.Action {
	case ActionStatus:
		state, err := sentinel.GetMonitoring(ctx)
		if err != nil {
			return err
		}

		return printf(opts.Out, "Monitoring %s\n", FormatState(state))
	case ActionArm, ActionDisarm:
		actor, err := common.DetectActor()
		if err != nil {
			return err
		}

		state, err := push(ctx, sentinel, actor, opts.Action == ActionArm)
		if err != nil {
			return err
		}

		return printf(opts.Out, "Monitoring %s\n", FormatState(state))
	case ActionToggle:
		fired, err := sentinel.ReportToggle(ctx, opts.TimestampMs)
		if err != nil {
			return err
		}

		if fired {
			return printf(opts.Out, "Gesture recognized, SOS alert dispatched\n")
		}

		return printf(opts.Out, "Toggle recorded\n")
	case ActionTrigger:
		if err := sentinel.Trigger(ctx); err != nil {
			return err
		}

		return printf(opts.Out, "SOS alert dispatched\n")
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, opts.Action)
	}
}

// push retries SetMonitoring until the daemon confirms the desired flag.
func push(ctx context.Context, sentinel Sentinel, actor *monitoring.Actor, armed bool) (*monitoring.State, error) {
	logger.InfoKV(ctx, "Pushing desired monitoring state", "armed", armed)

	// attempt tries once to change the flag and reports the confirmed state.
	attempt := func() *monitoring.State {
		state, err := sentinel.SetMonitoring(ctx, actor, armed)
		if err != nil {
			logger.ErrorKV(ctx, "SetMonitoring failed", "error", err)

			return nil
		}

		if state.IsArmed() != armed {
			return nil
		}

		return state
	}

	if state := attempt(); state != nil {
		return state, nil
	}

	ticker := time.NewTicker(defaultPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if state := attempt(); state != nil {
				return state, nil
			}
		}
	}
}

// FormatState renders the flag as "armed by user@host (time)".
func FormatState(state *monitoring.State) string {
	if state == nil {
		return "<nil state>"
	}

	timestamp := "<unknown>"
	if !state.Timestamp.IsZero() {
		timestamp = state.Timestamp.Format(time.RFC3339)
	}

	status := "disarmed"
	if state.Armed {
		status = "armed"
	}

	return fmt.Sprintf("%s by %s (%s)", status, state.LastActor.String(), timestamp)
}

func printf(out io.Writer, format string, args ...any) error {
	if out == nil {
		return nil
	}

	if _, err := fmt.Fprintf(out, format, args...); err != nil {
		return fmt.Errorf("print result: %w", err)
	}

	return nil
}
