package sentinel

import (
	"context"
	"errors"

	"github.com/oshokin/sos-sentinel/internal/detector"
	"github.com/oshokin/sos-sentinel/internal/domain/alert"
	domain "github.com/oshokin/sos-sentinel/internal/domain/monitoring"
	"github.com/oshokin/sos-sentinel/internal/identity"
	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/notify"
	"github.com/oshokin/sos-sentinel/internal/pipeline"
	"github.com/oshokin/sos-sentinel/internal/service/monitoring"
)

// Identity resolves the signed-in user.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Core glues the monitoring flag, the detector and the pipeline together.
// gRPC, HTTP and MQTT all call into the same Core.
type Core struct {
	monitoring *monitoring.Service
	detector   *detector.Detector
	pipeline   *pipeline.Pipeline
	identity   Identity
	sink       notify.Sink
}

// NewCore creates a core. The detector must be armed by the same monitoring service.
func NewCore(
	monitoringService *monitoring.Service,
	toggleDetector *detector.Detector,
	alertPipeline *pipeline.Pipeline,
	users Identity,
	sink notify.Sink,
) *Core {
	return &Core{
		monitoring: monitoringService,
		detector:   toggleDetector,
		pipeline:   alertPipeline,
		identity:   users,
		sink:       sink,
	}
}

// State returns the monitoring flag.
func (c *Core) State(ctx context.Context) *domain.State {
	return c.monitoring.State(ctx)
}

// SetArmed flips the monitoring flag. Arming announces itself; disarming
// drops pending toggles so a later arm starts from an empty window.
func (c *Core) SetArmed(ctx context.Context, actor *domain.Actor, armed bool) (*domain.State, error) {
	wasArmed := c.monitoring.IsArmed(ctx)

	state, err := c.monitoring.SetArmed(ctx, actor, armed)
	if err != nil {
		return nil, err
	}

	switch {
	case armed && !wasArmed:
		c.sink.Show(ctx, alert.ArmedTitle, alert.ArmedText)
	case !armed:
		c.detector.Reset()
	}

	return state, nil
}

// ReportToggle feeds one screen toggle to the detector and dispatches an
// alert when it completes the gesture. Zero means "stamp it now".
func (c *Core) ReportToggle(ctx context.Context, timestampMs int64) bool {
	var decision detector.Decision

	if timestampMs == 0 {
		decision = c.detector.Toggle(ctx)
	} else {
		decision = c.detector.OnToggle(ctx, timestampMs)
	}

	if decision != detector.Fire {
		return false
	}

	c.Trigger(ctx)

	return true
}

// Trigger dispatches an alert for the signed-in user without waiting for it.
// Without a session the run still starts and stops after the first notification.
func (c *Core) Trigger(ctx context.Context) {
	userID, err := c.identity.CurrentUserID(ctx)
	if err != nil && !errors.Is(err, identity.ErrNoSession) {
		logger.ErrorKV(ctx, "Failed to resolve signed-in user", "error", err)
	}

	c.pipeline.Dispatch(ctx, userID)
}

// Announce shows the armed notification when monitoring survived a restart.
func (c *Core) Announce(ctx context.Context) {
	if !c.monitoring.IsArmed(ctx) {
		logger.Info(ctx, "Monitoring is disarmed, toggles are ignored until it is enabled")

		return
	}

	logger.Info(ctx, "Monitoring is armed")
	c.sink.Show(ctx, alert.ArmedTitle, alert.ArmedText)
}

// Wait blocks until every dispatched alert has finished.
func (c *Core) Wait() {
	c.pipeline.Wait()
}
