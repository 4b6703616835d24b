package detector

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/metrics"
)

const (
	// DefaultThreshold is the number of toggles that make up the gesture.
	DefaultThreshold = 5
	// DefaultWindow is how long toggles stay in the window.
	DefaultWindow = 3 * time.Second
)

// Decision is the outcome of a single toggle.
type Decision int

const (
	// NoAction means the gesture is not complete.
	NoAction Decision = iota
	// Fire means the gesture was recognized and the window was cleared.
	Fire
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	if d == Fire {
		return "fire"
	}

	return "no_action"
}

// ArmingSource reports whether monitoring is enabled.
type ArmingSource interface {
	IsArmed(ctx context.Context) bool
}

// Detector turns toggle events into fire/no-fire decisions.
type Detector struct {
	// arming gates every event; a disarmed detector never touches the window.
	arming ArmingSource
	// clock stamps events reported through Toggle.
	clock Clock
	// threshold is the window size that fires.
	threshold int
	// windowMillis is the maximum age of an entry relative to the newest arrival.
	windowMillis int64

	// mu protects events; toggles may come from gRPC, HTTP and MQTT at once.
	mu sync.Mutex
	// events holds arrival-ordered timestamps, oldest first.
	events []int64
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold overrides the number of toggles that fire.
func WithThreshold(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.threshold = n
		}
	}
}

// WithWindow overrides the sliding window length.
func WithWindow(window time.Duration) Option {
	return func(d *Detector) {
		if window > 0 {
			d.windowMillis = window.Milliseconds()
		}
	}
}

// WithClock replaces the monotonic clock used by Toggle.
func WithClock(clock Clock) Option {
	return func(d *Detector) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// New creates a detector gated by arming.
func New(arming ArmingSource, opts ...Option) *Detector {
	d := &Detector{
		arming:       arming,
		clock:        NewMonotonicClock(),
		threshold:    DefaultThreshold,
		windowMillis: DefaultWindow.Milliseconds(),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.events = make([]int64, 0, d.threshold)

	return d
}

// IsArmed delegates to the arming source.
func (d *Detector) IsArmed(ctx context.Context) bool {
	return d.arming != nil && d.arming.IsArmed(ctx)
}

// Toggle evaluates a toggle stamped with the detector clock.
func (d *Detector) Toggle(ctx context.Context) Decision {
	return d.OnToggle(ctx, d.clock.NowMillis())
}

// OnToggle evaluates a toggle that happened at timestampMs.
// Out-of-order timestamps are appended as they arrive; eviction only looks at
// the newest arrival.
func (d *Detector) OnToggle(ctx context.Context, timestampMs int64) Decision {
	if !d.IsArmed(ctx) {
		logger.DebugKV(ctx, "Toggle ignored, monitoring is disarmed", "timestamp_ms", timestampMs)

		return NoAction
	}

	metrics.Toggles.Inc()

	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.events) > 0 && timestampMs-d.events[0] > d.windowMillis {
		d.events = d.events[1:]
	}

	d.events = append(d.events, timestampMs)

	logger.DebugKV(ctx, "Toggle accepted", "timestamp_ms", timestampMs, "window_size", len(d.events))

	// Overshoot still fires so a burst is never lost.
	if len(d.events) < d.threshold {
		return NoAction
	}

	d.events = d.events[:0]

	metrics.Triggers.Inc()
	logger.InfoKV(ctx, "Panic gesture recognized", "timestamp_ms", timestampMs)

	return Fire
}

// Reset drops every pending toggle.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = d.events[:0]
}

// Len returns the number of toggles currently in the window.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.events)
}
