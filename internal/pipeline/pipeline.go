package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/sos-sentinel/internal/domain/alert"
	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/metrics"
)

const (
	// DefaultLocationTimeout bounds the wait for a single fix.
	DefaultLocationTimeout = 15 * time.Second
	// DefaultMaxParallel bounds concurrent sends and writes within one run.
	DefaultMaxParallel = 8

	tracerName = "github.com/oshokin/sos-sentinel/internal/pipeline"
)

// errCollaboratorPanic marks a stage whose collaborator panicked.
var errCollaboratorPanic = errors.New("collaborator panicked")

// Pipeline orchestrates one SOS alert per Trigger call.
type Pipeline struct {
	deps Dependencies

	locationTimeout time.Duration
	maxParallel     int
	now             func() time.Time
	tracer          trace.Tracer

	// runs tracks dispatched runs so shutdown can wait for them.
	runs sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLocationTimeout bounds the location request.
func WithLocationTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.locationTimeout = timeout
		}
	}
}

// WithMaxParallel bounds the SMS and record fan-outs.
func WithMaxParallel(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxParallel = n
		}
	}
}

// WithClock replaces the clock that stamps distress records.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New wires a pipeline to its collaborators.
func New(deps Dependencies, opts ...Option) *Pipeline {
	p := &Pipeline{
		deps:            deps,
		locationTimeout: DefaultLocationTimeout,
		maxParallel:     DefaultMaxParallel,
		now:             time.Now,
		tracer:          otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Dispatch starts a run in the background and returns immediately.
// The run outlives ctx cancellation but keeps its values (logger, trace).
func (p *Pipeline) Dispatch(ctx context.Context, userID string) {
	runCtx := context.WithoutCancel(ctx)

	p.runs.Go(func() {
		p.Trigger(runCtx, userID)
	})
}

// Wait blocks until every dispatched run has finished.
func (p *Pipeline) Wait() {
	p.runs.Wait()
}

// Trigger runs the alert synchronously. It never fails: every error is
// logged where it happens.
func (p *Pipeline) Trigger(ctx context.Context, userID string) {
	outcome := p.run(ctx, userID)

	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
}

// run executes the stages in order and reports how far it got.
func (p *Pipeline) run(ctx context.Context, userID string) string {
	ctx, span := p.tracer.Start(ctx, "sos.pipeline.run")
	defer span.End()

	ctx = logger.WithName(ctx, "pipeline")

	p.show(ctx, alert.GeneratingText)

	if strings.TrimSpace(userID) == "" {
		logger.Warn(ctx, "No authenticated user, SOS alert aborted")

		return metrics.OutcomeNoUser
	}

	ctx = logger.WithKV(ctx, "user_id", userID)
	span.SetAttributes(attribute.String("sos.user_id", userID))

	contacts, err := p.contacts(ctx, userID)
	if err != nil {
		span.RecordError(err)
		logger.ErrorKV(ctx, "Failed to fetch emergency contacts", "error", err)

		return metrics.OutcomeContactsError
	}

	if len(contacts) == 0 {
		logger.Info(ctx, "No emergency contacts configured")

		return metrics.OutcomeNoContacts
	}

	span.SetAttributes(attribute.Int("sos.contacts", len(contacts)))

	if !p.granted(ctx) {
		logger.Warn(ctx, "Location or SMS permission not granted, cannot send SOS messages")
		p.prompt(ctx)

		return metrics.OutcomePermissionDenied
	}

	text := alert.Message(p.locate(ctx))

	p.sendAll(ctx, contacts, text)
	p.show(ctx, alert.SuccessText)
	p.fanOut(ctx, userID, text)

	return metrics.OutcomeCompleted
}

func (p *Pipeline) contacts(ctx context.Context, userID string) ([]string, error) {
	if p.deps.Contacts == nil {
		return nil, nil
	}

	var (
		contacts []string
		err      error
	)

	if panicErr := p.guard(ctx, "contacts", func() {
		contacts, err = p.deps.Contacts.Contacts(ctx, userID)
	}); panicErr != nil {
		return nil, panicErr
	}

	return contacts, err
}

func (p *Pipeline) granted(ctx context.Context) bool {
	if p.deps.Permissions == nil {
		return true
	}

	granted := false

	_ = p.guard(ctx, "permissions", func() {
		granted = p.deps.Permissions.HasLocationAndSMS(ctx)
	})

	return granted
}

// locate asks for one fix and returns its map link, or "" without a fix.
// The wait is bounded even if the source ignores ctx.
func (p *Pipeline) locate(ctx context.Context) string {
	if p.deps.Location == nil {
		logger.Info(ctx, "No location source configured")
		metrics.LocationFixes.WithLabelValues(metrics.ResultFailed).Inc()

		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, p.locationTimeout)
	defer cancel()

	type answer struct {
		fix *alert.LocationFix
		err error
	}

	answers := make(chan answer, 1)

	go func() {
		var got answer

		if panicErr := p.guard(ctx, "location", func() {
			got.fix, got.err = p.deps.Location.RequestOneFix(ctx)
		}); panicErr != nil {
			got.err = panicErr
		}

		answers <- got
	}()

	var got answer

	select {
	case got = <-answers:
	case <-ctx.Done():
		got.err = fmt.Errorf("wait for location fix: %w", ctx.Err())
	}

	switch {
	case got.err != nil:
		logger.WarnKV(ctx, "Location unavailable, sending without it", "error", got.err)
	case got.fix == nil:
		logger.Warn(ctx, "Location provider returned no fix, sending without it")
	default:
		link := got.fix.MapLink()
		logger.InfoKV(ctx, "Location received", "url", link)
		metrics.LocationFixes.WithLabelValues(metrics.ResultOK).Inc()

		return link
	}

	metrics.LocationFixes.WithLabelValues(metrics.ResultFailed).Inc()

	return ""
}

// sendAll texts every contact; one failure never blocks another.
func (p *Pipeline) sendAll(ctx context.Context, contacts []string, text string) {
	if p.deps.Transport == nil {
		logger.Error(ctx, "No SMS transport configured, messages not sent")

		return
	}

	group := new(errgroup.Group)
	group.SetLimit(p.maxParallel)

	for _, number := range contacts {
		number = strings.TrimSpace(number)
		if number == "" {
			logger.Warn(ctx, "Skipping empty phone number")

			continue
		}

		group.Go(func() error {
			var err error

			if panicErr := p.guard(ctx, "sms", func() {
				err = p.deps.Transport.Send(ctx, number, text)
			}); panicErr != nil {
				err = panicErr
			}

			metrics.SMSSends.WithLabelValues(metrics.Result(err)).Inc()

			if err != nil {
				logger.ErrorKV(ctx, "Failed to send SMS", "phone_number", number, "error", err)

				return nil
			}

			logger.InfoKV(ctx, "Message sent", "phone_number", number)

			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // Goroutines never return errors.
}

// fanOut writes one distress record per subscriber of userID.
func (p *Pipeline) fanOut(ctx context.Context, userID, text string) {
	if p.deps.Subscribers == nil || p.deps.Records == nil {
		logger.Warn(ctx, "No subscriber directory or record store configured, fan-out skipped")

		return
	}

	var (
		subscribers []string
		err         error
	)

	if panicErr := p.guard(ctx, "subscribers", func() {
		subscribers, err = p.deps.Subscribers.Subscribers(ctx, userID)
	}); panicErr != nil {
		err = panicErr
	}

	if err != nil {
		logger.ErrorKV(ctx, "Failed to fetch subscribers", "error", err)

		return
	}

	if len(subscribers) == 0 {
		logger.Info(ctx, "No subscribers to notify")

		return
	}

	group := new(errgroup.Group)
	group.SetLimit(p.maxParallel)

	for _, subscriber := range subscribers {
		record := alert.NewDistressRecord(subscriber, text, p.now())

		group.Go(func() error {
			var err error

			if panicErr := p.guard(ctx, "record", func() {
				err = p.deps.Records.CreateRecord(ctx, record)
			}); panicErr != nil {
				err = panicErr
			}

			metrics.RecordsCreated.WithLabelValues(metrics.Result(err)).Inc()

			if err != nil {
				logger.ErrorKV(ctx, "Failed to save distress record", "subscriber_id", subscriber, "error", err)

				return nil
			}

			logger.InfoKV(ctx, "Distress record saved", "subscriber_id", subscriber, "record_id", record.ID)

			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // Goroutines never return errors.
}

func (p *Pipeline) show(ctx context.Context, text string) {
	if p.deps.Sink == nil {
		return
	}

	_ = p.guard(ctx, "notify", func() {
		p.deps.Sink.Show(ctx, alert.StatusTitle, text)
	})
}

func (p *Pipeline) prompt(ctx context.Context) {
	if p.deps.Sink == nil {
		return
	}

	_ = p.guard(ctx, "prompt", func() {
		p.deps.Sink.PromptPermissions(ctx)
	})
}

// guard runs a collaborator call and turns a panic into an error.
func (p *Pipeline) guard(ctx context.Context, stage string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Collaborator panicked", "stage", stage, "panic", r)
			err = fmt.Errorf("%w: %s: %v", errCollaboratorPanic, stage, r)
		}
	}()

	fn()

	return nil
}
