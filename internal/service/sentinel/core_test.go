package sentinel

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-sentinel/internal/detector"
	"github.com/oshokin/sos-sentinel/internal/domain/alert"
	domain "github.com/oshokin/sos-sentinel/internal/domain/monitoring"
	"github.com/oshokin/sos-sentinel/internal/identity"
	"github.com/oshokin/sos-sentinel/internal/pipeline"
	"github.com/oshokin/sos-sentinel/internal/repository/state"
	"github.com/oshokin/sos-sentinel/internal/service/monitoring"
)

// sink records notification texts.
type sink struct {
	mu    sync.Mutex
	texts []string
}

func (s *sink) Show(_ context.Context, _, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.texts = append(s.texts, text)
}

func (s *sink) PromptPermissions(context.Context) {}

func (s *sink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.texts...)
}

// phoneBook serves contacts for alice only.
type phoneBook struct{}

func (phoneBook) Contacts(_ context.Context, userID string) ([]string, error) {
	if userID == "alice" {
		return []string{"+15550001"}, nil
	}

	return nil, nil
}

// outbox counts sent messages.
type outbox struct {
	mu   sync.Mutex
	sent int
}

func (o *outbox) Send(context.Context, string, string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sent++

	return nil
}

// signedIn is a fixed identity.
type signedIn string

func (s signedIn) CurrentUserID(context.Context) (string, error) {
	if s == "" {
		return "", identity.ErrNoSession
	}

	return string(s), nil
}

type coreFixture struct {
	core     *Core
	sink     *sink
	outbox   *outbox
	detector *detector.Detector
}

func newCoreFixture(t *testing.T, user string) *coreFixture {
	t.Helper()

	repo := state.NewFileRepository(filepath.Join(t.TempDir(), "state.yaml"))

	monitoringService, err := monitoring.New(context.Background(), repo)
	require.NoError(t, err)

	f := &coreFixture{sink: new(sink), outbox: new(outbox)}
	f.detector = detector.New(monitoringService)

	alertPipeline := pipeline.New(pipeline.Dependencies{
		Contacts:  phoneBook{},
		Transport: f.outbox,
		Sink:      f.sink,
	})

	f.core = NewCore(monitoringService, f.detector, alertPipeline, signedIn(user), f.sink)

	return f
}

func TestCore_ArmAnnouncesOnce(t *testing.T) {
	t.Parallel()

	f := newCoreFixture(t, "alice")
	ctx := context.Background()
	actor := &domain.Actor{Hostname: "phone", Username: "alice"}

	f.core.Announce(ctx)
	require.Empty(t, f.sink.snapshot())

	state, err := f.core.SetArmed(ctx, actor, true)
	require.NoError(t, err)
	require.True(t, state.Armed)

	_, err = f.core.SetArmed(ctx, actor, true)
	require.NoError(t, err)
	require.Equal(t, []string{alert.ArmedText}, f.sink.snapshot())

	f.core.Announce(ctx)
	require.Equal(t, []string{alert.ArmedText, alert.ArmedText}, f.sink.snapshot())
	require.True(t, f.core.State(ctx).Armed)
}

func TestCore_DisarmedIgnoresToggles(t *testing.T) {
	t.Parallel()

	f := newCoreFixture(t, "alice")

	for i := range 10 {
		require.False(t, f.core.ReportToggle(context.Background(), int64(1000+i)))
	}

	f.core.Wait()
	require.Empty(t, f.sink.snapshot())
	require.Zero(t, f.detector.Len())
}

func TestCore_GestureDispatchesAlert(t *testing.T) {
	t.Parallel()

	f := newCoreFixture(t, "alice")
	ctx := context.Background()

	_, err := f.core.SetArmed(ctx, nil, true)
	require.NoError(t, err)

	for i := range 4 {
		require.False(t, f.core.ReportToggle(ctx, int64(10_000+i*100)))
	}

	require.True(t, f.core.ReportToggle(ctx, 10_400))

	f.core.Wait()

	require.Equal(t, []string{alert.ArmedText, alert.GeneratingText, alert.SuccessText}, f.sink.snapshot())
	require.Equal(t, 1, f.outbox.sent)
	require.Zero(t, f.detector.Len())
}

func TestCore_DisarmClearsWindow(t *testing.T) {
	t.Parallel()

	f := newCoreFixture(t, "alice")
	ctx := context.Background()

	_, err := f.core.SetArmed(ctx, nil, true)
	require.NoError(t, err)

	for i := range 4 {
		f.core.ReportToggle(ctx, int64(10_000+i*100))
	}

	require.Equal(t, 4, f.detector.Len())

	_, err = f.core.SetArmed(ctx, nil, false)
	require.NoError(t, err)
	require.Zero(t, f.detector.Len())

	_, err = f.core.SetArmed(ctx, nil, true)
	require.NoError(t, err)
	require.False(t, f.core.ReportToggle(ctx, 10_500))
}

func TestCore_TriggerWithoutSession(t *testing.T) {
	t.Parallel()

	f := newCoreFixture(t, "")

	f.core.Trigger(context.Background())
	f.core.Wait()

	require.Equal(t, []string{alert.GeneratingText}, f.sink.snapshot())
	require.Zero(t, f.outbox.sent)
}

func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress("sentinel.local:7000", "")
	require.NoError(t, err)
	require.Equal(t, ":7000", address)

	address, err = resolveListenAddress("sentinel.local:7000", "127.0.0.1:9000")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoListenAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

func TestClosers(t *testing.T) {
	t.Parallel()

	var (
		order bytes.Buffer
		c     closers
	)

	c.add(func() { order.WriteString("a") })
	c.add(func() { order.WriteString("b") })
	c.closeAll()

	require.Equal(t, "ba", order.String())
}
