//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/sos-sentinel/internal/api/grpc/sentinel"
	"github.com/oshokin/sos-sentinel/internal/domain/monitoring"
)

var errUnavailable = errors.New("unavailable")

// fakeConn answers Invoke with canned replies per method.
type fakeConn struct {
	grpc.ClientConnInterface

	replies  map[string]proto.Message
	requests map[string]proto.Message
	deadline bool
	err      error
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args, reply any, _ ...grpc.CallOption) error {
	_, f.deadline = ctx.Deadline()
	f.requests[method], _ = args.(proto.Message)

	if f.err != nil {
		return f.err
	}

	if canned, ok := f.replies[method]; ok {
		proto.Merge(reply.(proto.Message), canned) //nolint:forcetypeassert // Always a message.
	}

	return nil
}

func newFakeConn() *fakeConn {
	return &fakeConn{replies: map[string]proto.Message{}, requests: map[string]proto.Message{}}
}

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)

	_, err = NewClient(nil)
	require.ErrorIs(t, err, errConnRequired)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

func TestClient_Calls(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	actor := &monitoring.Actor{Hostname: "phone", Username: "alice"}
	armed := monitoring.Disarmed(now).Arm(actor, now)

	conn := newFakeConn()
	conn.replies[api.FullMethod(api.MethodSetMonitoring)] = api.EncodeState(armed)
	conn.replies[api.FullMethod(api.MethodGetMonitoring)] = api.EncodeState(armed)
	conn.replies[api.FullMethod(api.MethodReportToggle)] = wrapperspb.Bool(true)

	client, err := NewClient(conn, WithCallTimeout(time.Second))
	require.NoError(t, err)

	ctx := context.Background()

	state, err := client.SetMonitoring(ctx, actor, true)
	require.NoError(t, err)
	require.Equal(t, armed, state)
	require.True(t, conn.deadline)

	sent, ok := conn.requests[api.FullMethod(api.MethodSetMonitoring)].(*structpb.Struct)
	require.True(t, ok)
	require.True(t, sent.GetFields()[api.FieldArmed].GetBoolValue())

	state, err = client.GetMonitoring(ctx)
	require.NoError(t, err)
	require.True(t, state.Armed)

	fired, err := client.ReportToggle(ctx, 1234)
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, int64(1234), conn.requests[api.FullMethod(api.MethodReportToggle)].(*wrapperspb.Int64Value).GetValue())

	require.NoError(t, client.Trigger(ctx))
	require.Contains(t, conn.requests, api.FullMethod(api.MethodTrigger))

	// Borrowed connections stay open.
	require.NoError(t, client.Close())
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	conn.err = errUnavailable

	client, err := NewClient(conn)
	require.NoError(t, err)

	_, err = client.GetMonitoring(context.Background())
	require.ErrorIs(t, err, errUnavailable)

	_, err = client.SetMonitoring(context.Background(), nil, false)
	require.ErrorIs(t, err, errUnavailable)

	_, err = client.ReportToggle(context.Background(), 0)
	require.ErrorIs(t, err, errUnavailable)

	require.ErrorIs(t, client.Trigger(context.Background()), errUnavailable)
}
