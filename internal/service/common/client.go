//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/sos-sentinel/internal/api/grpc/sentinel"
	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/domain/monitoring"
)

// Client calls the sentinel gRPC service with per-call timeouts.
type Client struct {
	// conn is the underlying gRPC connection to the sentinel daemon.
	conn grpc.ClientConnInterface
	// closer releases conn; nil for borrowed connections.
	closer func() error

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errConnRequired is returned when NewClient gets no connection.
	errConnRequired = errors.New("connection must be provided")
	// errNoUsername is returned when neither the user database nor the environment names the operator.
	errNoUsername = errors.New("username is not available")
)

// Dial establishes a gRPC connection to the sentinel daemon.
// Note: this uses insecure transport credentials; the control surface is
// meant for loopback or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial sentinel: %w", err)
	}

	client, _ := NewClient(conn, opts...) //nolint:errcheck // conn is not nil.
	client.closer = conn.Close

	return client, nil
}

// NewClient wraps an existing connection. Close leaves it open.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) (*Client, error) {
	if conn == nil {
		return nil, errConnRequired
	}

	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// GetMonitoring retrieves the current monitoring flag.
func (c *Client) GetMonitoring(ctx context.Context) (*monitoring.State, error) {
	resp := new(structpb.Struct)

	if err := c.invoke(ctx, api.MethodGetMonitoring, new(emptypb.Empty), resp); err != nil {
		return nil, fmt.Errorf("get monitoring: %w", err)
	}

	return api.DecodeState(resp)
}

// SetMonitoring arms or disarms the remote detector.
func (c *Client) SetMonitoring(ctx context.Context, actor *monitoring.Actor, armed bool) (*monitoring.State, error) {
	resp := new(structpb.Struct)

	if err := c.invoke(ctx, api.MethodSetMonitoring, api.EncodeSetRequest(actor, armed), resp); err != nil {
		return nil, fmt.Errorf("set monitoring: %w", err)
	}

	return api.DecodeState(resp)
}

// ReportToggle sends one screen toggle and reports whether it fired the alert.
// A zero timestamp lets the daemon use its own clock.
func (c *Client) ReportToggle(ctx context.Context, timestampMs int64) (bool, error) {
	resp := new(wrapperspb.BoolValue)

	if err := c.invoke(ctx, api.MethodReportToggle, wrapperspb.Int64(timestampMs), resp); err != nil {
		return false, fmt.Errorf("report toggle: %w", err)
	}

	return resp.GetValue(), nil
}

// Trigger starts an alert on the daemon.
func (c *Client) Trigger(ctx context.Context) error {
	if err := c.invoke(ctx, api.MethodTrigger, new(emptypb.Empty), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	return nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	return c.conn.Invoke(callCtx, api.FullMethod(method), in, out)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
