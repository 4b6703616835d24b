package sentinel

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/sos-sentinel/internal/domain/monitoring"
)

// Service abstracts the daemon operations the transport layer depends on.
type Service interface {
	State(ctx context.Context) *monitoring.State
	SetArmed(ctx context.Context, actor *monitoring.Actor, armed bool) (*monitoring.State, error)
	ReportToggle(ctx context.Context, timestampMs int64) bool
	Trigger(ctx context.Context)
}

// Server implements SentinelServer.
type Server struct {
	// service provides the daemon operations.
	service Service
}

var _ SentinelServer = (*Server)(nil)

// NewServer wires the provided service into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetMonitoring returns the current monitoring flag.
func (s *Server) GetMonitoring(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return EncodeState(s.service.State(ctx)), nil
}

// SetMonitoring arms or disarms the detector and persists the flag.
func (s *Server) SetMonitoring(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	actor, armed, err := DecodeSetRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	state, err := s.service.SetArmed(ctx, actor, armed)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to persist monitoring state")
	}

	return EncodeState(state), nil
}

// ReportToggle feeds one screen toggle to the detector. Zero means "now".
func (s *Server) ReportToggle(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	timestamp := req.GetValue()
	if timestamp < 0 {
		return nil, status.Error(codes.InvalidArgument, "timestamp must not be negative")
	}

	return wrapperspb.Bool(s.service.ReportToggle(ctx, timestamp)), nil
}

// Trigger starts an alert without the gesture.
func (s *Server) Trigger(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.service.Trigger(ctx)

	return new(emptypb.Empty), nil
}
