package sentinel

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sentinel.v1.SentinelService"

// Method names of the service.
const (
	MethodGetMonitoring = "GetMonitoring"
	MethodSetMonitoring = "SetMonitoring"
	MethodReportToggle  = "ReportToggle"
	MethodTrigger       = "Trigger"
)

// FullMethod returns "/<service>/<method>" as used by Invoke.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SentinelServer is the server API of the service.
type SentinelServer interface {
	GetMonitoring(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetMonitoring(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReportToggle(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	Trigger(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are static, as in generated code.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SentinelServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodGetMonitoring,
			Handler: unary(MethodGetMonitoring, newEmpty,
				func(s SentinelServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
					return s.GetMonitoring(ctx, in)
				}),
		},
		{
			MethodName: MethodSetMonitoring,
			Handler: unary(MethodSetMonitoring, newStruct,
				func(s SentinelServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.SetMonitoring(ctx, in)
				}),
		},
		{
			MethodName: MethodReportToggle,
			Handler: unary(MethodReportToggle, newInt64,
				func(s SentinelServer, ctx context.Context, in *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
					return s.ReportToggle(ctx, in)
				}),
		},
		{
			MethodName: MethodTrigger,
			Handler: unary(MethodTrigger, newEmpty,
				func(s SentinelServer, ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
					return s.Trigger(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sentinel/v1/sentinel.proto",
}

// Register attaches srv to a gRPC server.
func Register(registrar grpc.ServiceRegistrar, srv SentinelServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func newEmpty() *emptypb.Empty         { return new(emptypb.Empty) }
func newStruct() *structpb.Struct      { return new(structpb.Struct) }
func newInt64() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) }

// unary builds a method handler the way protoc-gen-go-grpc does for every method.
func unary[Req, Resp proto.Message](
	method string,
	newRequest func() Req,
	call func(SentinelServer, context.Context, Req) (Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newRequest()
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(SentinelServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(Req)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}
