package sweepd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// SweepServiceName is the fully qualified gRPC service name
const SweepServiceName = "hpsweep.v1.SweepService"

const (
	SweepService_CreateSweep_FullMethodName = "/" + SweepServiceName + "/CreateSweep"
	SweepService_StartSweep_FullMethodName  = "/" + SweepServiceName + "/StartSweep"
	SweepService_StopSweep_FullMethodName   = "/" + SweepServiceName + "/StopSweep"
	SweepService_GetSweep_FullMethodName    = "/" + SweepServiceName + "/GetSweep"
)

// SweepServiceServer is the server API for SweepService. Requests and
// responses are google.protobuf.Struct messages.
type SweepServiceServer interface {
	CreateSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StopSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSweepServiceServer(s grpc.ServiceRegistrar, srv SweepServiceServer) {
	s.RegisterService(&SweepService_ServiceDesc, srv)
}

func unaryHandler(fullMethod string, call func(SweepServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SweepServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SweepServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SweepService_ServiceDesc is the grpc.ServiceDesc for SweepService
var SweepService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SweepServiceName,
	HandlerType: (*SweepServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateSweep",
			Handler:    unaryHandler(SweepService_CreateSweep_FullMethodName, SweepServiceServer.CreateSweep),
		},
		{
			MethodName: "StartSweep",
			Handler:    unaryHandler(SweepService_StartSweep_FullMethodName, SweepServiceServer.StartSweep),
		},
		{
			MethodName: "StopSweep",
			Handler:    unaryHandler(SweepService_StopSweep_FullMethodName, SweepServiceServer.StopSweep),
		},
		{
			MethodName: "GetSweep",
			Handler:    unaryHandler(SweepService_GetSweep_FullMethodName, SweepServiceServer.GetSweep),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hpsweep/v1/sweep.proto",
}

// SweepServiceClient is the client API for SweepService
type SweepServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSweepServiceClient(cc grpc.ClientConnInterface) *SweepServiceClient {
	return &SweepServiceClient{cc: cc}
}

func (c *SweepServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SweepServiceClient) CreateSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SweepService_CreateSweep_FullMethodName, in, opts...)
}

func (c *SweepServiceClient) StartSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SweepService_StartSweep_FullMethodName, in, opts...)
}

func (c *SweepServiceClient) StopSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SweepService_StopSweep_FullMethodName, in, opts...)
}

func (c *SweepServiceClient) GetSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SweepService_GetSweep_FullMethodName, in, opts...)
}
