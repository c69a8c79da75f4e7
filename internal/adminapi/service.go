package adminapi

import (
	"context"

	"google.golang.org/grpc"
)

// AdminServiceServer is the service interface an admin gRPC server
// implements, in the shape protoc-gen-go-grpc would generate.
type AdminServiceServer interface {
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
	Shutdown(ctx context.Context, req *ShutdownRequest) (*ShutdownResponse, error)
}

// AdminServiceClient is the generated-style client stub.
type AdminServiceClient interface {
	GetStats(ctx context.Context, req *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error)
	Shutdown(ctx context.Context, req *ShutdownRequest, opts ...grpc.CallOption) (*ShutdownResponse, error)
}

type adminServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAdminServiceClient constructs a client stub over cc.
func NewAdminServiceClient(cc grpc.ClientConnInterface) AdminServiceClient {
	return &adminServiceClient{cc: cc}
}

func (c *adminServiceClient) GetStats(ctx context.Context, req *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	out := new(GetStatsResponse)
	if err := c.cc.Invoke(ctx, "/lorasim.adminapi.v1.AdminService/GetStats", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) Shutdown(ctx context.Context, req *ShutdownRequest, opts ...grpc.CallOption) (*ShutdownResponse, error) {
	out := new(ShutdownResponse)
	if err := c.cc.Invoke(ctx, "/lorasim.adminapi.v1.AdminService/Shutdown", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _AdminService_GetStats_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetStatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/lorasim.adminapi.v1.AdminService/GetStats"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).GetStats(ctx, req.(*GetStatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_Shutdown_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ShutdownRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/lorasim.adminapi.v1.AdminService/Shutdown"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).Shutdown(ctx, req.(*ShutdownRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the admin gRPC service descriptor, in the shape
// protoc-gen-go-grpc would emit.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lorasim.adminapi.v1.AdminService",
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStats", Handler: _AdminService_GetStats_Handler},
		{MethodName: "Shutdown", Handler: _AdminService_Shutdown_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "adminapi.proto",
}
