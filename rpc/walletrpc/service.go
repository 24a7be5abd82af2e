package walletrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// methodHandler matches the Handler field of grpc.MethodDesc.
type methodHandler = func(srv interface{}, ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor) (interface{}, error)

// unaryHandler adapts a typed server method to a grpc.MethodDesc handler.
func unaryHandler[Req, Resp any](fullMethod string,
	call func(srv interface{}, ctx context.Context, req *Req) (*Resp, error),
) methodHandler {

	return func(srv interface{}, ctx context.Context,
		dec func(interface{}) error,
		interceptor grpc.UnaryServerInterceptor) (interface{}, error) {

		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface,
	method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {

	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented",
		method)
}

//////////////////////////
//  DescriptorService
//////////////////////////

const (
	DescriptorService_Checksum_FullMethodName        = "/walletrpc.DescriptorService/Checksum"
	DescriptorService_Analyze_FullMethodName         = "/walletrpc.DescriptorService/Analyze"
	DescriptorService_DeriveAddresses_FullMethodName = "/walletrpc.DescriptorService/DeriveAddresses"
)

// DescriptorServiceServer is the server API of the stateless descriptor
// tools.
type DescriptorServiceServer interface {
	Checksum(context.Context, *ChecksumRequest) (*ChecksumResponse, error)
	Analyze(context.Context, *AnalyzeRequest) (*AnalyzeResponse, error)
	DeriveAddresses(context.Context, *DeriveAddressesRequest) (*DeriveAddressesResponse, error)
}

// UnimplementedDescriptorServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedDescriptorServiceServer struct{}

func (UnimplementedDescriptorServiceServer) Checksum(context.Context,
	*ChecksumRequest) (*ChecksumResponse, error) {

	return nil, unimplemented("Checksum")
}

func (UnimplementedDescriptorServiceServer) Analyze(context.Context,
	*AnalyzeRequest) (*AnalyzeResponse, error) {

	return nil, unimplemented("Analyze")
}

func (UnimplementedDescriptorServiceServer) DeriveAddresses(context.Context,
	*DeriveAddressesRequest) (*DeriveAddressesResponse, error) {

	return nil, unimplemented("DeriveAddresses")
}

// DescriptorService_ServiceDesc is the grpc.ServiceDesc for
// DescriptorService.
var DescriptorService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "walletrpc.DescriptorService",
	HandlerType: (*DescriptorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Checksum",
			Handler: unaryHandler(DescriptorService_Checksum_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *ChecksumRequest) (*ChecksumResponse, error) {

					return srv.(DescriptorServiceServer).Checksum(ctx, req)
				}),
		},
		{
			MethodName: "Analyze",
			Handler: unaryHandler(DescriptorService_Analyze_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *AnalyzeRequest) (*AnalyzeResponse, error) {

					return srv.(DescriptorServiceServer).Analyze(ctx, req)
				}),
		},
		{
			MethodName: "DeriveAddresses",
			Handler: unaryHandler(DescriptorService_DeriveAddresses_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *DeriveAddressesRequest) (*DeriveAddressesResponse, error) {

					return srv.(DescriptorServiceServer).DeriveAddresses(ctx, req)
				}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterDescriptorServiceServer registers srv with s.
func RegisterDescriptorServiceServer(s grpc.ServiceRegistrar,
	srv DescriptorServiceServer) {

	s.RegisterService(&DescriptorService_ServiceDesc, srv)
}

// DescriptorServiceClient is the client API for DescriptorService.
type DescriptorServiceClient interface {
	Checksum(ctx context.Context, in *ChecksumRequest, opts ...grpc.CallOption) (*ChecksumResponse, error)
	Analyze(ctx context.Context, in *AnalyzeRequest, opts ...grpc.CallOption) (*AnalyzeResponse, error)
	DeriveAddresses(ctx context.Context, in *DeriveAddressesRequest, opts ...grpc.CallOption) (*DeriveAddressesResponse, error)
}

type descriptorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDescriptorServiceClient returns a client using cc.
func NewDescriptorServiceClient(cc grpc.ClientConnInterface) DescriptorServiceClient {
	return &descriptorServiceClient{cc}
}

func (c *descriptorServiceClient) Checksum(ctx context.Context,
	in *ChecksumRequest, opts ...grpc.CallOption) (*ChecksumResponse, error) {

	return invoke[ChecksumResponse](ctx, c.cc,
		DescriptorService_Checksum_FullMethodName, in, opts)
}

func (c *descriptorServiceClient) Analyze(ctx context.Context,
	in *AnalyzeRequest, opts ...grpc.CallOption) (*AnalyzeResponse, error) {

	return invoke[AnalyzeResponse](ctx, c.cc,
		DescriptorService_Analyze_FullMethodName, in, opts)
}

func (c *descriptorServiceClient) DeriveAddresses(ctx context.Context,
	in *DeriveAddressesRequest,
	opts ...grpc.CallOption) (*DeriveAddressesResponse, error) {

	return invoke[DeriveAddressesResponse](ctx, c.cc,
		DescriptorService_DeriveAddresses_FullMethodName, in, opts)
}

//////////////////////////
//  WalletLoaderService
//////////////////////////

const (
	WalletLoaderService_CreateWallet_FullMethodName = "/walletrpc.WalletLoaderService/CreateWallet"
	WalletLoaderService_OpenWallet_FullMethodName   = "/walletrpc.WalletLoaderService/OpenWallet"
	WalletLoaderService_WalletExists_FullMethodName = "/walletrpc.WalletLoaderService/WalletExists"
	WalletLoaderService_CloseWallet_FullMethodName  = "/walletrpc.WalletLoaderService/CloseWallet"
)

// WalletLoaderServiceServer is the server API of the wallet loader.
type WalletLoaderServiceServer interface {
	CreateWallet(context.Context, *CreateWalletRequest) (*CreateWalletResponse, error)
	OpenWallet(context.Context, *OpenWalletRequest) (*OpenWalletResponse, error)
	WalletExists(context.Context, *WalletExistsRequest) (*WalletExistsResponse, error)
	CloseWallet(context.Context, *CloseWalletRequest) (*CloseWalletResponse, error)
}

// UnimplementedWalletLoaderServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedWalletLoaderServiceServer struct{}

func (UnimplementedWalletLoaderServiceServer) CreateWallet(context.Context,
	*CreateWalletRequest) (*CreateWalletResponse, error) {

	return nil, unimplemented("CreateWallet")
}

func (UnimplementedWalletLoaderServiceServer) OpenWallet(context.Context,
	*OpenWalletRequest) (*OpenWalletResponse, error) {

	return nil, unimplemented("OpenWallet")
}

func (UnimplementedWalletLoaderServiceServer) WalletExists(context.Context,
	*WalletExistsRequest) (*WalletExistsResponse, error) {

	return nil, unimplemented("WalletExists")
}

func (UnimplementedWalletLoaderServiceServer) CloseWallet(context.Context,
	*CloseWalletRequest) (*CloseWalletResponse, error) {

	return nil, unimplemented("CloseWallet")
}

// WalletLoaderService_ServiceDesc is the grpc.ServiceDesc for
// WalletLoaderService.
var WalletLoaderService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "walletrpc.WalletLoaderService",
	HandlerType: (*WalletLoaderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateWallet",
			Handler: unaryHandler(WalletLoaderService_CreateWallet_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *CreateWalletRequest) (*CreateWalletResponse, error) {

					return srv.(WalletLoaderServiceServer).CreateWallet(ctx, req)
				}),
		},
		{
			MethodName: "OpenWallet",
			Handler: unaryHandler(WalletLoaderService_OpenWallet_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *OpenWalletRequest) (*OpenWalletResponse, error) {

					return srv.(WalletLoaderServiceServer).OpenWallet(ctx, req)
				}),
		},
		{
			MethodName: "WalletExists",
			Handler: unaryHandler(WalletLoaderService_WalletExists_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *WalletExistsRequest) (*WalletExistsResponse, error) {

					return srv.(WalletLoaderServiceServer).WalletExists(ctx, req)
				}),
		},
		{
			MethodName: "CloseWallet",
			Handler: unaryHandler(WalletLoaderService_CloseWallet_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *CloseWalletRequest) (*CloseWalletResponse, error) {

					return srv.(WalletLoaderServiceServer).CloseWallet(ctx, req)
				}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterWalletLoaderServiceServer registers srv with s.
func RegisterWalletLoaderServiceServer(s grpc.ServiceRegistrar,
	srv WalletLoaderServiceServer) {

	s.RegisterService(&WalletLoaderService_ServiceDesc, srv)
}

// WalletLoaderServiceClient is the client API for WalletLoaderService.
type WalletLoaderServiceClient interface {
	CreateWallet(ctx context.Context, in *CreateWalletRequest, opts ...grpc.CallOption) (*CreateWalletResponse, error)
	OpenWallet(ctx context.Context, in *OpenWalletRequest, opts ...grpc.CallOption) (*OpenWalletResponse, error)
	WalletExists(ctx context.Context, in *WalletExistsRequest, opts ...grpc.CallOption) (*WalletExistsResponse, error)
	CloseWallet(ctx context.Context, in *CloseWalletRequest, opts ...grpc.CallOption) (*CloseWalletResponse, error)
}

type walletLoaderServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewWalletLoaderServiceClient returns a client using cc.
func NewWalletLoaderServiceClient(cc grpc.ClientConnInterface) WalletLoaderServiceClient {
	return &walletLoaderServiceClient{cc}
}

func (c *walletLoaderServiceClient) CreateWallet(ctx context.Context,
	in *CreateWalletRequest,
	opts ...grpc.CallOption) (*CreateWalletResponse, error) {

	return invoke[CreateWalletResponse](ctx, c.cc,
		WalletLoaderService_CreateWallet_FullMethodName, in, opts)
}

func (c *walletLoaderServiceClient) OpenWallet(ctx context.Context,
	in *OpenWalletRequest,
	opts ...grpc.CallOption) (*OpenWalletResponse, error) {

	return invoke[OpenWalletResponse](ctx, c.cc,
		WalletLoaderService_OpenWallet_FullMethodName, in, opts)
}

func (c *walletLoaderServiceClient) WalletExists(ctx context.Context,
	in *WalletExistsRequest,
	opts ...grpc.CallOption) (*WalletExistsResponse, error) {

	return invoke[WalletExistsResponse](ctx, c.cc,
		WalletLoaderService_WalletExists_FullMethodName, in, opts)
}

func (c *walletLoaderServiceClient) CloseWallet(ctx context.Context,
	in *CloseWalletRequest,
	opts ...grpc.CallOption) (*CloseWalletResponse, error) {

	return invoke[CloseWalletResponse](ctx, c.cc,
		WalletLoaderService_CloseWallet_FullMethodName, in, opts)
}

//////////////////////////
//  WalletService
//////////////////////////

const (
	WalletService_ImportDescriptor_FullMethodName = "/walletrpc.WalletService/ImportDescriptor"
	WalletService_ListDescriptors_FullMethodName  = "/walletrpc.WalletService/ListDescriptors"
	WalletService_NextAddresses_FullMethodName    = "/walletrpc.WalletService/NextAddresses"
	WalletService_UnlockWallet_FullMethodName     = "/walletrpc.WalletService/UnlockWallet"
	WalletService_LockWallet_FullMethodName       = "/walletrpc.WalletService/LockWallet"
)

// WalletServiceServer is the server API of a loaded wallet.
type WalletServiceServer interface {
	ImportDescriptor(context.Context, *ImportDescriptorRequest) (*ImportDescriptorResponse, error)
	ListDescriptors(context.Context, *ListDescriptorsRequest) (*ListDescriptorsResponse, error)
	NextAddresses(context.Context, *NextAddressesRequest) (*NextAddressesResponse, error)
	UnlockWallet(context.Context, *UnlockWalletRequest) (*UnlockWalletResponse, error)
	LockWallet(context.Context, *LockWalletRequest) (*LockWalletResponse, error)
}

// UnimplementedWalletServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedWalletServiceServer struct{}

func (UnimplementedWalletServiceServer) ImportDescriptor(context.Context,
	*ImportDescriptorRequest) (*ImportDescriptorResponse, error) {

	return nil, unimplemented("ImportDescriptor")
}

func (UnimplementedWalletServiceServer) ListDescriptors(context.Context,
	*ListDescriptorsRequest) (*ListDescriptorsResponse, error) {

	return nil, unimplemented("ListDescriptors")
}

func (UnimplementedWalletServiceServer) NextAddresses(context.Context,
	*NextAddressesRequest) (*NextAddressesResponse, error) {

	return nil, unimplemented("NextAddresses")
}

func (UnimplementedWalletServiceServer) UnlockWallet(context.Context,
	*UnlockWalletRequest) (*UnlockWalletResponse, error) {

	return nil, unimplemented("UnlockWallet")
}

func (UnimplementedWalletServiceServer) LockWallet(context.Context,
	*LockWalletRequest) (*LockWalletResponse, error) {

	return nil, unimplemented("LockWallet")
}

// WalletService_ServiceDesc is the grpc.ServiceDesc for WalletService.
var WalletService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "walletrpc.WalletService",
	HandlerType: (*WalletServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ImportDescriptor",
			Handler: unaryHandler(WalletService_ImportDescriptor_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *ImportDescriptorRequest) (*ImportDescriptorResponse, error) {

					return srv.(WalletServiceServer).ImportDescriptor(ctx, req)
				}),
		},
		{
			MethodName: "ListDescriptors",
			Handler: unaryHandler(WalletService_ListDescriptors_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *ListDescriptorsRequest) (*ListDescriptorsResponse, error) {

					return srv.(WalletServiceServer).ListDescriptors(ctx, req)
				}),
		},
		{
			MethodName: "NextAddresses",
			Handler: unaryHandler(WalletService_NextAddresses_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *NextAddressesRequest) (*NextAddressesResponse, error) {

					return srv.(WalletServiceServer).NextAddresses(ctx, req)
				}),
		},
		{
			MethodName: "UnlockWallet",
			Handler: unaryHandler(WalletService_UnlockWallet_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *UnlockWalletRequest) (*UnlockWalletResponse, error) {

					return srv.(WalletServiceServer).UnlockWallet(ctx, req)
				}),
		},
		{
			MethodName: "LockWallet",
			Handler: unaryHandler(WalletService_LockWallet_FullMethodName,
				func(srv interface{}, ctx context.Context,
					req *LockWalletRequest) (*LockWalletResponse, error) {

					return srv.(WalletServiceServer).LockWallet(ctx, req)
				}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterWalletServiceServer registers srv with s.
func RegisterWalletServiceServer(s grpc.ServiceRegistrar,
	srv WalletServiceServer) {

	s.RegisterService(&WalletService_ServiceDesc, srv)
}

// WalletServiceClient is the client API for WalletService.
type WalletServiceClient interface {
	ImportDescriptor(ctx context.Context, in *ImportDescriptorRequest, opts ...grpc.CallOption) (*ImportDescriptorResponse, error)
	ListDescriptors(ctx context.Context, in *ListDescriptorsRequest, opts ...grpc.CallOption) (*ListDescriptorsResponse, error)
	NextAddresses(ctx context.Context, in *NextAddressesRequest, opts ...grpc.CallOption) (*NextAddressesResponse, error)
	UnlockWallet(ctx context.Context, in *UnlockWalletRequest, opts ...grpc.CallOption) (*UnlockWalletResponse, error)
	LockWallet(ctx context.Context, in *LockWalletRequest, opts ...grpc.CallOption) (*LockWalletResponse, error)
}

type walletServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewWalletServiceClient returns a client using cc.
func NewWalletServiceClient(cc grpc.ClientConnInterface) WalletServiceClient {
	return &walletServiceClient{cc}
}

func (c *walletServiceClient) ImportDescriptor(ctx context.Context,
	in *ImportDescriptorRequest,
	opts ...grpc.CallOption) (*ImportDescriptorResponse, error) {

	return invoke[ImportDescriptorResponse](ctx, c.cc,
		WalletService_ImportDescriptor_FullMethodName, in, opts)
}

func (c *walletServiceClient) ListDescriptors(ctx context.Context,
	in *ListDescriptorsRequest,
	opts ...grpc.CallOption) (*ListDescriptorsResponse, error) {

	return invoke[ListDescriptorsResponse](ctx, c.cc,
		WalletService_ListDescriptors_FullMethodName, in, opts)
}

func (c *walletServiceClient) NextAddresses(ctx context.Context,
	in *NextAddressesRequest,
	opts ...grpc.CallOption) (*NextAddressesResponse, error) {

	return invoke[NextAddressesResponse](ctx, c.cc,
		WalletService_NextAddresses_FullMethodName, in, opts)
}

func (c *walletServiceClient) UnlockWallet(ctx context.Context,
	in *UnlockWalletRequest,
	opts ...grpc.CallOption) (*UnlockWalletResponse, error) {

	return invoke[UnlockWalletResponse](ctx, c.cc,
		WalletService_UnlockWallet_FullMethodName, in, opts)
}

func (c *walletServiceClient) LockWallet(ctx context.Context,
	in *LockWalletRequest,
	opts ...grpc.CallOption) (*LockWalletResponse, error) {

	return invoke[LockWalletResponse](ctx, c.cc,
		WalletService_LockWallet_FullMethodName, in, opts)
}
