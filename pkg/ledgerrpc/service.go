package ledgerrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "bank.v1.LedgerService"

	DepositMethod    = "/" + ServiceName + "/Deposit"
	WithdrawMethod   = "/" + ServiceName + "/Withdraw"
	TransferMethod   = "/" + ServiceName + "/Transfer"
	GetBalanceMethod = "/" + ServiceName + "/GetBalance"
)

// LedgerServiceServer is implemented by the ledger RPC adapter.
type LedgerServiceServer interface {
	Deposit(context.Context, *DepositRequest) (*MovementResponse, error)
	Withdraw(context.Context, *WithdrawRequest) (*MovementResponse, error)
	Transfer(context.Context, *TransferRequest) (*MovementResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
}

// UnimplementedLedgerServiceServer can be embedded to get forward compatible implementations.
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) Deposit(context.Context, *DepositRequest) (*MovementResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Deposit not implemented")
}

func (UnimplementedLedgerServiceServer) Withdraw(context.Context, *WithdrawRequest) (*MovementResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Withdraw not implemented")
}

func (UnimplementedLedgerServiceServer) Transfer(context.Context, *TransferRequest) (*MovementResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Transfer not implemented")
}

func (UnimplementedLedgerServiceServer) GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBalance not implemented")
}

// RegisterLedgerServiceServer registers srv on s.
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// unaryHandler builds the grpc.MethodDesc handler for one method.
func unaryHandler[Req any, Resp any](fullMethod string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerServiceDesc describes bank.v1.LedgerService for grpc.Server.RegisterService.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deposit",
			Handler:    unaryHandler(DepositMethod, LedgerServiceServer.Deposit),
		},
		{
			MethodName: "Withdraw",
			Handler:    unaryHandler(WithdrawMethod, LedgerServiceServer.Withdraw),
		},
		{
			MethodName: "Transfer",
			Handler:    unaryHandler(TransferMethod, LedgerServiceServer.Transfer),
		},
		{
			MethodName: "GetBalance",
			Handler:    unaryHandler(GetBalanceMethod, LedgerServiceServer.GetBalance),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bank/v1/ledger.json",
}

// LedgerServiceClient is the client side of bank.v1.LedgerService.
type LedgerServiceClient interface {
	Deposit(ctx context.Context, in *DepositRequest, opts ...grpc.CallOption) (*MovementResponse, error)
	Withdraw(ctx context.Context, in *WithdrawRequest, opts ...grpc.CallOption) (*MovementResponse, error)
	Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*MovementResponse, error)
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient wraps cc. Every call is sent with the JSON content-subtype.
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc: cc}
}

func (c *ledgerServiceClient) Deposit(ctx context.Context, in *DepositRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	out := new(MovementResponse)
	if err := c.cc.Invoke(ctx, DepositMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) Withdraw(ctx context.Context, in *WithdrawRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	out := new(MovementResponse)
	if err := c.cc.Invoke(ctx, WithdrawMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	out := new(MovementResponse)
	if err := c.cc.Invoke(ctx, TransferMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	out := new(GetBalanceResponse)
	if err := c.cc.Invoke(ctx, GetBalanceMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
