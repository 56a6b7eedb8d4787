package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-devweek-bank/pkg/ledgerrpc"
)

type GrpcServer struct {
	ledgerrpc.UnimplementedLedgerServiceServer
	core *usecase.CoreUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

func (s *GrpcServer) Deposit(ctx context.Context, req *ledgerrpc.DepositRequest) (*ledgerrpc.MovementResponse, error) {
	return s.post(ctx, req.RefID, func() *domain.Transaction {
		return domain.NewDeposit(req.UserID, req.Amount)
	})
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *ledgerrpc.WithdrawRequest) (*ledgerrpc.MovementResponse, error) {
	return s.post(ctx, req.RefID, func() *domain.Transaction {
		return domain.NewWithdraw(req.UserID, req.Amount)
	})
}

func (s *GrpcServer) Transfer(ctx context.Context, req *ledgerrpc.TransferRequest) (*ledgerrpc.MovementResponse, error) {
	return s.post(ctx, req.RefID, func() *domain.Transaction {
		return domain.NewTransfer(req.FromUserID, req.ToUserID, req.Amount)
	})
}

// post runs the movement. Business failures are soft: Success=false plus the reason.
// A repeated ref_id returns the first result without moving money again.
func (s *GrpcServer) post(ctx context.Context, refID string, build func() *domain.Transaction) (*ledgerrpc.MovementResponse, error) {
	tran := build()
	if refID != "" {
		id, err := uuid.Parse(refID)
		if err != nil {
			return &ledgerrpc.MovementResponse{
				Success: false,
				Message: "invalid ref_id: " + err.Error(),
			}, nil
		}
		tran.ID = id
	}

	receipt, err := s.core.PostTransaction(ctx, tran)
	if err != nil {
		if isBusinessError(err) {
			return &ledgerrpc.MovementResponse{
				Success: false,
				Message: err.Error(),
			}, nil
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := &ledgerrpc.MovementResponse{
		Success:        true,
		TransactionID:  receipt.Transaction.Reference(),
		CurrentBalance: receipt.NewBalance(),
	}
	if receipt.Replayed {
		resp.Message = "ref_id already posted, returning the original result"
	}
	if tran.Type == domain.TransactionTypeTransfer {
		resp.ToBalance = receipt.ToBalance
	}
	return resp, nil
}

func (s *GrpcServer) GetBalance(ctx context.Context, req *ledgerrpc.GetBalanceRequest) (*ledgerrpc.GetBalanceResponse, error) {
	view, err := s.core.GetBalance(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &ledgerrpc.GetBalanceResponse{
		UserID:         view.UserID,
		Balance:        view.Balance,
		AvailableLimit: view.AvailableLimit,
		TotalAvailable: view.TotalAvailable,
	}, nil
}

func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrAmountMustBePositive) ||
		errors.Is(err, domain.ErrAmountPrecision) ||
		errors.Is(err, domain.ErrRefIDConflict) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrSameAccount) ||
		errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrUserNotFound)
}

var _ ledgerrpc.LedgerServiceServer = (*GrpcServer)(nil)
