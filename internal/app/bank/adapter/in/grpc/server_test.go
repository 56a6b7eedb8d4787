package grpc_test

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	grpcadapter "github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/in/grpc"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/out/gormstore"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
	testutil "github.com/JoeShih716/go-devweek-bank/internal/testing"
	grpcpool "github.com/JoeShih716/go-devweek-bank/pkg/grpc"
	"github.com/JoeShih716/go-devweek-bank/pkg/ledgerrpc"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newClient(t *testing.T) ledgerrpc.LedgerServiceClient {
	t.Helper()
	ctx := context.Background()

	client := testutil.NewTestDB(t)
	require.NoError(t, gormstore.Migrate(client.DB()))
	core := usecase.NewCoreUseCase(gormstore.NewUserRepository(client), gormstore.NewLedger(client), zerolog.Nop())
	_, err := core.Seed(ctx)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	ledgerrpc.RegisterLedgerServiceServer(srv, grpcadapter.NewGrpcServer(core))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	pool := grpcpool.NewPool(grpcpool.WithDialOptions(
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	))
	t.Cleanup(func() { _ = pool.Close() })

	conn, err := pool.GetConnection("passthrough:///bufnet")
	require.NoError(t, err)
	return ledgerrpc.NewLedgerServiceClient(conn)
}

func TestGrpcServer_Movements(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	resp, err := c.Deposit(ctx, &ledgerrpc.DepositRequest{UserID: 1, Amount: dec("100")})
	require.NoError(t, err)
	assert.True(t, resp.Success, resp.Message)
	assert.True(t, resp.CurrentBalance.Equal(dec("724.12")), "got %s", resp.CurrentBalance)
	assert.Regexp(t, `^DEP-`, resp.TransactionID)

	refID := uuid.NewString()
	resp, err = c.Transfer(ctx, &ledgerrpc.TransferRequest{RefID: refID, FromUserID: 1, ToUserID: 2, Amount: dec("24.12")})
	require.NoError(t, err)
	assert.True(t, resp.Success, resp.Message)
	assert.Equal(t, "TRF-"+refID, resp.TransactionID)
	assert.True(t, resp.CurrentBalance.Equal(dec("700")))
	assert.True(t, resp.ToBalance.Equal(dec("1524.62")), "got %s", resp.ToBalance)

	resp, err = c.Withdraw(ctx, &ledgerrpc.WithdrawRequest{UserID: 1, Amount: dec("5000")})
	require.NoError(t, err, "business failures are soft")
	assert.False(t, resp.Success)
	assert.Equal(t, "insufficient funds", resp.Message)

	resp, err = c.Deposit(ctx, &ledgerrpc.DepositRequest{RefID: "not-a-uuid", UserID: 1, Amount: dec("1")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "invalid ref_id")

	resp, err = c.Transfer(ctx, &ledgerrpc.TransferRequest{FromUserID: 2, ToUserID: 2, Amount: dec("1")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestGrpcServer_GetBalance(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	resp, err := c.GetBalance(ctx, &ledgerrpc.GetBalanceRequest{UserID: 1})
	require.NoError(t, err)
	assert.True(t, resp.TotalAvailable.Equal(dec("1624.12")), "got %s", resp.TotalAvailable)

	_, err = c.GetBalance(ctx, &ledgerrpc.GetBalanceRequest{UserID: 404})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGrpcServer_RetriedRefIDMovesMoneyOnce(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	refID := uuid.NewString()
	req := &ledgerrpc.TransferRequest{RefID: refID, FromUserID: 1, ToUserID: 2, Amount: dec("24.12")}
	first, err := c.Transfer(ctx, req)
	require.NoError(t, err)
	require.True(t, first.Success, first.Message)

	retry, err := c.Transfer(ctx, req)
	require.NoError(t, err)
	assert.True(t, retry.Success, retry.Message)
	assert.Equal(t, first.TransactionID, retry.TransactionID)
	assert.True(t, retry.CurrentBalance.Equal(dec("600")), "got %s", retry.CurrentBalance)
	assert.True(t, retry.ToBalance.Equal(dec("1524.62")), "got %s", retry.ToBalance)
	assert.Contains(t, retry.Message, "already posted")

	resp, err := c.Transfer(ctx, &ledgerrpc.TransferRequest{RefID: refID, FromUserID: 1, ToUserID: 2, Amount: dec("1")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ErrRefIDConflict.Error(), resp.Message)

	bal, err := c.GetBalance(ctx, &ledgerrpc.GetBalanceRequest{UserID: 1})
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(dec("600")), "got %s", bal.Balance)
}
