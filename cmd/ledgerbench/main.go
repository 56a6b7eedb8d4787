package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"

	grpcpool "github.com/JoeShih716/go-devweek-bank/pkg/grpc"
	"github.com/JoeShih716/go-devweek-bank/pkg/ledgerrpc"
	"github.com/JoeShih716/go-devweek-bank/pkg/logger"
)

type benchConfig struct {
	addr        string
	count       int
	concurrency int
	from, to    int64
	amount      decimal.Decimal
	timeout     time.Duration
}

func main() {
	addr := flag.String("addr", "localhost:50051", "ledger gRPC address")
	count := flag.Int("count", 1000, "number of transfers")
	concurrency := flag.Int("concurrency", 50, "in-flight transfers")
	from := flag.Int64("from", 1, "first user id")
	to := flag.Int64("to", 2, "second user id")
	amount := flag.String("amount", "1.00", "amount per transfer")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	log := logger.New(logger.Config{Level: "info", Pretty: true})

	err := func() error {
		amt, err := decimal.NewFromString(*amount)
		if err != nil || !amt.IsPositive() {
			return fmt.Errorf("amount %q must be a positive decimal", *amount)
		}
		return run(benchConfig{
			addr:        *addr,
			count:       *count,
			concurrency: *concurrency,
			from:        *from,
			to:          *to,
			amount:      amt,
			timeout:     *timeout,
		}, log)
	}()
	if err != nil {
		log.Error().Err(err).Msg("ledgerbench failed")
		os.Exit(1)
	}
}

// run fires cfg.count opposite transfers between two users and checks their balance sum is unchanged.
func run(cfg benchConfig, log zerolog.Logger) error {
	// Sum of per-call latency, for the average
	var rpcNanos atomic.Int64
	pool := grpcpool.NewPool(grpcpool.WithInterceptor(
		func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)
			rpcNanos.Add(int64(time.Since(start)))
			return err
		},
	))
	defer pool.Close()

	conn, err := pool.GetConnection(cfg.addr)
	if err != nil {
		return fmt.Errorf("did not connect: %w", err)
	}
	c := ledgerrpc.NewLedgerServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	before, err := total(ctx, c, cfg.from, cfg.to)
	if err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		ok       atomic.Int64
		rejected atomic.Int64
		failed   atomic.Int64
	)
	sem := make(chan struct{}, cfg.concurrency)
	startTime := time.Now()

	for i := 0; i < cfg.count; i++ {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			req := &ledgerrpc.TransferRequest{
				RefID:      uuid.NewString(),
				FromUserID: cfg.from,
				ToUserID:   cfg.to,
				Amount:     cfg.amount,
			}
			if idx%2 == 1 {
				req.FromUserID, req.ToUserID = cfg.to, cfg.from
			}
			resp, err := c.Transfer(ctx, req)
			switch {
			case err != nil:
				failed.Add(1)
				if idx%100 == 0 {
					log.Warn().Err(err).Int("idx", idx).Msg("transfer failed")
				}
			case !resp.Success:
				rejected.Add(1)
			default:
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	after, err := total(ctx, c, cfg.from, cfg.to)
	if err != nil {
		return err
	}

	calls := int64(cfg.count) + 4
	fmt.Printf("Completed %d transfers in %v\n", cfg.count, elapsed)
	fmt.Printf("TPS: %.2f\n", float64(cfg.count)/elapsed.Seconds())
	fmt.Printf("Avg latency: %v\n", time.Duration(rpcNanos.Load()/calls))
	fmt.Printf("Succeeded: %d, rejected: %d, errors: %d\n", ok.Load(), rejected.Load(), failed.Load())
	fmt.Printf("Balance sum before: %s, after: %s\n", before, after)

	if !before.Equal(after) {
		return fmt.Errorf("balance sum changed from %s to %s", before, after)
	}
	return nil
}

// total returns the sum of both users' balances.
func total(ctx context.Context, c ledgerrpc.LedgerServiceClient, ids ...int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, id := range ids {
		resp, err := c.GetBalance(ctx, &ledgerrpc.GetBalanceRequest{UserID: id})
		if err != nil {
			return decimal.Zero, fmt.Errorf("get balance of user %d: %w", id, err)
		}
		sum = sum.Add(resp.Balance)
	}
	return sum, nil
}
