package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	grpcadapter "github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/in/grpc"
	httpadapter "github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/in/http"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/out/gormstore"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/out/journal"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/adapter/out/rabbitmq"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-devweek-bank/internal/config"
	"github.com/JoeShih716/go-devweek-bank/pkg/database"
	"github.com/JoeShih716/go-devweek-bank/pkg/ledgerrpc"
	"github.com/JoeShih716/go-devweek-bank/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the yaml config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath)
	stop()
	if err != nil {
		zlog.Error().Err(err).Msg("bank stopped")
		os.Exit(1)
	}
}

// run loads the config and serves until ctx is cancelled or a server fails.
func run(ctx context.Context, configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log)
	logger.SetGlobalLogger(log)

	return serve(ctx, cfg, log)
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// 2. Database
	dbClient, err := database.NewClient(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbClient.Close()

	if err := gormstore.Migrate(dbClient.DB()); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// 3. Movement sinks, best effort
	var sinks []usecase.EventSink
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Journal.Path).Msg("journal disabled")
		} else {
			defer j.Close()
			sinks = append(sinks, j)
		}
	}
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq events disabled")
		} else {
			defer pub.Close()
			sinks = append(sinks, pub)
		}
	}

	// 4. UseCase
	core := usecase.NewCoreUseCase(
		gormstore.NewUserRepository(dbClient),
		gormstore.NewLedger(dbClient),
		log,
		sinks...,
	)

	if cfg.SeedEnabled() {
		created, err := core.Seed(context.Background())
		if err != nil {
			return fmt.Errorf("failed to seed sample users: %w", err)
		}
		if created > 0 {
			log.Info().Int("users", created).Msg("sample users created")
		}
	}

	// 5. gRPC listener first, so a busy port fails before anything is serving
	var (
		grpcServer *grpc.Server
		grpcLis    net.Listener
	)
	if cfg.GRPC.Enabled {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr())
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr(), err)
		}
		// Pool clients ping every 10s
		grpcServer = grpc.NewServer(grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}))
		ledgerrpc.RegisterLedgerServiceServer(grpcServer, grpcadapter.NewGrpcServer(core))
		healthServer := health.NewServer()
		healthServer.SetServingStatus(ledgerrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(grpcServer, healthServer)
	}

	// 6. HTTP
	httpServer := httpadapter.New(httpadapter.Config{
		Addr:           cfg.HTTPAddr(),
		Log:            log,
		Core:           core,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.Start()
	}()
	if grpcServer != nil {
		go func() {
			log.Info().Str("addr", cfg.GRPCAddr()).Msg("starting gRPC server")
			errCh <- grpcServer.Serve(grpcLis)
		}()
	}

	// Graceful Shutdown
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case serveErr = <-errCh:
		if serveErr == nil {
			serveErr = errors.New("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if serveErr != nil {
		return fmt.Errorf("server failed: %w", serveErr)
	}
	log.Info().Msg("server exited")
	return nil
}
