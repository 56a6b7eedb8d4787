package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	zlog "github.com/rs/zerolog/log"

	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/adapter/out/bankapi"
	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/adapter/out/files"
	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/adapter/out/s3"
	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/usecase"
	"github.com/JoeShih716/go-devweek-bank/internal/config"
	"github.com/JoeShih716/go-devweek-bank/pkg/logger"
	"github.com/JoeShih716/go-devweek-bank/pkg/scheduler"
)

// pipelineJob runs the pipeline and prints its report.
type pipelineJob struct {
	pipeline *usecase.Pipeline
}

func (j *pipelineJob) Name() string {
	return "etl_pipeline"
}

func (j *pipelineJob) Run(ctx context.Context) error {
	summary, err := j.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	return summary.WriteText(os.Stdout)
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the yaml config file")
	schedule := flag.String("schedule", "", "cron spec; runs once when empty (overrides etl.schedule)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath, *schedule)
	stop()
	if err != nil {
		zlog.Error().Err(err).Msg("etl stopped")
		os.Exit(1)
	}
}

// run executes the pipeline once, or on schedule until ctx is cancelled.
func run(ctx context.Context, configPath, schedule string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if schedule != "" {
		cfg.ETL.Schedule = schedule
	}

	log := logger.New(cfg.Log)
	logger.SetGlobalLogger(log)

	// 2. Adapters
	var uploader usecase.Uploader
	if cfg.ETL.S3.Bucket != "" {
		s3Uploader, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.ETL.S3.Bucket,
			Prefix:          cfg.ETL.S3.Prefix,
			Region:          cfg.ETL.S3.Region,
			Endpoint:        cfg.ETL.S3.Endpoint,
			AccessKeyID:     cfg.ETL.S3.AccessKeyID,
			SecretAccessKey: cfg.ETL.S3.SecretAccessKey,
		})
		if err != nil {
			log.Warn().Err(err).Msg("s3 upload disabled")
		} else {
			uploader = s3Uploader
		}
	}

	// 3. Pipeline
	job := &pipelineJob{
		pipeline: usecase.NewPipeline(usecase.PipelineConfig{
			API:       bankapi.New(cfg.ETL.APIURL, cfg.ETL.Timeout),
			Source:    files.NewSource(cfg.ETL.InputPath, log),
			Writer:    files.NewWriter(cfg.ETL.OutputDir),
			Uploader:  uploader,
			PushLimit: *cfg.ETL.PushLimit,
			Log:       log,
		}),
	}

	sched := scheduler.New(ctx, log)
	if cfg.ETL.Schedule == "" {
		if err := sched.RunNow(job); err != nil {
			return fmt.Errorf("pipeline failed: %w", err)
		}
		return nil
	}

	// 4. Scheduled mode
	if err := sched.AddJob(cfg.ETL.Schedule, job); err != nil {
		return fmt.Errorf("failed to schedule pipeline: %w", err)
	}
	sched.Start()
	<-ctx.Done()
	log.Info().Msg("stopping scheduler")
	sched.Stop()
	return nil
}
