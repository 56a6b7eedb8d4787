package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules.
// A run that is still going when its next tick arrives makes that tick a no-op.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  zerolog.Logger
}

// specParser accepts both 5-field and 6-field (leading seconds) specs plus descriptors
var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a scheduler whose jobs receive ctx.
func New(ctx context.Context, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(specParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx: ctx,
		log: log,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers a job with a cron schedule.
// Schedule examples:
//   - "*/5 * * * *"        - every 5 minutes
//   - "0 */5 * * * *"      - every 5 minutes, seconds field included
//   - "@hourly"            - every hour
//   - "@every 30s"         - every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("job registered")
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	s.log.Debug().Str("job", job.Name()).Msg("running job")
	if err := job.Run(s.ctx); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		return
	}
	s.log.Debug().Str("job", job.Name()).Msg("job completed")
}

// cronLogger routes the cron library's own messages to zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
