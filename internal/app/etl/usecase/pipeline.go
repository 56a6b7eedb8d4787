package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/domain"
)

// DefaultPushLimit is how many enriched users are written back to the API.
const DefaultPushLimit = 3

// Step names used in failures.
const (
	StepHealth  = "health"
	StepExtract = "extract"
	StepUpload  = "upload"
	StepPush    = "push"
)

type PipelineConfig struct {
	API    BankAPI
	Source RowSource
	Writer ArtifactWriter
	// Uploader is optional.
	Uploader  Uploader
	Messages  *MessageGenerator
	PushLimit int
	Log       zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline extracts users from the ledger API, appends a generated message to
// each, writes the artifacts and pushes a few users back.
type Pipeline struct {
	api       BankAPI
	source    RowSource
	writer    ArtifactWriter
	uploader  Uploader
	messages  *MessageGenerator
	pushLimit int
	log       zerolog.Logger
	now       func() time.Time
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Messages == nil {
		cfg.Messages = NewMessageGenerator(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PushLimit < 0 {
		cfg.PushLimit = 0
	}
	return &Pipeline{
		api:       cfg.API,
		source:    cfg.Source,
		writer:    cfg.Writer,
		uploader:  cfg.Uploader,
		messages:  cfg.Messages,
		pushLimit: cfg.PushLimit,
		log:       cfg.Log.With().Str("component", "etl").Logger(),
		now:       cfg.Now,
	}
}

// Run executes one pass. Network failures are collected in the summary; only
// reading the input and writing the artifacts abort the run.
func (p *Pipeline) Run(ctx context.Context) (*domain.Summary, error) {
	summary := &domain.Summary{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}
	log := p.log.With().Str("run_id", summary.RunID).Logger()

	// 1. Health
	if err := p.api.Health(ctx); err != nil {
		log.Warn().Err(err).Msg("ledger api unavailable, continuing in local mode")
		summary.Failures = append(summary.Failures, domain.Failure{Step: StepHealth, Error: err.Error()})
	} else {
		summary.APIAvailable = true
	}

	// 2. Extract
	rows, err := p.source.ReadRows(ctx)
	if err != nil {
		return summary, fmt.Errorf("read input: %w", err)
	}
	log.Info().Int("rows", len(rows)).Msg("input read")

	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, p.fetchUser(ctx, log, row, summary))
	}

	// 3. Transform
	for _, u := range users {
		p.enrich(u)
	}

	// 4. Load
	reportRows := make([]domain.ReportRow, 0, len(users))
	for _, u := range users {
		reportRows = append(reportRows, domain.NewReportRow(u))
	}
	usersPath, err := p.writer.WriteUsers(users)
	if err != nil {
		return summary, fmt.Errorf("write users: %w", err)
	}
	reportPath, err := p.writer.WriteReport(reportRows)
	if err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}
	summary.Artifacts = []string{usersPath, reportPath}

	if p.uploader != nil {
		for _, path := range summary.Artifacts {
			location, err := p.uploader.Upload(ctx, summary.RunID, path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("artifact upload failed")
				summary.Failures = append(summary.Failures, domain.Failure{Step: StepUpload, Error: err.Error()})
				continue
			}
			summary.Uploaded = append(summary.Uploaded, location)
		}
	}

	// 5. Push back
	limit := min(p.pushLimit, len(users))
	summary.PushAttempted = limit
	for _, u := range users[:limit] {
		if err := p.api.UpdateUser(ctx, u); err != nil {
			log.Warn().Err(err).Int64("user_id", u.ID).Msg("push failed")
			summary.Failures = append(summary.Failures, domain.Failure{Step: StepPush, UserID: u.ID, Error: err.Error()})
			continue
		}
		summary.Pushed++
	}

	summary.Summarize(users)
	summary.FinishedAt = p.now()
	log.Info().
		Int("users", summary.Users).
		Int("pushed", summary.Pushed).
		Int("failures", len(summary.Failures)).
		Msg("pipeline finished")
	return summary, nil
}

func (p *Pipeline) fetchUser(ctx context.Context, log zerolog.Logger, row domain.InputRow, summary *domain.Summary) *domain.User {
	u, err := p.api.GetUser(ctx, row.UserID)
	if err == nil {
		return u
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		log.Warn().Err(err).Int64("user_id", row.UserID).Msg("fetch failed, using local user")
		summary.Failures = append(summary.Failures, domain.Failure{Step: StepExtract, UserID: row.UserID, Error: err.Error()})
	}
	return domain.NewLocalUser(row)
}

func (p *Pipeline) enrich(u *domain.User) {
	u.News = append(u.News, domain.NewsItem{
		ID:          len(u.News) + 1,
		Icon:        domain.NewsIcon,
		Description: p.messages.Generate(u.Name),
		Date:        p.now().Format(time.RFC3339),
	})
}
