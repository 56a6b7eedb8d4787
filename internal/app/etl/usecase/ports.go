package usecase

import (
	"context"

	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/domain"
)

// BankAPI is the ledger service as seen by the pipeline.
type BankAPI interface {
	Health(ctx context.Context) error
	// GetUser returns domain.ErrUserNotFound when the API answers 404.
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// RowSource yields the input rows of one run.
type RowSource interface {
	ReadRows(ctx context.Context) ([]domain.InputRow, error)
}

// ArtifactWriter persists the run output and returns the written file paths.
type ArtifactWriter interface {
	WriteUsers(users []*domain.User) (string, error)
	WriteReport(rows []domain.ReportRow) (string, error)
}

// Uploader copies an artifact to remote storage and returns its location.
type Uploader interface {
	Upload(ctx context.Context, runID, path string) (string, error)
}
