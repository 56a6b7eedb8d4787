package usecase

import (
	"context"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
)

// Ledger is the money movement port.
type Ledger interface {
	// PostTransaction applies a deposit, withdrawal or transfer atomically, chosen by tran.Type
	PostTransaction(ctx context.Context, tran *domain.Transaction) (domain.Receipt, error)
}

// UserRepository stores users together with their account, card, features and news.
type UserRepository interface {
	// Create persists the user and all of its children as one unit
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, skip, limit int) ([]domain.User, error)
	// Update applies patch to the stored user and returns the result
	Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	// Delete removes the user and, by cascade, everything it owns
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// EventSink receives committed movements. Failures never undo the movement.
type EventSink interface {
	Publish(ctx context.Context, receipt domain.Receipt) error
	Name() string
}
