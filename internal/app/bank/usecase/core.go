package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
)

const (
	// MaxPageSize is the largest list window a caller may request
	MaxPageSize = 500
	// DefaultPageSize is used when the caller does not ask for one
	DefaultPageSize = 100
)

// CoreUseCase holds the bank business rules on top of the store ports.
type CoreUseCase struct {
	users  UserRepository
	ledger Ledger
	sinks  []EventSink
	log    zerolog.Logger
}

func NewCoreUseCase(users UserRepository, ledger Ledger, log zerolog.Logger, sinks ...EventSink) *CoreUseCase {
	return &CoreUseCase{
		users:  users,
		ledger: ledger,
		sinks:  sinks,
		log:    log.With().Str("component", "bank").Logger(),
	}
}

// CreateUser persists a full user payload in one transaction.
func (c *CoreUseCase) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := c.users.Create(ctx, user); err != nil {
		return nil, err
	}
	c.log.Info().Int64("user_id", user.ID).Str("name", user.Name).Msg("user created")
	return user, nil
}

// CreateSimpleUser creates a user with generated account and card data.
func (c *CoreUseCase) CreateSimpleUser(ctx context.Context, name string, email *string, initialBalance decimal.Decimal) (*domain.User, error) {
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance must not be negative", domain.ErrInvalidUser)
	}
	user := &domain.User{
		Name:  name,
		Email: email,
		Account: domain.Account{
			Number:  fmt.Sprintf("%d-%d", 10000+rand.IntN(90000), rand.IntN(10)),
			Agency:  "0001",
			Balance: initialBalance,
			Limit:   domain.DefaultAccountLimit,
		},
		Card: domain.Card{
			Number: fmt.Sprintf("**** **** **** %d", 1000+rand.IntN(9000)),
			Limit:  domain.DefaultCardLimit,
		},
		Features: []domain.Feature{
			{Icon: "💰", Description: "Pix"},
			{Icon: "💸", Description: "Transfer"},
			{Icon: "🛒", Description: "Payments"},
		},
		News: []domain.News{
			{Icon: "🎉", Description: "Welcome to Dev Week Bank!"},
		},
	}
	return c.CreateUser(ctx, user)
}

// GetUser returns the user with all of its children.
func (c *CoreUseCase) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return c.users.Get(ctx, id)
}

// ListUsers returns a page of users ordered by id.
func (c *CoreUseCase) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	if skip < 0 || limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: skip must be >= 0 and limit between 1 and %d", domain.ErrInvalidPage, MaxPageSize)
	}
	return c.users.List(ctx, skip, limit)
}

// UpdateUser merges the non-nil fields of patch into the stored user.
func (c *CoreUseCase) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	return c.users.Update(ctx, id, patch)
}

// DeleteUser removes a user and everything it owns.
func (c *CoreUseCase) DeleteUser(ctx context.Context, id int64) error {
	if err := c.users.Delete(ctx, id); err != nil {
		return err
	}
	c.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// GetBalance returns balance, limit and their sum for the user's account.
func (c *CoreUseCase) GetBalance(ctx context.Context, id int64) (domain.BalanceView, error) {
	user, err := c.users.Get(ctx, id)
	if err != nil {
		return domain.BalanceView{}, err
	}
	return domain.NewBalanceView(user), nil
}

// Deposit credits amount to the user's account.
func (c *CoreUseCase) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (domain.Receipt, error) {
	return c.PostTransaction(ctx, domain.NewDeposit(userID, amount))
}

// Withdraw debits amount from the user's account, allowing the overdraft limit.
func (c *CoreUseCase) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (domain.Receipt, error) {
	return c.PostTransaction(ctx, domain.NewWithdraw(userID, amount))
}

// Transfer moves amount between two different users' accounts.
func (c *CoreUseCase) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) (domain.Receipt, error) {
	return c.PostTransaction(ctx, domain.NewTransfer(fromUserID, toUserID, amount))
}

// PostTransaction validates and commits a movement, then notifies the sinks.
// A replayed id is not published again.
func (c *CoreUseCase) PostTransaction(ctx context.Context, tran *domain.Transaction) (domain.Receipt, error) {
	if err := tran.Validate(); err != nil {
		return domain.Receipt{}, err
	}
	receipt, err := c.ledger.PostTransaction(ctx, tran)
	if err != nil {
		c.log.Debug().Err(err).
			Str("type", tran.Type.String()).
			Int64("from", tran.From).
			Int64("to", tran.To).
			Str("amount", tran.Amount.String()).
			Msg("transaction rejected")
		return domain.Receipt{}, err
	}
	if receipt.Replayed {
		c.log.Info().
			Str("transaction_id", tran.Reference()).
			Msg("transaction already posted, returning stored result")
		return receipt, nil
	}

	c.log.Info().
		Str("transaction_id", tran.Reference()).
		Str("type", tran.Type.String()).
		Int64("from", tran.From).
		Int64("to", tran.To).
		Str("amount", tran.Amount.String()).
		Msg("transaction committed")

	c.publish(ctx, receipt)
	return receipt, nil
}

// publish hands the receipt to every sink; failures are only logged.
func (c *CoreUseCase) publish(ctx context.Context, receipt domain.Receipt) {
	for _, sink := range c.sinks {
		if err := sink.Publish(ctx, receipt); err != nil {
			c.log.Warn().Err(err).
				Str("sink", sink.Name()).
				Str("transaction_id", receipt.Transaction.Reference()).
				Msg("event sink failed")
		}
	}
}
