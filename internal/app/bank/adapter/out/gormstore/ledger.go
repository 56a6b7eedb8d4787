package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-devweek-bank/pkg/database"
)

// Ledger moves money between account rows with pessimistic locking.
type Ledger struct {
	client *database.Client
}

func NewLedger(client *database.Client) *Ledger {
	return &Ledger{
		client: client,
	}
}

// PostTransaction locks the involved accounts, applies the movement, writes the new balances and
// records the transaction. Everything happens in one database transaction; any error rolls it back.
// Posting an id that is already recorded returns the stored receipt with Replayed set.
func (ledger *Ledger) PostTransaction(ctx context.Context, tran *domain.Transaction) (domain.Receipt, error) {
	var receipt domain.Receipt
	err := ledger.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock in ascending user id order (SELECT ... FOR UPDATE)
		lockIDs := tran.GetLockIDs()
		var rows []sqlAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id IN ?", lockIDs).
			Order("user_id").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to lock accounts: %w", err)
		}

		// The id doubles as an idempotency key; checked after the locks so reposts of it serialize
		var posted sqlTransaction
		err := tx.Where("id = ?", tran.ID.String()).Limit(1).Find(&posted).Error
		if err != nil {
			return fmt.Errorf("failed to look up transaction: %w", err)
		}
		if posted.ID != "" {
			stored, err := posted.toReceipt()
			if err != nil {
				return err
			}
			if !stored.Transaction.SameMovement(tran) {
				return domain.ErrRefIDConflict
			}
			stored.Replayed = true
			receipt = stored
			return nil
		}

		accounts := make(map[int64]*domain.Account, len(rows))
		for i := range rows {
			accounts[rows[i].UserID] = rows[i].toDomain()
		}

		receipt, err = tran.Apply(accounts)
		if err != nil {
			return err
		}

		for _, id := range lockIDs {
			acc := accounts[id]
			if err := tx.Model(&sqlAccount{}).
				Where("id = ?", acc.ID).
				Update("balance", acc.Balance).Error; err != nil {
				return fmt.Errorf("failed to update account %d: %w", acc.ID, err)
			}
		}
		if err := tx.Create(newSQLTransaction(receipt)).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	return receipt, nil
}

var _ usecase.Ledger = (*Ledger)(nil)
