package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-devweek-bank/pkg/wal"
)

// Entry is one committed movement as written to the journal.
type Entry struct {
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	From          int64           `json:"from,omitempty"`
	To            int64           `json:"to,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	FromBalance   decimal.Decimal `json:"from_balance"`
	ToBalance     decimal.Decimal `json:"to_balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newEntry(r domain.Receipt) Entry {
	return Entry{
		TransactionID: r.Transaction.Reference(),
		Type:          r.Transaction.Type.String(),
		From:          r.Transaction.From,
		To:            r.Transaction.To,
		Amount:        r.Transaction.Amount,
		FromBalance:   r.FromBalance,
		ToBalance:     r.ToBalance,
		CreatedAt:     r.Transaction.CreatedAt,
	}
}

// Journal appends every committed movement to a local log file.
// It is an audit trail; balances are never rebuilt from it.
type Journal struct {
	wal *wal.WAL
}

// Open opens or creates the journal file at path.
func Open(path string) (*Journal, error) {
	w, err := wal.Open(path)
	if err != nil {
		return nil, err
	}
	return &Journal{wal: w}, nil
}

func (j *Journal) Publish(_ context.Context, receipt domain.Receipt) error {
	if err := j.wal.Append(newEntry(receipt)); err != nil {
		return fmt.Errorf("failed to append %s to journal: %w", receipt.Transaction.Reference(), err)
	}
	return nil
}

func (j *Journal) Name() string {
	return "journal"
}

// Entries reads the whole journal in order.
func (j *Journal) Entries() ([]Entry, error) {
	var entries []Entry
	err := j.wal.ReadAll(func(raw json.RawMessage) error {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

func (j *Journal) Close() error {
	return j.wal.Close()
}

var _ usecase.EventSink = (*Journal)(nil)
