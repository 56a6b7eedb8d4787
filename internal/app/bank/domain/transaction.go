package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement.
type TransactionType uint8

const (
	TransactionTypeDeposit  TransactionType = 1
	TransactionTypeWithdraw TransactionType = 2
	TransactionTypeTransfer TransactionType = 3
)

// String returns the lower-case name used in logs and events.
func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "deposit"
	case TransactionTypeWithdraw:
		return "withdraw"
	case TransactionTypeTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// referencePrefix is the display prefix of transaction references.
func (t TransactionType) referencePrefix() string {
	switch t {
	case TransactionTypeDeposit:
		return "DEP"
	case TransactionTypeWithdraw:
		return "WDR"
	case TransactionTypeTransfer:
		return "TRF"
	default:
		return "TXN"
	}
}

// Transaction is a single money movement request.
// From is the debited user (withdraw, transfer), To the credited one (deposit, transfer).
// It is not a ledger entry: nothing stores it unless a journal sink is configured.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	Type      TransactionType `json:"type"`
	From      int64           `json:"from,omitempty"`
	To        int64           `json:"to,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewDeposit builds a deposit into userID.
func NewDeposit(userID int64, amount decimal.Decimal) *Transaction {
	return newTransaction(TransactionTypeDeposit, 0, userID, amount)
}

// NewWithdraw builds a withdrawal from userID.
func NewWithdraw(userID int64, amount decimal.Decimal) *Transaction {
	return newTransaction(TransactionTypeWithdraw, userID, 0, amount)
}

// NewTransfer builds a transfer between two users.
func NewTransfer(fromUserID, toUserID int64, amount decimal.Decimal) *Transaction {
	return newTransaction(TransactionTypeTransfer, fromUserID, toUserID, amount)
}

func newTransaction(t TransactionType, from, to int64, amount decimal.Decimal) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		Type:      t,
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the request before any account is touched.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrAmountMustBePositive
	}
	if !HasMoneyScale(t.Amount) {
		return ErrAmountPrecision
	}
	if t.Type == TransactionTypeTransfer && t.From == t.To {
		return ErrSameAccount
	}
	return nil
}

// Reference is the display identifier returned to clients, e.g. "TRF-6f1c...".
func (t *Transaction) Reference() string {
	return t.Type.referencePrefix() + "-" + t.ID.String()
}

// GetLockIDs returns the user ids whose accounts must be locked, in ascending order to avoid deadlocks.
func (t *Transaction) GetLockIDs() (ids []int64) {
	ids = make([]int64, 0, 2)
	switch t.Type {
	case TransactionTypeTransfer:
		if t.From < t.To {
			ids = append(ids, t.From, t.To)
		} else {
			ids = append(ids, t.To, t.From)
		}
	case TransactionTypeDeposit:
		ids = append(ids, t.To)
	case TransactionTypeWithdraw:
		ids = append(ids, t.From)
	}
	return ids
}

// Apply runs the movement against the locked accounts.
// accounts is keyed by user id and must hold every id from GetLockIDs.
func (t *Transaction) Apply(accounts map[int64]*Account) (Receipt, error) {
	if err := t.Validate(); err != nil {
		return Receipt{}, err
	}
	for _, id := range t.GetLockIDs() {
		if _, ok := accounts[id]; !ok {
			return Receipt{}, ErrAccountNotFound
		}
	}

	receipt := Receipt{Transaction: *t}
	switch t.Type {
	case TransactionTypeDeposit:
		to := accounts[t.To]
		if err := to.Deposit(t.Amount); err != nil {
			return Receipt{}, err
		}
		receipt.ToBalance = to.Balance
	case TransactionTypeWithdraw:
		from := accounts[t.From]
		if err := from.Withdraw(t.Amount); err != nil {
			return Receipt{}, err
		}
		receipt.FromBalance = from.Balance
	case TransactionTypeTransfer:
		from, to := accounts[t.From], accounts[t.To]
		if err := from.Withdraw(t.Amount); err != nil {
			return Receipt{}, err
		}
		if err := to.Deposit(t.Amount); err != nil {
			return Receipt{}, err
		}
		receipt.FromBalance = from.Balance
		receipt.ToBalance = to.Balance
	}
	return receipt, nil
}

// SameMovement reports whether o asks for the same movement as t, ignoring ids and timestamps.
func (t *Transaction) SameMovement(o *Transaction) bool {
	return t.Type == o.Type && t.From == o.From && t.To == o.To && t.Amount.Equal(o.Amount)
}

// Receipt is the outcome of a committed movement.
type Receipt struct {
	Transaction Transaction     `json:"transaction"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
	// Replayed is set when the transaction id was already posted and nothing moved this time
	Replayed bool `json:"-"`
}

// NewBalance returns the balance of the account the caller acted on.
func (r Receipt) NewBalance() decimal.Decimal {
	if r.Transaction.Type == TransactionTypeDeposit {
		return r.ToBalance
	}
	return r.FromBalance
}
