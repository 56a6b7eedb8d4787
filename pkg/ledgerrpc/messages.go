// Package ledgerrpc is the wire contract of the ledger RPC endpoint.
// Messages travel as JSON through the codec registered in codec.go, so no generated code is needed.
package ledgerrpc

import "github.com/shopspring/decimal"

// DepositRequest credits UserID. RefID is an optional client chosen UUID.
type DepositRequest struct {
	RefID  string          `json:"ref_id,omitempty"`
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type WithdrawRequest struct {
	RefID  string          `json:"ref_id,omitempty"`
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	RefID      string          `json:"ref_id,omitempty"`
	FromUserID int64           `json:"from_user_id"`
	ToUserID   int64           `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// MovementResponse reports a movement. Business failures come back with Success=false
// and a Message rather than as an RPC error.
type MovementResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	// CurrentBalance is the balance of the debited account, or the credited one for deposits
	CurrentBalance decimal.Decimal `json:"current_balance"`
	// ToBalance is only set for transfers
	ToBalance decimal.Decimal `json:"to_balance"`
}

type GetBalanceRequest struct {
	UserID int64 `json:"user_id"`
}

type GetBalanceResponse struct {
	UserID         int64           `json:"user_id"`
	Balance        decimal.Decimal `json:"balance"`
	AvailableLimit decimal.Decimal `json:"available_limit"`
	TotalAvailable decimal.Decimal `json:"total_available"`
}
