package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places stored for every amount, balance and limit.
const MoneyScale int32 = 4

// HasMoneyScale reports whether d fits in MoneyScale decimal places. Trailing zeros are fine.
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

var (
	// DefaultAccountLimit overdraft allowance for accounts created without one
	DefaultAccountLimit = decimal.NewFromInt(1000)
	// DefaultCardLimit card limit for cards created without one
	DefaultCardLimit = decimal.NewFromInt(2000)
)

// Account is the single ledger account owned by a user.
// Balance may go negative, but never below -Limit.
type Account struct {
	ID      int64           `json:"-"`
	UserID  int64           `json:"-"`
	Number  string          `json:"number"`
	Agency  string          `json:"agency"`
	Balance decimal.Decimal `json:"balance"`
	Limit   decimal.Decimal `json:"limit"`
}

// Available returns balance + limit, the most that can leave the account.
func (a *Account) Available() decimal.Decimal {
	return a.Balance.Add(a.Limit)
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw removes amount from the balance, bounded by the overdraft allowance rather than the balance alone.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	if amount.GreaterThan(a.Available()) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Card is the payment card owned by a user.
type Card struct {
	ID     int64           `json:"-"`
	Number string          `json:"number"`
	Limit  decimal.Decimal `json:"limit"`
}

// Feature is a menu shortcut shown to the user.
type Feature struct {
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// News is a message shown on the user's home screen.
type News struct {
	Icon        string `json:"icon"`
	Description string `json:"description"`
}
