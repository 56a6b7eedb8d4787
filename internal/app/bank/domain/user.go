package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength  = 100
	maxEmailLength = 100
)

func init() {
	// money is rendered as a JSON number, the way API clients expect it
	decimal.MarshalJSONWithoutQuotes = true
}

// User is the aggregate root: one account, one card, any number of features and news.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Account   Account   `json:"account"`
	Card      Card      `json:"card"`
	Features  []Feature `json:"features"`
	News      []News    `json:"news"`
}

// Validate checks the fields the store cannot hold.
func (u *User) Validate() error {
	if err := validateName(u.Name); err != nil {
		return err
	}
	if u.Email != nil && utf8.RuneCountInString(*u.Email) > maxEmailLength {
		return fmt.Errorf("%w: email longer than %d characters", ErrInvalidUser, maxEmailLength)
	}
	if strings.TrimSpace(u.Account.Number) == "" || strings.TrimSpace(u.Account.Agency) == "" {
		return fmt.Errorf("%w: account number and agency are required", ErrInvalidUser)
	}
	for field, v := range map[string]decimal.Decimal{
		"account balance": u.Account.Balance,
		"account limit":   u.Account.Limit,
		"card limit":      u.Card.Limit,
	} {
		if !HasMoneyScale(v) {
			return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidUser, field, MoneyScale)
		}
	}
	if u.Account.Limit.IsNegative() {
		return fmt.Errorf("%w: account limit must not be negative", ErrInvalidUser)
	}
	if strings.TrimSpace(u.Card.Number) == "" {
		return fmt.Errorf("%w: card number is required", ErrInvalidUser)
	}
	if u.Card.Limit.IsNegative() {
		return fmt.Errorf("%w: card limit must not be negative", ErrInvalidUser)
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidUser, maxNameLength)
	}
	return nil
}

// UserPatch is a partial update. Nil fields keep their current value.
type UserPatch struct {
	Name  *string
	Email *string
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
		u.Name = *p.Name
	}
	if p.Email != nil {
		if utf8.RuneCountInString(*p.Email) > maxEmailLength {
			return fmt.Errorf("%w: email longer than %d characters", ErrInvalidUser, maxEmailLength)
		}
		email := *p.Email
		u.Email = &email
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil
}

// BalanceView is the balance summary of a user's account.
type BalanceView struct {
	UserID         int64           `json:"user_id"`
	Balance        decimal.Decimal `json:"balance"`
	AvailableLimit decimal.Decimal `json:"available_limit"`
	TotalAvailable decimal.Decimal `json:"total_available"`
}

// NewBalanceView builds the view for the given user.
func NewBalanceView(u *User) BalanceView {
	return BalanceView{
		UserID:         u.ID,
		Balance:        u.Account.Balance,
		AvailableLimit: u.Account.Limit,
		TotalAvailable: u.Account.Available(),
	}
}
