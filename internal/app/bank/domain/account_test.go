package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAccount_WithdrawUsesOverdraftLimit(t *testing.T) {
	acc := &Account{Balance: dec("100"), Limit: dec("50")}

	err := acc.Withdraw(dec("200"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, acc.Balance.Equal(dec("100")), "failed withdraw must not touch the balance")

	require.NoError(t, acc.Withdraw(dec("150")))
	assert.True(t, acc.Balance.Equal(dec("-50")), "got %s", acc.Balance)

	err = acc.Withdraw(dec("1"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, acc.Balance.Equal(dec("-50")))
}

func TestAccount_DepositThenWithdrawRestoresBalance(t *testing.T) {
	amounts := []string{"0.01", "1", "624.12", "1624.12"}
	for _, a := range amounts {
		t.Run(a, func(t *testing.T) {
			acc := &Account{Balance: dec("624.12"), Limit: dec("1000")}
			require.NoError(t, acc.Deposit(dec(a)))
			require.NoError(t, acc.Withdraw(dec(a)))
			assert.True(t, acc.Balance.Equal(dec("624.12")), "got %s", acc.Balance)
		})
	}
}

func TestAccount_RejectsNonPositiveAmounts(t *testing.T) {
	acc := &Account{Balance: dec("10"), Limit: dec("0")}

	for _, a := range []string{"0", "-5"} {
		assert.ErrorIs(t, acc.Deposit(dec(a)), ErrAmountMustBePositive)
		assert.ErrorIs(t, acc.Withdraw(dec(a)), ErrAmountMustBePositive)
	}
	assert.True(t, acc.Balance.Equal(dec("10")))
}

func TestAccount_BalanceNeverBelowNegativeLimit(t *testing.T) {
	acc := &Account{Balance: dec("30"), Limit: dec("20")}
	ops := []struct {
		deposit bool
		amount  string
	}{
		{false, "45"}, {false, "10"}, {true, "7.5"}, {false, "12.5"}, {false, "0.01"}, {true, "100"}, {false, "119.99"},
	}

	for _, op := range ops {
		if op.deposit {
			_ = acc.Deposit(dec(op.amount))
		} else {
			_ = acc.Withdraw(dec(op.amount))
		}
		assert.True(t, acc.Balance.GreaterThanOrEqual(acc.Limit.Neg()), "balance %s fell below -limit", acc.Balance)
	}
}

func TestNewBalanceView(t *testing.T) {
	u := &User{ID: 7, Account: Account{Balance: dec("624.12"), Limit: dec("1000.0")}}

	view := NewBalanceView(u)

	assert.Equal(t, int64(7), view.UserID)
	assert.True(t, view.TotalAvailable.Equal(dec("1624.12")), "got %s", view.TotalAvailable)
}

func TestUser_ValidateMoneyScale(t *testing.T) {
	valid := func() *User {
		return &User{
			Name:    "Ana",
			Account: Account{Number: "1", Agency: "0001", Balance: dec("10.1234"), Limit: dec("1000")},
			Card:    Card{Number: "**** **** **** 1234", Limit: dec("2000.50")},
		}
	}
	require.NoError(t, valid().Validate())

	u := valid()
	u.Account.Balance = dec("10.12345")
	assert.ErrorIs(t, u.Validate(), ErrInvalidUser)

	u = valid()
	u.Account.Limit = dec("0.00001")
	assert.ErrorIs(t, u.Validate(), ErrInvalidUser)

	u = valid()
	u.Card.Limit = dec("1.000001")
	assert.ErrorIs(t, u.Validate(), ErrInvalidUser)
}
