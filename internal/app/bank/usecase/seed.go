package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
)

// SampleUsers returns the fixed users created on a fresh store.
func SampleUsers() []*domain.User {
	email1 := "devweekerson@santander.com"
	email2 := "maria.silva@email.com"
	return []*domain.User{
		{
			Name:  "Devweekerson",
			Email: &email1,
			Account: domain.Account{
				Number:  "01.097954-4",
				Agency:  "2030",
				Balance: decimal.RequireFromString("624.12"),
				Limit:   decimal.RequireFromString("1000.0"),
			},
			Card: domain.Card{
				Number: "**** **** **** 1111",
				Limit:  decimal.RequireFromString("2000.0"),
			},
			Features: []domain.Feature{
				{Icon: "💰", Description: "Pix"},
				{Icon: "💸", Description: "Transfer"},
				{Icon: "🛒", Description: "Pay"},
			},
			News: []domain.News{
				{Icon: "🎉", Description: "New feature released!"},
				{Icon: "📢", Description: "System maintenance scheduled"},
			},
		},
		{
			Name:  "Maria Silva",
			Email: &email2,
			Account: domain.Account{
				Number:  "02.123456-7",
				Agency:  "2031",
				Balance: decimal.RequireFromString("1500.50"),
				Limit:   decimal.RequireFromString("2000.0"),
			},
			Card: domain.Card{
				Number: "**** **** **** 2222",
				Limit:  decimal.RequireFromString("3000.0"),
			},
			Features: []domain.Feature{
				{Icon: "💰", Description: "Pix"},
				{Icon: "📊", Description: "Investments"},
			},
			News: []domain.News{
				{Icon: "🎉", Description: "Welcome to Santander!"},
			},
		},
	}
}

// Seed creates the sample users when the store has no users at all.
// It returns the number of users created.
func (c *CoreUseCase) Seed(ctx context.Context) (int, error) {
	count, err := c.users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		c.log.Debug().Int64("users", count).Msg("store already populated, skipping seed")
		return 0, nil
	}

	created := 0
	for _, user := range SampleUsers() {
		if _, err := c.CreateUser(ctx, user); err != nil {
			return created, fmt.Errorf("failed to seed user %q: %w", user.Name, err)
		}
		created++
	}
	c.log.Info().Int("users", created).Msg("sample data seeded")
	return created, nil
}
