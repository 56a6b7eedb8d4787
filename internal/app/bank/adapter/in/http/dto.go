package http

import (
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
)

type accountRequest struct {
	Number  string           `json:"number"`
	Agency  string           `json:"agency"`
	Balance decimal.Decimal  `json:"balance"`
	Limit   *decimal.Decimal `json:"limit"`
}

type cardRequest struct {
	Number string           `json:"number"`
	Limit  *decimal.Decimal `json:"limit"`
}

type userCreateRequest struct {
	Name     string           `json:"name"`
	Email    *string          `json:"email"`
	Account  accountRequest   `json:"account"`
	Card     cardRequest      `json:"card"`
	Features []domain.Feature `json:"features"`
	News     []domain.News    `json:"news"`
}

func (req *userCreateRequest) toDomain() *domain.User {
	accountLimit := domain.DefaultAccountLimit
	if req.Account.Limit != nil {
		accountLimit = *req.Account.Limit
	}
	cardLimit := domain.DefaultCardLimit
	if req.Card.Limit != nil {
		cardLimit = *req.Card.Limit
	}
	features := req.Features
	if features == nil {
		features = []domain.Feature{}
	}
	news := req.News
	if news == nil {
		news = []domain.News{}
	}
	return &domain.User{
		Name:  req.Name,
		Email: req.Email,
		Account: domain.Account{
			Number:  req.Account.Number,
			Agency:  req.Account.Agency,
			Balance: req.Account.Balance,
			Limit:   accountLimit,
		},
		Card: domain.Card{
			Number: req.Card.Number,
			Limit:  cardLimit,
		},
		Features: features,
		News:     news,
	}
}

type simpleUserRequest struct {
	Name           string           `json:"name"`
	Email          *string          `json:"email"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
}

// userUpdateRequest: absent and null fields both decode to nil and are kept
type userUpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	ToUserID int64           `json:"to_user_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type movementResponse struct {
	Message       string          `json:"message"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	TransactionID string          `json:"transaction_id"`
}

type transferResponse struct {
	Message        string          `json:"message"`
	FromUserID     int64           `json:"from_user_id"`
	ToUserID       int64           `json:"to_user_id"`
	Amount         decimal.Decimal `json:"amount"`
	NewBalanceFrom decimal.Decimal `json:"new_balance_from"`
	NewBalanceTo   decimal.Decimal `json:"new_balance_to"`
	TransactionID  string          `json:"transaction_id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
