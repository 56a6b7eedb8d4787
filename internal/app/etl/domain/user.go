package domain

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrUserNotFound the ledger API has no user with the requested id
var ErrUserNotFound = errors.New("user not found in ledger api")

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// NewsIcon is the icon attached to generated messages.
const NewsIcon = "https://cdn-icons-png.flaticon.com/512/3135/3135679.png"

// InputRow is one line of the input CSV.
type InputRow struct {
	UserID int64
	Name   string
	Email  string
}

// DisplayName falls back to "Customer <id>" for rows without a name.
func (r InputRow) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return "Customer " + strconv.FormatInt(r.UserID, 10)
}

// SampleRows are written to the input file when it does not exist.
func SampleRows() []InputRow {
	return []InputRow{
		{UserID: 1, Name: "Naruto Uzumaki", Email: "naruto@konoha.com"},
		{UserID: 2, Name: "Hinata Hyuga", Email: "hinata@konoha.com"},
		{UserID: 3, Name: "Sasuke Uchiha", Email: "sasuke@konoha.com"},
		{UserID: 4, Name: "Sakura Haruno", Email: "sakura@konoha.com"},
		{UserID: 5, Name: "Kakashi Hatake", Email: "kakashi@konoha.com"},
	}
}

type Account struct {
	Number  string          `json:"number"`
	Agency  string          `json:"agency"`
	Balance decimal.Decimal `json:"balance"`
	Limit   decimal.Decimal `json:"limit"`
}

type Card struct {
	Number string          `json:"number"`
	Limit  decimal.Decimal `json:"limit"`
}

type Feature struct {
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// NewsItem is a news entry. ID and Date are only set on generated messages.
type NewsItem struct {
	ID          int    `json:"id,omitempty"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

// User is the pipeline's view of a ledger user, shaped like the API's user document.
type User struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Email    *string    `json:"email"`
	Account  Account    `json:"account"`
	Card     Card       `json:"card"`
	Features []Feature  `json:"features"`
	News     []NewsItem `json:"news"`
}

// NewLocalUser builds the placeholder used when the API cannot provide the user.
func NewLocalUser(row InputRow) *User {
	var email *string
	if row.Email != "" {
		e := row.Email
		email = &e
	}
	return &User{
		ID:    row.UserID,
		Name:  row.DisplayName(),
		Email: email,
		Account: Account{
			Number:  fmt.Sprintf("000%d-1", row.UserID),
			Agency:  "0001",
			Balance: decimal.NewFromInt(1000),
			Limit:   decimal.NewFromInt(5000),
		},
		Card: Card{
			Number: fmt.Sprintf("**** **** **** %04d", row.UserID),
			Limit:  decimal.NewFromInt(10000),
		},
		Features: []Feature{},
		News:     []NewsItem{},
	}
}

// LastMessage returns the newest news description, or "" when there is none.
func (u *User) LastMessage() string {
	if len(u.News) == 0 {
		return ""
	}
	return u.News[len(u.News)-1].Description
}
