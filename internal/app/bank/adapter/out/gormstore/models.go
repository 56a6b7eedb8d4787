package gormstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
)

// sqlUser maps the users table.
type sqlUser struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"size:100;not null"`
	Email     *string `gorm:"size:100"`
	CreatedAt time.Time

	Account  sqlAccount   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Card     sqlCard      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Features []sqlFeature `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	News     []sqlNews    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (*sqlUser) TableName() string {
	return "users"
}

// sqlAccount maps the accounts table, one row per user.
type sqlAccount struct {
	ID      int64           `gorm:"primaryKey;autoIncrement"`
	UserID  int64           `gorm:"uniqueIndex;not null"`
	Number  string          `gorm:"size:50;not null"`
	Agency  string          `gorm:"size:20;not null"`
	Balance decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Limit   decimal.Decimal `gorm:"column:overdraft_limit;type:decimal(20,4);not null"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

type sqlCard struct {
	ID     int64           `gorm:"primaryKey;autoIncrement"`
	UserID int64           `gorm:"uniqueIndex;not null"`
	Number string          `gorm:"size:50;not null"`
	Limit  decimal.Decimal `gorm:"column:card_limit;type:decimal(20,4);not null"`
}

func (*sqlCard) TableName() string {
	return "cards"
}

type sqlFeature struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"index;not null"`
	Icon        string `gorm:"size:100;not null"`
	Description string `gorm:"size:200;not null"`
}

func (*sqlFeature) TableName() string {
	return "features"
}

type sqlNews struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"index;not null"`
	Icon        string `gorm:"size:255;not null"`
	Description string `gorm:"size:500;not null"`
}

func (*sqlNews) TableName() string {
	return "news"
}

// sqlTransaction records every posted movement; its id makes reposting a no-op.
type sqlTransaction struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Type        uint8           `gorm:"not null"`
	FromUserID  int64           `gorm:"index"`
	ToUserID    int64           `gorm:"index"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	FromBalance decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	ToBalance   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt   time.Time
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

func newSQLTransaction(r domain.Receipt) *sqlTransaction {
	return &sqlTransaction{
		ID:          r.Transaction.ID.String(),
		Type:        uint8(r.Transaction.Type),
		FromUserID:  r.Transaction.From,
		ToUserID:    r.Transaction.To,
		Amount:      r.Transaction.Amount,
		FromBalance: r.FromBalance,
		ToBalance:   r.ToBalance,
		CreatedAt:   r.Transaction.CreatedAt,
	}
}

func (m *sqlTransaction) toReceipt() (domain.Receipt, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("stored transaction id %q: %w", m.ID, err)
	}
	return domain.Receipt{
		Transaction: domain.Transaction{
			ID:        id,
			Type:      domain.TransactionType(m.Type),
			From:      m.FromUserID,
			To:        m.ToUserID,
			Amount:    m.Amount,
			CreatedAt: m.CreatedAt,
		},
		FromBalance: m.FromBalance,
		ToBalance:   m.ToBalance,
	}, nil
}

// Migrate creates the tables, or adds missing columns to existing ones.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&sqlUser{}, &sqlAccount{}, &sqlCard{}, &sqlFeature{}, &sqlNews{}, &sqlTransaction{})
}

func newSQLUser(u *domain.User) *sqlUser {
	m := &sqlUser{
		Name:  u.Name,
		Email: u.Email,
		Account: sqlAccount{
			Number:  u.Account.Number,
			Agency:  u.Account.Agency,
			Balance: u.Account.Balance,
			Limit:   u.Account.Limit,
		},
		Card: sqlCard{
			Number: u.Card.Number,
			Limit:  u.Card.Limit,
		},
		Features: make([]sqlFeature, 0, len(u.Features)),
		News:     make([]sqlNews, 0, len(u.News)),
	}
	for _, f := range u.Features {
		m.Features = append(m.Features, sqlFeature{Icon: f.Icon, Description: f.Description})
	}
	for _, n := range u.News {
		m.News = append(m.News, sqlNews{Icon: n.Icon, Description: n.Description})
	}
	return m
}

func (m *sqlUser) toDomain() *domain.User {
	u := &domain.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		Account:   *m.Account.toDomain(),
		Card: domain.Card{
			ID:     m.Card.ID,
			Number: m.Card.Number,
			Limit:  m.Card.Limit,
		},
		Features: make([]domain.Feature, 0, len(m.Features)),
		News:     make([]domain.News, 0, len(m.News)),
	}
	for _, f := range m.Features {
		u.Features = append(u.Features, domain.Feature{Icon: f.Icon, Description: f.Description})
	}
	for _, n := range m.News {
		u.News = append(u.News, domain.News{Icon: n.Icon, Description: n.Description})
	}
	return u
}

func (m *sqlAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:      m.ID,
		UserID:  m.UserID,
		Number:  m.Number,
		Agency:  m.Agency,
		Balance: m.Balance,
		Limit:   m.Limit,
	}
}
