package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
	"github.com/JoeShih716/go-devweek-bank/pkg/database"
)

// UserRepository stores users and their children through gorm.
type UserRepository struct {
	client *database.Client
}

func NewUserRepository(client *database.Client) *UserRepository {
	return &UserRepository{
		client: client,
	}
}

// Create inserts the user with account, card, features and news in one transaction.
// On success the generated ids are written back into user.
func (repo *UserRepository) Create(ctx context.Context, user *domain.User) error {
	m := newSQLUser(user)
	err := repo.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = m.ID
	user.CreatedAt = m.CreatedAt
	user.Account.ID = m.Account.ID
	user.Account.UserID = m.ID
	user.Card.ID = m.Card.ID
	return nil
}

func (repo *UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	m, err := findUser(preload(repo.client.DB().WithContext(ctx)), id)
	if err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

// List returns users ordered by id, children included.
func (repo *UserRepository) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	var models []sqlUser
	err := preload(repo.client.DB().WithContext(ctx)).
		Order("id").
		Offset(skip).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, 0, len(models))
	for i := range models {
		users = append(users, *models[i].toDomain())
	}
	return users, nil
}

// Update merges patch into the stored user inside one transaction.
func (repo *UserRepository) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	var user *domain.User
	err := repo.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findUser(preload(tx), id)
		if err != nil {
			return err
		}
		user = m.toDomain()
		if patch.IsEmpty() {
			return nil
		}
		if err := patch.Apply(user); err != nil {
			return err
		}
		return tx.Model(&sqlUser{}).
			Where("id = ?", id).
			Updates(map[string]any{"name": user.Name, "email": user.Email}).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidUser) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return user, nil
}

// Delete removes the user row and its children.
// The association delete covers databases where the FK cascade is not enforced.
func (repo *UserRepository) Delete(ctx context.Context, id int64) error {
	err := repo.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findUser(tx, id)
		if err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(m).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

func (repo *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.client.DB().WithContext(ctx).Model(&sqlUser{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func preload(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}
	return db.
		Preload("Account").
		Preload("Card").
		Preload("Features", byID).
		Preload("News", byID)
}

func findUser(db *gorm.DB, id int64) (*sqlUser, error) {
	var m sqlUser
	err := db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &m, nil
}

var _ usecase.UserRepository = (*UserRepository)(nil)
