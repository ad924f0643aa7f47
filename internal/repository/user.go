// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"reelfeed/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error)
	TokenVersion(ctx context.Context, id uint) (int, error)
	BumpTokenVersion(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	var users []models.UserSummary
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username LIKE ?", like).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// TokenVersion reads only the revocation epoch column. It sits on the hot
// path of every authenticated request, so it deliberately avoids loading the
// whole user row.
func (r *userRepository) TokenVersion(ctx context.Context, id uint) (int, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("token_version").
		Take(&user, id).Error
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

// BumpTokenVersion increments the revocation epoch, invalidating every
// outstanding credential issued before the bump.
func (r *userRepository) BumpTokenVersion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}
