package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/awe/models"
)

// CreateUser inserts an account. A taken username is ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	user := models.User{Username: username, PasswordHash: passwordHash, IsAdmin: isAdmin}
	err := s.run(ctx, "create_user", func(db *gorm.DB) error {
		return db.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser looks an account up by username.
func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.run(ctx, "get_user", func(db *gorm.DB) error {
		return db.Where("username = ?", username).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.run(ctx, "count_users", func(db *gorm.DB) error {
		return db.Model(&models.User{}).Count(&n).Error
	})
	return n, err
}
