// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Error semantics:
//   - Lookups that find nothing return gorm.ErrRecordNotFound (ErrNotFound).
//   - A taken username or token surfaces as a unique-constraint error; use
//     IsDuplicate to detect it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// CreateUser inserts a new user with a random UUID and the given credential.
func CreateUser(ctx context.Context, db *gorm.DB, username, token string) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByToken resolves a bearer token to its user.
func GetUserByToken(ctx context.Context, db *gorm.DB, token string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("token = ?", token).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UsernameExists reports whether username is already registered.
func UsernameExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// TokenExists reports whether token is already assigned.
func TokenExists(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("token = ?", token).Count(&n).Error
	return n > 0, err
}
