// Package services – AuthService
//
// This file implements AuthService, which registers players and resolves
// their opaque bearer tokens. A token is six characters from A-Z0-9, drawn
// from crypto/rand, and is the only credential a player ever holds.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/repo"
)

const (
	tokenAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength      = 6
	tokenMaxAttempts = 5
	minUsernameRunes = 2
)

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a new user with the given credential.
	CreateUser(ctx context.Context, db *gorm.DB, username, token string) (*domain.User, error)

	// GetUserByToken resolves a token to its user.
	GetUserByToken(ctx context.Context, db *gorm.DB, token string) (*domain.User, error)

	// UsernameExists reports whether a username is registered.
	UsernameExists(ctx context.Context, db *gorm.DB, username string) (bool, error)

	// TokenExists reports whether a token is assigned.
	TokenExists(ctx context.Context, db *gorm.DB, token string) (bool, error)
}

// AuthService registers users and authenticates bearer tokens.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// NewToken draws a candidate token. Tests may replace it.
	NewToken func() (string, error)
}

// NewAuthService constructs an AuthService drawing tokens from crypto/rand.
func NewAuthService(db *gorm.DB, r UserRepo) *AuthService {
	return &AuthService{DB: db, Repo: r, NewToken: randomToken}
}

// Register creates a user for username. The username is trimmed and must be
// at least two characters; it must not be taken.
func (s *AuthService) Register(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameRunes {
		return nil, ErrInvalidUsername
	}

	taken, err := s.Repo.UsernameExists(ctx, s.DB, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	for attempt := 0; attempt < tokenMaxAttempts; attempt++ {
		token, err := s.NewToken()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		if used, err := s.Repo.TokenExists(ctx, s.DB, token); err != nil {
			return nil, err
		} else if used {
			continue
		}

		u, err := s.Repo.CreateUser(ctx, s.DB, username, token)
		if err == nil {
			return u, nil
		}
		if !repo.IsDuplicate(err) {
			return nil, err
		}
		// Lost a race: either the username or the token was just taken.
		if taken, lerr := s.Repo.UsernameExists(ctx, s.DB, username); lerr == nil && taken {
			return nil, ErrUsernameTaken
		}
	}
	return nil, errors.New("could not allocate a unique token")
}

// Login resolves token to its user.
func (s *AuthService) Login(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	return s.Authenticate(ctx, token)
}

// Authenticate resolves a bearer token; unknown tokens yield ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.Repo.GetUserByToken(ctx, s.DB, token)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// randomToken returns tokenLength characters drawn uniformly from tokenAlphabet.
func randomToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, tokenLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}
