package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/inventory-app/inventory-system/internal/core/domain"
	"github.com/inventory-app/inventory-system/internal/core/ports"
)

// AuthService implements registration, login and token verification.
type AuthService struct {
	repo   ports.AuthRepository
	tokens ports.TokenManager
	logger zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, tokens ports.TokenManager, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

// Register hashes the password and stores a new user. Duplicate usernames are
// rejected by the repository's unique index, not by a lookup beforehand.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", username).Msg("user registered")
	return nil
}

// Login checks the credentials and returns a session token whose subject is
// the user's id. Unknown users and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	s.logger.Debug().Str("user_id", user.ID).Msg("user logged in")
	return token, nil
}

// VerifyToken returns the subject of a valid token.
func (s *AuthService) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}
