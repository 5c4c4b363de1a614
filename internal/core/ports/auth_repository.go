package ports

import (
	"context"

	"github.com/inventory-app/inventory-system/internal/core/domain"
)

// AuthRepository defines the persistence operations for user credentials.
type AuthRepository interface {
	// Create inserts a new user. A username that already exists yields
	// domain.ErrUserExists; uniqueness is enforced by the store itself.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}
