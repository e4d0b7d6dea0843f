package ports

import (
	"context"

	"github.com/workspacemanager/auth-service/internal/core/domain"
)

// UserFinder resolves a user by its (normalized) email address.
// Implementations return domain.ErrUserNotFound when no record matches.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CredentialStore defines persistence operations for user credentials.
// Create must return domain.ErrDuplicateEmail when the store's unique
// constraint on email rejects the insert.
type CredentialStore interface {
	UserFinder
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
