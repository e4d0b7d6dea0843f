package ports

import (
	"context"

	"github.com/workspacemanager/auth-service/internal/core/domain"
)

// RegisterInput carries a validated registration request to the service.
// An empty Role means the default role.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
