package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/ports"
)

// UserRepository is an in-process credential store. The check for an
// existing email and the insert happen under one lock, which gives it the
// same uniqueness guarantee as a unique index.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

var _ ports.CredentialStore = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	email := domain.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[email]; exists {
		return nil, domain.ErrDuplicateEmail
	}

	stored := *user
	stored.Email = email
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.users[email] = stored

	created := stored
	return &created, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[domain.NormalizeEmail(email)]
	return ok, nil
}
