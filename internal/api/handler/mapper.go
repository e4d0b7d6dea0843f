package handler

import (
	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	}
}

// --- Domain → Response ---

// toUserResponse renders the client-visible fields of a user. The password
// hash has no counterpart here.
func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
