package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/ports"
)

// UserHandler serves the authenticated user endpoints.
type UserHandler struct {
	users ports.UserFinder
}

func NewUserHandler(users ports.UserFinder) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the caller's own account.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		User:        toUserResponse(&p.User),
		Authorities: p.Authorities,
	})
}

// GetByEmail looks up any account by email. Admin only.
//
// @Summary      Get a user by email
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "User email"
// @Success      200    {object}  userResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /api/admin/users/{email} [get]
func (h *UserHandler) GetByEmail(c echo.Context) error {
	email := domain.NormalizeEmail(c.Param("email"))
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	user, err := h.users.FindByEmail(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
