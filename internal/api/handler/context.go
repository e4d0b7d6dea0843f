package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workspacemanager/auth-service/internal/core/authctx"
	"github.com/workspacemanager/auth-service/internal/core/domain"
)

// principal returns the caller attached by the Authenticate middleware.
// Protected routes are already gated by Authorize, so a missing principal here
// means the route was wired without the auth chain; reject with 401.
func principal(c echo.Context) (*domain.Principal, error) {
	p, ok := authctx.PrincipalFrom(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}
