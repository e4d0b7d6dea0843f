package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workspacemanager/auth-service/internal/core/authctx"
	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/policy"
	"github.com/workspacemanager/auth-service/internal/pkg/metrics"
)

// Authorize enforces the route policy against the principal attached by
// Authenticate: 401 for anonymous requests to protected routes, 403 for
// principals lacking the required role.
func Authorize(p *policy.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			principal, _ := authctx.PrincipalFrom(req.Context())

			if err := p.Evaluate(req.Method, req.URL.Path, principal); err != nil {
				return deny(c, err)
			}
			return next(c)
		}
	}
}

// RequireRole gates a single route on the principal holding role's authority.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	authority := role.Authority()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := authctx.PrincipalFrom(c.Request().Context())
			if !ok {
				return deny(c, domain.ErrUnauthenticated)
			}
			if !principal.HasAuthority(authority) {
				return deny(c, domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

func deny(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrUnauthenticated) {
		metrics.AuthorizationDenialsTotal.WithLabelValues("unauthenticated").Inc()
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	metrics.AuthorizationDenialsTotal.WithLabelValues("forbidden").Inc()
	return echo.NewHTTPError(http.StatusForbidden, "forbidden")
}
