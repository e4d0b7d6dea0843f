package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workspacemanager/auth-service/internal/core/authctx"
	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/ports"
	"github.com/workspacemanager/auth-service/internal/pkg/metrics"
)

const bearerPrefix = "Bearer "

// Authentication filter results, used as the metrics label.
const (
	resultAuthenticated    = "authenticated"
	resultAnonymous        = "anonymous"
	resultInvalidToken     = "invalid_token"
	resultUnknownSubject   = "unknown_subject"
	resultRejected         = "rejected"
	resultPreauthenticated = "preauthenticated"
)

type authenticator struct {
	tokens ports.TokenService
	users  ports.UserFinder
	log    zerolog.Logger
}

// Authenticate resolves the bearer token of each request into a principal and
// attaches it to the request context. It never rejects a request: missing,
// malformed, expired or foreign tokens leave the request anonymous and the
// Authorize middleware decides what anonymous requests may reach.
func Authenticate(tokens ports.TokenService, users ports.UserFinder, log zerolog.Logger) echo.MiddlewareFunc {
	a := &authenticator{tokens: tokens, users: users, log: log}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			principal, result := a.authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			metrics.AuthenticationsTotal.WithLabelValues(result).Inc()

			if principal != nil {
				c.SetRequest(req.WithContext(authctx.WithPrincipal(req.Context(), principal)))
			}
			return next(c)
		}
	}
}

func (a *authenticator) authenticate(ctx context.Context, header string) (*domain.Principal, string) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, resultAnonymous
	}
	token := header[len(bearerPrefix):]

	subject, err := a.tokens.ExtractSubject(token)
	if err != nil {
		a.log.Debug().Err(err).Msg("bearer token rejected")
		return nil, resultInvalidToken
	}

	if authctx.Authenticated(ctx) {
		return nil, resultPreauthenticated
	}

	user, err := a.users.FindByEmail(ctx, subject)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			a.log.Warn().Err(err).Msg("principal lookup failed")
		}
		return nil, resultUnknownSubject
	}

	if !a.tokens.Validate(token, user.Email) {
		return nil, resultRejected
	}
	return domain.NewPrincipal(*user), resultAuthenticated
}
