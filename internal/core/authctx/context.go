// Package authctx carries the authenticated principal of a request through
// its context.Context.
//
//	ctx = authctx.WithPrincipal(ctx, principal) // authentication filter
//	p, ok := authctx.PrincipalFrom(ctx)         // handlers, policy
package authctx

import (
	"context"

	"github.com/workspacemanager/auth-service/internal/core/domain"
)

// contextKey is unexported to prevent collisions with other packages.
type contextKey struct{}

var principalKey = contextKey{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal attached to ctx, if any.
func PrincipalFrom(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*domain.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// Authenticated reports whether ctx carries a principal.
func Authenticated(ctx context.Context) bool {
	_, ok := PrincipalFrom(ctx)
	return ok
}
