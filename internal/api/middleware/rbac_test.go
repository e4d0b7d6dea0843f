package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/workspacemanager/auth-service/internal/core/authctx"
	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/policy"
)

func newContext(method, path string, principal *domain.Principal) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if principal != nil {
		req = req.WithContext(authctx.WithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	return e, e.NewContext(req, rec), rec
}

func TestAuthorize_PublicRoute(t *testing.T) {
	e, c, rec := newContext(http.MethodPost, "/api/auth/register", nil)

	called := false
	handler := Authorize(policy.Default())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected public route to pass, called=%v code=%d", called, rec.Code)
	}
}

func TestAuthorize_AnonymousOnProtectedRoute(t *testing.T) {
	e, c, rec := newContext(http.MethodGet, "/api/users/me", nil)

	handler := Authorize(policy.Default())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}
}

func TestAuthorize_InsufficientRole(t *testing.T) {
	user := domain.NewPrincipal(domain.User{Email: "a@x.com", Role: domain.RoleUser})
	e, c, rec := newContext(http.MethodGet, "/api/admin/users/b@x.com", user)

	handler := Authorize(policy.Default())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_Allows(t *testing.T) {
	admin := domain.NewPrincipal(domain.User{Email: "root@x.com", Role: domain.RoleAdmin})
	_, c, rec := newContext(http.MethodGet, "/", admin)

	called := false
	handler := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	user := domain.NewPrincipal(domain.User{Email: "a@x.com", Role: domain.RoleUser})
	e, c, rec := newContext(http.MethodGet, "/", user)

	handler := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_Anonymous(t *testing.T) {
	e, c, rec := newContext(http.MethodGet, "/", nil)

	handler := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
