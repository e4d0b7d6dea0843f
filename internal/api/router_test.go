package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/workspacemanager/auth-service/internal/api/handler"
	"github.com/workspacemanager/auth-service/internal/core/policy"
	"github.com/workspacemanager/auth-service/internal/core/ports"
	"github.com/workspacemanager/auth-service/internal/core/service"
	"github.com/workspacemanager/auth-service/internal/infrastructure/db/memory"
)

const testSecret = "router-test-secret"

type testServer struct {
	e      *echo.Echo
	tokens *service.TokenService
}

func newTestServer(t *testing.T, checks map[string]handler.Check) *testServer {
	t.Helper()

	tokens, err := service.NewTokenService(testSecret, "test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	store := memory.NewUserRepository()
	auth := service.NewAuthService(store, service.NewBcryptHasher(bcrypt.MinCost), tokens, zerolog.Nop())

	reg := prometheus.NewRegistry()
	e := NewRouter(Dependencies{
		Auth:       auth,
		Users:      store,
		Tokens:     tokens,
		Checks:     checks,
		Log:        zerolog.Nop(),
		Registerer: reg,
		Gatherer:   reg,
	})
	return &testServer{e: e, tokens: tokens}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRouter_RegistrationAndAccessScenario(t *testing.T) {
	s := newTestServer(t, nil)
	const alice = `{"name":"Alice","email":"a@x.com","password":"secret1"}`

	rec := s.do(http.MethodPost, "/api/auth/register", alice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["message"] != "Registered successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if user, _ := body["user"].(map[string]any); user["role"] != "USER" || user["email"] != "a@x.com" {
		t.Fatalf("unexpected user: %v", body["user"])
	}

	rec = s.do(http.MethodPost, "/api/auth/register", alice, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Email already in use" {
		t.Fatalf("duplicate: unexpected error %v", got)
	}

	token, err := s.tokens.Issue("a@x.com", ports.TokenClaims{Role: "USER"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rec = s.do(http.MethodGet, "/api/users/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if user, _ := decode(t, rec)["user"].(map[string]any); user["name"] != "Alice" {
		t.Fatalf("me: unexpected user %v", user)
	}

	past := time.Now().Add(-2 * time.Hour)
	stale, err := service.NewTokenService(testSecret, "test", time.Hour, service.WithClock(func() time.Time { return past }))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	expired, err := stale.Issue("a@x.com", ports.TokenClaims{Role: "USER"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rec = s.do(http.MethodGet, "/api/users/me", "", expired)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired: expected 401, got %d", rec.Code)
	}
}

func TestRouter_RegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	s := newTestServer(t, nil)

	// 40 runes but 80 bytes.
	body := `{"name":"Alice","email":"a@x.com","password":"` + strings.Repeat("é", 40) + `"}`
	rec := s.do(http.MethodPost, "/api/auth/register", body, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["error"]; got != "password must be at most 72 bytes" {
		t.Fatalf("unexpected error %v", got)
	}
}

func TestRouter_LoginFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/auth/register", `{"name":"Bob","email":"Bob@X.com","password":"hunter22"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/auth/login", `{"email":"bob@x.com","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/auth/login", `{"email":" BOB@x.com ","password":"hunter22"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	token, _ := decode(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("expected token")
	}

	rec = s.do(http.MethodGet, "/api/users/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	auths, _ := decode(t, rec)["authorities"].([]any)
	if len(auths) != 1 || auths[0] != "ROLE_USER" {
		t.Fatalf("unexpected authorities: %v", auths)
	}
}

func TestRouter_Unauthenticated(t *testing.T) {
	s := newTestServer(t, nil)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"malformed token", "Bearer garbage"},
		{"wrong scheme", "Basic YTpi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if decode(t, rec)["error"] == nil {
				t.Fatalf("expected error envelope")
			}
		})
	}
}

func TestRouter_AdminRoute(t *testing.T) {
	s := newTestServer(t, nil)

	s.do(http.MethodPost, "/api/auth/register", `{"name":"User","email":"user@x.com","password":"secret1"}`, "")
	s.do(http.MethodPost, "/api/auth/register", `{"name":"Root","email":"root@x.com","password":"secret1","role":"ADMIN"}`, "")

	userToken, _ := s.tokens.Issue("user@x.com", ports.TokenClaims{Role: "USER"})
	rec := s.do(http.MethodGet, "/api/admin/users/root@x.com", "", userToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: expected 403, got %d", rec.Code)
	}

	adminToken, _ := s.tokens.Issue("root@x.com", ports.TokenClaims{Role: "ADMIN"})
	rec = s.do(http.MethodGet, "/api/admin/users/user@x.com", "", adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["email"] != "user@x.com" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/api/admin/users/ghost@x.com", "", adminToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", rec.Code)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	s := newTestServer(t, map[string]handler.Check{
		"store": func(context.Context) error { return nil },
	})

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		rec := s.do(http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_ReadinessDegraded(t *testing.T) {
	s := newTestServer(t, map[string]handler.Check{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := s.do(http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRouter_UnknownRouteDeniedByDefault(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/internal/debug", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestNewRouter_LogsPolicyRules(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	NewRouter(Dependencies{
		Users:      memory.NewUserRepository(),
		Policy:     policy.New(policy.Rule{Method: http.MethodGet, Pattern: "/api/admin/**", Access: policy.RequireRole("ADMIN")}),
		Log:        zerolog.New(&buf).Level(zerolog.DebugLevel),
		Registerer: reg,
		Gatherer:   reg,
	})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["pattern"] != "/api/admin/**" || entry["access"] != "role" || entry["role"] != "ADMIN" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
