package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/workspacemanager/auth-service/docs"
	"github.com/workspacemanager/auth-service/internal/api/handler"
	"github.com/workspacemanager/auth-service/internal/api/middleware"
	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/policy"
	"github.com/workspacemanager/auth-service/internal/core/ports"
)

// Dependencies are the collaborators wired into the HTTP layer.
type Dependencies struct {
	Auth ports.AuthService
	// Principals resolves token subjects in the authentication filter. It may
	// be a cache in front of Users.
	Principals ports.UserFinder
	Users      ports.UserFinder
	Tokens     ports.TokenService

	// Policy defaults to policy.Default().
	Policy *policy.Policy
	Checks map[string]handler.Check
	Log    zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}
	if deps.Principals == nil {
		deps.Principals = deps.Users
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	for _, r := range deps.Policy.Rules() {
		deps.Log.Debug().
			Str("method", r.Method).
			Str("pattern", r.Pattern).
			Stringer("access", r.Access.Kind).
			Str("role", string(r.Access.Role)).
			Msg("route policy rule")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: deps.Registerer,
	}))

	// --- Authentication, then route policy ---
	e.Use(middleware.Authenticate(deps.Tokens, deps.Principals, deps.Log))
	e.Use(middleware.Authorize(deps.Policy))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Log)
	userHandler := handler.NewUserHandler(deps.Users)
	healthHandler := handler.NewHealthHandler(deps.Checks)

	// --- Public routes ---
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)

	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated routes ---
	e.GET("/api/users/me", userHandler.Me)

	admin := e.Group("/api/admin", middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users/:email", userHandler.GetByEmail)

	return e
}
