package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/workspacemanager/auth-service/internal/api"
	"github.com/workspacemanager/auth-service/internal/api/handler"
	"github.com/workspacemanager/auth-service/internal/core/ports"
	"github.com/workspacemanager/auth-service/internal/core/service"
	"github.com/workspacemanager/auth-service/internal/infrastructure/db/memory"
	mongostore "github.com/workspacemanager/auth-service/internal/infrastructure/db/mongo"
	"github.com/workspacemanager/auth-service/internal/infrastructure/db/postgres"
	rediscache "github.com/workspacemanager/auth-service/internal/infrastructure/db/redis"
	"github.com/workspacemanager/auth-service/internal/pkg/config"
	"github.com/workspacemanager/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       Workspace Manager Auth API
// @version                     1.0
// @description                 User registration and JWT authentication for the workspace manager backend.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "auth-service",
	})

	store, checks, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open credential store")
	}
	defer cleanup()

	var principals ports.UserFinder = store
	if cfg.Redis.Addr != "" {
		client, err := rediscache.NewClient(ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, principal cache disabled")
		} else {
			defer client.Close()
			principals = rediscache.NewUserCache(client, store, cfg.Redis.CacheTTL, logger.Component("user_cache"))
			checks["redis"] = rediscache.Ping(client)
		}
	}

	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure token service")
	}
	authService := service.NewAuthService(store, service.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, logger.Component("auth"))

	e := api.NewRouter(api.Dependencies{
		Auth:       authService,
		Principals: principals,
		Users:      store,
		Tokens:     tokens,
		Checks:     checks,
		Log:        logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("auth service starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
		log.Info().Msg("auth service stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}
}

// openStore connects the configured credential store and returns it together
// with its readiness checks and a cleanup func.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.CredentialStore, map[string]handler.Check, func(), error) {
	checks := make(map[string]handler.Check)

	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := migrate(ctx, db, log); err != nil {
				_ = db.Close()
				return nil, nil, nil, err
			}
		}
		checks["postgres"] = db.PingContext
		return postgres.NewUserRepository(db), checks, func() { _ = db.Close() }, nil

	case config.StoreMongo:
		store, err := mongostore.Open(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, nil, err
		}
		repo := mongostore.NewUserRepository(store.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, nil, nil, err
		}
		checks["mongodb"] = store.Ping
		return repo, checks, func() { _ = store.Close(context.Background()) }, nil

	default:
		log.Warn().Msg("using in-memory credential store, users are lost on restart")
		return memory.NewUserRepository(), checks, func() {}, nil
	}
}

func migrate(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	m, err := postgres.NewMigrator(db, log)
	if err != nil {
		return err
	}
	return m.Up(ctx)
}
