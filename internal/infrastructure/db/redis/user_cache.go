package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/workspacemanager/auth-service/internal/core/domain"
	"github.com/workspacemanager/auth-service/internal/core/ports"
	"github.com/workspacemanager/auth-service/internal/pkg/metrics"
)

const (
	defaultUserCacheTTL = 5 * time.Minute
	userCachePrefix     = "auth:user:"
)

// cachedUser is the JSON value stored per email. The password hash is never
// written to the cache.
type cachedUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserCache is a read-through cache in front of a ports.UserFinder, used by
// the authentication filter to avoid a store round-trip per request.
// Key format: auth:user:<normalized email>
//
// Redis failures are logged and fall through to the underlying finder.
// Negative lookups are not cached.
type UserCache struct {
	client *redis.Client
	next   ports.UserFinder
	ttl    time.Duration
	log    zerolog.Logger
}

var _ ports.UserFinder = (*UserCache)(nil)

func NewUserCache(client *redis.Client, next ports.UserFinder, ttl time.Duration, log zerolog.Logger) *UserCache {
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	return &UserCache{client: client, next: next, ttl: ttl, log: log}
}

func (c *UserCache) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	if u, ok := c.load(ctx, email); ok {
		metrics.UserCacheLookupsTotal.WithLabelValues("hit").Inc()
		return u, nil
	}
	metrics.UserCacheLookupsTotal.WithLabelValues("miss").Inc()

	u, err := c.next.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := c.save(ctx, u); err != nil {
		c.log.Warn().Err(err).Msg("user cache write failed")
	}
	return u, nil
}

func (c *UserCache) load(ctx context.Context, email string) (*domain.User, bool) {
	raw, err := c.client.Get(ctx, c.key(email)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("user cache read failed, falling back to store")
		}
		return nil, false
	}

	var cu cachedUser
	if err := json.Unmarshal(raw, &cu); err != nil {
		c.log.Warn().Err(err).Msg("user cache entry corrupt, falling back to store")
		return nil, false
	}

	return &domain.User{
		ID:        cu.ID,
		Name:      cu.Name,
		Email:     cu.Email,
		Role:      domain.Role(cu.Role),
		CreatedAt: cu.CreatedAt,
		UpdatedAt: cu.UpdatedAt,
	}, true
}

func (c *UserCache) save(ctx context.Context, u *domain.User) error {
	data, err := json.Marshal(cachedUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cached user: %w", err)
	}
	return c.client.Set(ctx, c.key(u.Email), data, c.ttl).Err()
}

func (c *UserCache) key(email string) string {
	return userCachePrefix + email
}
