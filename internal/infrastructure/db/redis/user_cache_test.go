package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/workspacemanager/auth-service/internal/core/domain"
)

type stubFinder struct {
	users map[string]*domain.User
	calls int
}

func (f *stubFinder) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.calls++
	u, ok := f.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// newTestClient creates a redis.Client backed by miniredis for testing.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client, err := NewClient(context.Background(), Config{Addr: mini.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mini
}

func newFinder() *stubFinder {
	return &stubFinder{users: map[string]*domain.User{
		"a@x.com": {ID: "u1", Name: "Alice", Email: "a@x.com", PasswordHash: "hash", Role: domain.RoleAdmin},
	}}
}

func TestUserCache_ReadThrough(t *testing.T) {
	client, mini := newTestClient(t)
	finder := newFinder()
	cache := NewUserCache(client, finder, time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := cache.FindByEmail(ctx, "A@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	second, err := cache.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}

	if finder.calls != 1 {
		t.Fatalf("expected one store lookup, got %d", finder.calls)
	}
	if first.ID != "u1" || second.ID != "u1" || second.Role != domain.RoleAdmin || second.Email != "a@x.com" {
		t.Fatalf("unexpected cached user: %+v", second)
	}
	if second.PasswordHash != "" {
		t.Fatalf("password hash must not come from the cache")
	}

	raw, err := mini.Get("auth:user:a@x.com")
	if err != nil {
		t.Fatalf("expected cache key: %v", err)
	}
	if ttl := mini.TTL("auth:user:a@x.com"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %s", ttl)
	}
	if strings.Contains(raw, "hash") {
		t.Fatalf("cached value leaks the password hash: %s", raw)
	}
}

func TestUserCache_NotFoundIsNotCached(t *testing.T) {
	client, mini := newTestClient(t)
	finder := newFinder()
	cache := NewUserCache(client, finder, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if _, err := cache.FindByEmail(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	}
	if finder.calls != 2 {
		t.Fatalf("negative lookups must hit the store, calls=%d", finder.calls)
	}
	if mini.Exists("auth:user:ghost@x.com") {
		t.Fatalf("negative lookup must not be cached")
	}
}

func TestUserCache_RedisDownFallsBack(t *testing.T) {
	client, mini := newTestClient(t)
	finder := newFinder()
	cache := NewUserCache(client, finder, time.Minute, zerolog.Nop())

	mini.Close()

	u, err := cache.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("expected fallback to store, got %v", err)
	}
	if u.ID != "u1" || finder.calls != 1 {
		t.Fatalf("unexpected result %+v calls=%d", u, finder.calls)
	}
}

func TestUserCache_CorruptEntryFallsBack(t *testing.T) {
	client, mini := newTestClient(t)
	finder := newFinder()
	cache := NewUserCache(client, finder, time.Minute, zerolog.Nop())

	if err := mini.Set("auth:user:a@x.com", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	u, err := cache.FindByEmail(context.Background(), "a@x.com")
	if err != nil || u.ID != "u1" || finder.calls != 1 {
		t.Fatalf("expected store fallback, got %+v %v calls=%d", u, err, finder.calls)
	}
}
