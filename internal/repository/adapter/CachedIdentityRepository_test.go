package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	cacheport "resto-chat/internal/infrastructure/cache/port"
	chat "resto-chat/internal/pkg/chat/application/domain"
	repository "resto-chat/internal/repository/port"
)

type countingDirectory struct {
	identities map[string]chat.Identity
	calls      int
}

func (d *countingDirectory) GetByID(ctx context.Context, id string) (*chat.Identity, error) {
	d.calls++
	ident, ok := d.identities[id]
	if !ok {
		return nil, repository.ErrIdentityNotFound
	}
	return &ident, nil
}

func (d *countingDirectory) ListStaff(ctx context.Context) ([]chat.Identity, error) { return nil, nil }

func (d *countingDirectory) RegisterDevice(ctx context.Context, identityID, token, platform string) error {
	return nil
}

func (d *countingDirectory) ListDeviceTokens(ctx context.Context, identityID string) ([]string, error) {
	return nil, nil
}

type memoryCache struct {
	values map[string]string
	err    error
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.values[key] = value
	return nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) (int64, error) { return 0, nil }
func (c *memoryCache) Ping(ctx context.Context) error                         { return nil }
func (c *memoryCache) Close() error                                           { return nil }

func TestCachedIdentityRepositoryGetByID(t *testing.T) {
	t.Run("second lookup is served from the cache", func(t *testing.T) {
		dir := &countingDirectory{identities: map[string]chat.Identity{
			"cust-1": {ID: "cust-1", Role: chat.RoleCustomer, DisplayName: "Ana"},
		}}
		cache := &memoryCache{values: make(map[string]string)}
		repo := NewCachedIdentityRepository(dir, cache)

		for i := 0; i < 3; i++ {
			ident, err := repo.GetByID(context.Background(), "cust-1")
			if err != nil {
				t.Fatalf("lookup %d failed: %v", i+1, err)
			}
			if ident.DisplayName != "Ana" {
				t.Errorf("lookup %d returned %+v", i+1, ident)
			}
		}
		if dir.calls != 1 {
			t.Errorf("directory hit %d times, want 1", dir.calls)
		}
	})

	t.Run("cache failure degrades to the directory", func(t *testing.T) {
		dir := &countingDirectory{identities: map[string]chat.Identity{
			"cust-1": {ID: "cust-1", Role: chat.RoleCustomer},
		}}
		cache := &memoryCache{values: make(map[string]string), err: errors.New("redis down")}
		repo := NewCachedIdentityRepository(dir, cache)

		if _, err := repo.GetByID(context.Background(), "cust-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.calls != 1 {
			t.Errorf("directory hit %d times, want 1", dir.calls)
		}
	})

	t.Run("not-found is not cached", func(t *testing.T) {
		dir := &countingDirectory{identities: map[string]chat.Identity{}}
		cache := &memoryCache{values: make(map[string]string)}
		repo := NewCachedIdentityRepository(dir, cache)

		if _, err := repo.GetByID(context.Background(), "ghost"); !errors.Is(err, repository.ErrIdentityNotFound) {
			t.Fatalf("expected ErrIdentityNotFound, got %v", err)
		}
		if len(cache.values) != 0 {
			t.Error("a miss was written to the cache")
		}
	})
}
