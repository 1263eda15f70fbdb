package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "resto-chat/internal/infrastructure/cache/port"
	chat "resto-chat/internal/pkg/chat/application/domain"
	repository "resto-chat/internal/repository/port"
)

// identityTTL bounds how long a cached identity is served. Identities are
// immutable during a session, so staleness within the TTL is harmless.
const identityTTL = 5 * time.Minute

// CachedIdentityRepository is a read-through cache in front of an
// IdentityDirectory. Typing and message events re-resolve the sender on
// every frame, which makes GetByID by far the hottest directory call.
// Cache failures degrade to the underlying directory, never to an error.
type CachedIdentityRepository struct {
	next  repository.IdentityDirectory
	cache cacheport.Cache
}

func NewCachedIdentityRepository(next repository.IdentityDirectory, cache cacheport.Cache) *CachedIdentityRepository {
	return &CachedIdentityRepository{next: next, cache: cache}
}

var _ repository.IdentityDirectory = (*CachedIdentityRepository)(nil)

func (r *CachedIdentityRepository) GetByID(ctx context.Context, id string) (*chat.Identity, error) {
	key := "chat:identity:" + id

	// misses and transport errors both fall through to the directory
	if raw, err := r.cache.Get(ctx, key); err == nil && raw != "" {
		var ident chat.Identity
		if json.Unmarshal([]byte(raw), &ident) == nil {
			return &ident, nil
		}
	}

	ident, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(ident); err == nil {
		_ = r.cache.Set(ctx, key, string(raw), identityTTL)
	}
	return ident, nil
}

func (r *CachedIdentityRepository) ListStaff(ctx context.Context) ([]chat.Identity, error) {
	return r.next.ListStaff(ctx)
}

func (r *CachedIdentityRepository) RegisterDevice(ctx context.Context, identityID, token, platform string) error {
	return r.next.RegisterDevice(ctx, identityID, token, platform)
}

func (r *CachedIdentityRepository) ListDeviceTokens(ctx context.Context, identityID string) ([]string, error) {
	return r.next.ListDeviceTokens(ctx, identityID)
}
