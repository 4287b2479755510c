// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shop_backend/internal/feature/auth/domain/entity"
	"shop_backend/internal/feature/auth/usecase"
)

// CachingUserRepository decorates a UserRepository with Redis caching of
// FindByID lookups (profile reads, refresh flow). It implements the decorator
// pattern, transparently adding caching without modifying the underlying
// repository. Every mutating call invalidates the affected entry; the
// token-consuming updates (which address a row by digest, not ID) flush the
// whole namespace instead.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// Compile-time check to ensure CachingUserRepository implements UserRepository.
var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses
// "users". A nil Redis client disables caching entirely.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// cacheKey generates the cache key for a user ID.
func (c *CachingUserRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:id:%s", c.namespace, id)
}

// invalidate removes the cached entry for a user ID (best effort).
func (c *CachingUserRepository) invalidate(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, c.cacheKey(id)).Err()
}

// invalidateAll removes every cached entry in the namespace using SCAN.
// Used by the digest-addressed updates that cannot name the affected ID.
func (c *CachingUserRepository) invalidateAll(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("%s:id:*", c.namespace)
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return // Best effort: stale entries expire via TTL anyway
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
}

// FindByID retrieves a user, checking cache first then falling back to the
// database.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.User
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Create persists a new user. Nothing to invalidate: the ID is fresh.
func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	return c.inner.Create(ctx, u)
}

// FindByIdentifier is not cached: login must always observe the live record.
func (c *CachingUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	return c.inner.FindByIdentifier(ctx, identifier)
}

// FindByEmail is not cached: the reset flow must observe the live record.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmail(ctx, email)
}

// SetRefreshToken updates the stored refresh token and invalidates the entry.
func (c *CachingUserRepository) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	if err := c.inner.SetRefreshToken(ctx, id, refreshToken); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// RotateRefreshToken rotates the token via the inner CAS and invalidates the
// entry. The CAS itself always runs against the database, never the cache.
func (c *CachingUserRepository) RotateRefreshToken(ctx context.Context, id, old, new string) error {
	if err := c.inner.RotateRefreshToken(ctx, id, old, new); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// ClearRefreshToken clears the stored refresh token and invalidates the entry.
func (c *CachingUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	if err := c.inner.ClearRefreshToken(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// SetEmailVerification stores the verification digest and invalidates the entry.
func (c *CachingUserRepository) SetEmailVerification(ctx context.Context, id, digest string, expiresAt time.Time) error {
	if err := c.inner.SetEmailVerification(ctx, id, digest, expiresAt); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// ConfirmEmailByTokenHash consumes a verification digest. The row is addressed
// by digest, so the whole namespace is flushed.
func (c *CachingUserRepository) ConfirmEmailByTokenHash(ctx context.Context, digest string, now time.Time) error {
	if err := c.inner.ConfirmEmailByTokenHash(ctx, digest, now); err != nil {
		return err
	}
	c.invalidateAll(ctx)
	return nil
}

// SetPasswordReset stores the reset digest and invalidates the entry.
func (c *CachingUserRepository) SetPasswordReset(ctx context.Context, id, digest string, expiresAt time.Time) error {
	if err := c.inner.SetPasswordReset(ctx, id, digest, expiresAt); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// ResetPasswordByTokenHash consumes a reset digest; same flush strategy as
// ConfirmEmailByTokenHash.
func (c *CachingUserRepository) ResetPasswordByTokenHash(ctx context.Context, digest, newPasswordHash string, now time.Time) error {
	if err := c.inner.ResetPasswordByTokenHash(ctx, digest, newPasswordHash, now); err != nil {
		return err
	}
	c.invalidateAll(ctx)
	return nil
}

// UpdateProfile overwrites profile fields and invalidates the entry.
func (c *CachingUserRepository) UpdateProfile(ctx context.Context, id string, update usecase.ProfileUpdate) (*entity.User, error) {
	user, err := c.inner.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return user, nil
}
