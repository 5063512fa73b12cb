// Package cache holds the redis-backed principal cache used by the
// authorization gate. Entries are sanitized users; the service invalidates
// them whenever a role, status, or verification flag changes.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/apihub-auth/internal/domain"
)

const keyPrefix = "auth:user:"

// UserCache is a read-through cache for gate principal lookups.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewUserCache builds the cache. A nil client disables it gracefully.
func NewUserCache(client *redis.Client, ttlSeconds int, logger *zap.Logger) *UserCache {
	if ttlSeconds <= 0 {
		ttlSeconds = 30
	}
	return &UserCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		logger: logger,
	}
}

// Get returns a cached sanitized user, if present.
func (c *UserCache) Get(ctx context.Context, id string) (*domain.User, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("principal cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		c.logger.Warn("corrupt principal cache entry", zap.String("user_id", id), zap.Error(err))
		_ = c.client.Del(ctx, keyPrefix+id).Err()
		return nil, false
	}
	return &user, true
}

// Set stores a sanitized user for the configured TTL. Failures are
// best-effort; the gate falls back to the repository.
func (c *UserCache) Set(ctx context.Context, user *domain.User) {
	if c == nil || c.client == nil || user == nil {
		return
	}
	raw, err := json.Marshal(user.Sanitized())
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+user.ID, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("principal cache write failed", zap.Error(err))
	}
}

// Invalidate drops a cached principal after an auth-relevant mutation.
func (c *UserCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil || id == "" {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		c.logger.Debug("principal cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
}
