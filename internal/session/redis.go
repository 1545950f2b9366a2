package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/domain"
)

const redisKeyPrefix = "session:"

type redisIdentity struct {
	UserID string `json:"user_id"`
	RoleID int    `json:"role_id"`
}

// RedisCache stores resolved identities in Redis, keyed by a digest of the
// raw token so tokens themselves never appear in the keyspace. The entry TTL
// is capped by the caller to the token's remaining lifetime, keeping the
// cache subordinate to token claims.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func redisKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return redisKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisCache) Put(ctx context.Context, token string, identity auth.Identity, ttl time.Duration) {
	if token == "" || ttl <= 0 {
		return
	}
	payload, err := json.Marshal(redisIdentity{UserID: identity.UserID, RoleID: int(identity.Role)})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(token), payload, ttl).Err(); err != nil {
		c.logger.Warn("session cache put failed", zap.Error(err))
	}
}

func (c *RedisCache) Get(ctx context.Context, token string) (auth.Identity, bool) {
	if token == "" {
		return auth.Identity{}, false
	}
	payload, err := c.client.Get(ctx, redisKey(token)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("session cache get failed", zap.Error(err))
		}
		return auth.Identity{}, false
	}
	var stored redisIdentity
	if err := json.Unmarshal(payload, &stored); err != nil {
		return auth.Identity{}, false
	}
	return auth.Identity{UserID: stored.UserID, Role: domain.Role(stored.RoleID)}, true
}

func (c *RedisCache) Drop(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := c.client.Del(ctx, redisKey(token)).Err(); err != nil {
		c.logger.Warn("session cache drop failed", zap.Error(err))
	}
}
