package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:"

// RedisBlacklistRepository stores revoked token identifiers in Redis,
// letting key TTLs handle expiry instead of a sweep job.
type RedisBlacklistRepository struct {
	client *redis.Client
}

func NewRedisBlacklistRepository(client *redis.Client) *RedisBlacklistRepository {
	return &RedisBlacklistRepository{client: client}
}

func (r *RedisBlacklistRepository) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Token already expired, nothing to revoke
		return nil
	}

	return r.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err()
}

func (r *RedisBlacklistRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExpired is a no-op: Redis evicts keys when their TTL lapses
func (r *RedisBlacklistRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
