package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
)

const (
	counterKeyPrefix = "movements:"
	counterTTL       = 48 * time.Hour
)

// RedisAdapter implements port.CacheRepository: SetNX-based locks for
// bulk maintenance and daily movement counters for the dashboard.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) ReleaseLock(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func counterKey(direction domain.Direction, day time.Time) string {
	return fmt.Sprintf("%s%s:%s", counterKeyPrefix, direction, day.Format("2006-01-02"))
}

func (r *RedisAdapter) BumpMovementCounter(ctx context.Context, direction domain.Direction, day time.Time) error {
	key := counterKey(direction, day)
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisAdapter) MovementCounter(ctx context.Context, direction domain.Direction, day time.Time) (int, bool, error) {
	count, err := r.client.Get(ctx, counterKey(direction, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}
