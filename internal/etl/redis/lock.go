package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds a best-effort advisory lock per target date so concurrent
// cold requests for the same day usually don't both hit the upstream.
// The store's conflict-tolerant inserts remain the real safety net.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{Client: client, TTL: ttl}
}

func dateKey(date time.Time) string {
	return "etl_lock:" + date.Format("2006-01-02")
}

// LockDate claims the ETL lock for a date. The owner token identifies the
// claiming run so only it can release early; the TTL bounds how long a
// crashed run can hold the lock.
func (r *Redis) LockDate(date time.Time, owner string) (bool, error) {
	ok, err := r.Client.SetNX(context.Background(), dateKey(date), owner, r.TTL).Result()
	return ok, err
}

// UnlockDate releases the lock if this owner still holds it.
func (r *Redis) UnlockDate(date time.Time, owner string) error {
	ctx := context.Background()
	key := dateKey(date)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired or released
	}
	if err != nil {
		return err
	}
	if val == owner {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// HolderForDate reports which run currently holds the date lock, for
// diagnostics.
func (r *Redis) HolderForDate(date time.Time) (string, error) {
	val, err := r.Client.Get(context.Background(), dateKey(date)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read lock holder: %w", err)
	}
	return val, nil
}
