package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"complaint-service/internal/config"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// WindowCounter counts hits per key inside a fixed window that starts on the first hit.
type WindowCounter struct {
	client redis.Cmdable
	prefix string
}

func NewWindowCounter(client redis.Cmdable, prefix string) *WindowCounter {
	return &WindowCounter{client: client, prefix: prefix}
}

func (w *WindowCounter) Key(id string) string {
	return w.prefix + ":" + id
}

// Incr bumps the counter for id and reports the new count together with the time left in
// the window.
func (w *WindowCounter) Incr(ctx context.Context, id string, window time.Duration) (int64, time.Duration, error) {
	key := w.Key(id)

	count, err := w.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := w.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		return count, window, nil
	}

	ttl, err := w.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	// A key that lost its expiry would never reset.
	if ttl < 0 {
		if err := w.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}
	return count, ttl, nil
}
