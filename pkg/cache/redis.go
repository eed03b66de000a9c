package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-import-api/pkg/config"
)

const defaultTimeout = 2 * time.Second

// NewRedis returns a client for the import stats cache, or nil when caching
// is disabled. The same timeout bounds dialing, each command and the
// startup ping, so a slow Redis degrades GET /import instead of stalling it.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return client, nil
}

// Health reports whether the stats cache answers. A zero Health (no client)
// is always healthy since caching is optional.
type Health struct {
	Client *redis.Client
}

// PingContext pings Redis.
func (h Health) PingContext(ctx context.Context) error {
	if h.Client == nil {
		return nil
	}
	return h.Client.Ping(ctx).Err()
}
