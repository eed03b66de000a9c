package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
)

// StatsCacheKey holds the import dashboard counts.
const StatsCacheKey = "import:stats"

// StatsCacheRepository keeps the import dashboard counts in Redis. A nil
// client reads as a permanent miss and ignores writes.
type StatsCacheRepository struct {
	client *redis.Client
	key    string
}

// NewStatsCacheRepository constructs the repository. An empty key selects
// StatsCacheKey.
func NewStatsCacheRepository(client *redis.Client, key string) *StatsCacheRepository {
	if key == "" {
		key = StatsCacheKey
	}
	return &StatsCacheRepository{client: client, key: key}
}

// Load returns the cached counts or appErrors.ErrCacheMiss.
func (r *StatsCacheRepository) Load(ctx context.Context) (*models.ImportStats, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	var stats models.ImportStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return &stats, nil
}

// Store caches stats for ttl.
func (r *StatsCacheRepository) Store(ctx context.Context, stats *models.ImportStats, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.client.Set(ctx, r.key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Drop forgets the cached counts.
func (r *StatsCacheRepository) Drop(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
