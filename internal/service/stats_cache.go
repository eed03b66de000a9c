package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
)

type statsCacheStore interface {
	Load(ctx context.Context) (*models.ImportStats, error)
	Store(ctx context.Context, stats *models.ImportStats, ttl time.Duration) error
	Drop(ctx context.Context) error
}

// StatsCache fronts the entity counts query. Cache failures are logged and
// fall through to the database; they never fail a request.
type StatsCache struct {
	store   statsCacheStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewStatsCache wraps store. A nil store disables caching.
func NewStatsCache(store statsCacheStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsCache{store: store, metrics: metrics, ttl: ttl, logger: logger}
}

func (c *StatsCache) enabled() bool {
	return c != nil && c.store != nil
}

// Fetch returns cached counts, or calls load and caches its answer. The
// bool reports a cache hit.
func (c *StatsCache) Fetch(ctx context.Context, load func(context.Context) (*models.ImportStats, error)) (*models.ImportStats, bool, error) {
	if c.enabled() {
		start := time.Now()
		stats, err := c.store.Load(ctx)
		c.metrics.RecordCacheOperation(err == nil, time.Since(start))
		switch {
		case err == nil:
			return stats, true, nil
		case !errors.Is(err, appErrors.ErrCacheMiss):
			c.logger.Warn("import stats cache read failed", zap.Error(err))
		}
	}

	stats, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	if c.enabled() {
		start := time.Now()
		if err := c.store.Store(ctx, stats, c.ttl); err != nil {
			c.logger.Warn("import stats cache write failed", zap.Error(err))
		}
		c.metrics.ObserveCacheWrite(time.Since(start))
	}
	return stats, false, nil
}

// Invalidate drops the cached counts after a batch changed them.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if err := c.store.Drop(ctx); err != nil {
		c.logger.Warn("import stats cache invalidation failed", zap.Error(err))
	}
}
