package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
)

type memoryStatsCache struct {
	stats   *models.ImportStats
	ttl     time.Duration
	loadErr error
	dropped int
}

func (m *memoryStatsCache) Load(ctx context.Context) (*models.ImportStats, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.stats == nil {
		return nil, appErrors.ErrCacheMiss
	}
	return m.stats, nil
}

func (m *memoryStatsCache) Store(ctx context.Context, stats *models.ImportStats, ttl time.Duration) error {
	m.stats, m.ttl = stats, ttl
	return nil
}

func (m *memoryStatsCache) Drop(ctx context.Context) error {
	m.stats = nil
	m.dropped++
	return nil
}

func TestStatsCacheFetch(t *testing.T) {
	store := &memoryStatsCache{}
	metrics := NewMetricsService()
	cache := NewStatsCache(store, metrics, 30*time.Second, nil)
	loads := 0
	load := func(context.Context) (*models.ImportStats, error) {
		loads++
		return &models.ImportStats{Teachers: 3}, nil
	}

	stats, hit, err := cache.Fetch(context.Background(), load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(3), stats.Teachers)
	assert.Equal(t, 30*time.Second, store.ttl)

	stats, hit, err = cache.Fetch(context.Background(), load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(3), stats.Teachers)
	assert.Equal(t, 1, loads)

	cache.Invalidate(context.Background())
	_, hit, _ = cache.Fetch(context.Background(), load)
	assert.False(t, hit)
	assert.Equal(t, 2, loads)
}

func TestStatsCacheFallsThroughOnStoreFailure(t *testing.T) {
	store := &memoryStatsCache{loadErr: errors.New("redis: connection refused")}
	cache := NewStatsCache(store, nil, 0, nil)

	stats, hit, err := cache.Fetch(context.Background(), func(context.Context) (*models.ImportStats, error) {
		return &models.ImportStats{Parents: 2}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(2), stats.Parents)
}

func TestStatsCacheDisabled(t *testing.T) {
	var cache *StatsCache
	stats, hit, err := cache.Fetch(context.Background(), func(context.Context) (*models.ImportStats, error) {
		return &models.ImportStats{Grades: 1}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(1), stats.Grades)
	cache.Invalidate(context.Background())
}
