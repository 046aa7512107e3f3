package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-api/internal/dto"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestSlotCacheKeys(t *testing.T) {
	assert.Equal(t, "slots:emp-1:svc-30:2024-06-03", SlotCacheKey("emp-1", "svc-30", "2024-06-03"))
	assert.Equal(t, "slots:emp-1:*", SlotCachePattern("emp-1"))
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newMemCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()
	key := SlotCacheKey("emp-1", "svc-30", "2024-06-03")

	var out dto.SlotsResponse
	assert.False(t, cache.Get(ctx, key, &out))

	cache.Set(ctx, key, dto.SlotsResponse{Date: "2024-06-03", Slots: []string{"09:00"}}, 0)
	require.True(t, cache.Get(ctx, key, &out))
	assert.Equal(t, []string{"09:00"}, out.Slots)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
	assert.InDelta(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio), 0.001)

	cache.InvalidateEmployee(ctx, "emp-1")
	assert.False(t, repo.has(key))
}

func TestCacheServiceDegradesSilently(t *testing.T) {
	cache := NewCacheService(brokenCacheRepo{}, nil, time.Second, nil, true)
	ctx := context.Background()

	var out dto.SlotsResponse
	assert.False(t, cache.Get(ctx, "k", &out))
	assert.NotPanics(t, func() {
		cache.Set(ctx, "k", out, 0)
		cache.InvalidateEmployee(ctx, "emp-1")
	})
}

func TestDisabledCacheIsBypassed(t *testing.T) {
	repo := newMemCacheRepo()
	cache := NewCacheService(repo, nil, time.Second, nil, false)
	ctx := context.Background()

	cache.Set(ctx, "k", "v", 0)
	var out string
	assert.False(t, cache.Get(ctx, "k", &out))
	assert.Zero(t, repo.gets)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NotPanics(t, func() { nilCache.InvalidateEmployee(ctx, "emp-1") })
}
