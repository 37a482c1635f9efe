package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type memoryCache struct {
	items   map[string][]byte
	deleted []string
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deleted = append(c.deleted, pattern)
	for key := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.items, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var got map[string]int
	hit, err := svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", map[string]int{"final": 12}, 0))
	hit, err = svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 12, got["final"])
}

func TestCacheServiceInvalidateStudent(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, ReportCardCacheKey("stu-1", "p1"), 1, 0))
	require.NoError(t, svc.Set(ctx, ReportCardCacheKey("stu-2", "p1"), 1, 0))
	require.NoError(t, svc.Set(ctx, ProgressionCacheKey("stu-1"), 1, 0))

	require.NoError(t, svc.InvalidateStudent(ctx, "stu-1"))
	assert.Equal(t, []string{"report-card:stu-1:*", "progression:stu-1"}, repo.deleted)
	assert.Len(t, repo.items, 1)
	_, ok := repo.items[ReportCardCacheKey("stu-2", "p1")]
	assert.True(t, ok)
}

func TestCacheServiceDisabledAndErrors(t *testing.T) {
	repo := newMemoryCache()
	disabled := NewCacheService(repo, nil, 0, nil, false)
	require.NoError(t, disabled.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.items)
	assert.False(t, disabled.Enabled())

	repo.getErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, 0, nil, true)
	var v int
	hit, err := svc.Get(context.Background(), "k", &v)
	assert.False(t, hit)
	assert.Error(t, err)
}
