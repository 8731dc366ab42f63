package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

type cacheRepoStub struct {
	data    map[string]string
	lastTTL time.Duration
	getErr  error
	pattern string
}

func (s *cacheRepoStub) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = v
	return nil
}

func (s *cacheRepoStub) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	s.data[key] = value.(string)
	s.lastTTL = ttl
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(_ context.Context, pattern string) error {
	s.pattern = pattern
	return nil
}

func TestCacheServiceGetSet(t *testing.T) {
	repo := &cacheRepoStub{data: map[string]string{}}
	svc := NewCacheService(repo, NewMetricsService(), 30*time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "merge:1", "payload", 0))
	assert.Equal(t, 30*time.Minute, repo.lastTTL)

	var got string
	hit, err := svc.Get(ctx, "merge:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "payload", got)

	hit, err = svc.Get(ctx, "merge:2", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceSurfacesRepositoryErrors(t *testing.T) {
	repo := &cacheRepoStub{data: map[string]string{}, getErr: errors.New("connection refused")}
	svc := NewCacheService(repo, nil, 0, nil)

	var got string
	hit, err := svc.Get(context.Background(), "merge:1", &got)
	assert.Error(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Invalidate(context.Background(), "merge:*"))
	assert.Equal(t, "merge:*", repo.pattern)
}

func TestCacheServiceWithoutRepository(t *testing.T) {
	svc := NewCacheService(nil, nil, 0, nil)
	assert.False(t, svc.Enabled())
	assert.ErrorIs(t, svc.Set(context.Background(), "k", "v", 0), ErrStoreDisabled)
}

type slowRepo struct{ cacheRepoStub }

func (s *slowRepo) Get(ctx context.Context, _ string, _ interface{}) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCacheServiceOpTimeout(t *testing.T) {
	svc := NewCacheService(&slowRepo{}, nil, 0, nil, WithOpTimeout(10*time.Millisecond))

	var got string
	hit, err := svc.Get(context.Background(), "score:1", &got)
	assert.False(t, hit)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
