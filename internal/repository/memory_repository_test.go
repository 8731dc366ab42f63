package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestMemoryRepositorySetGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "merge:1", payload{Name: "a", Score: 3}, time.Minute))

	var got payload
	require.NoError(t, repo.Get(ctx, "merge:1", &got))
	assert.Equal(t, payload{Name: "a", Score: 3}, got)

	err := repo.Get(ctx, "merge:2", &got)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestMemoryRepositoryExpiry(t *testing.T) {
	repo := NewMemoryRepository()
	current := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "score:1", payload{Name: "x"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "score:2", payload{Name: "y"}, 0))

	current = current.Add(2 * time.Minute)

	var got payload
	assert.True(t, errors.Is(repo.Get(ctx, "score:1", &got), appErrors.ErrCacheMiss))
	require.NoError(t, repo.Get(ctx, "score:2", &got))
	assert.Equal(t, "y", got.Name)

	assert.Equal(t, 1, repo.Sweep())
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryRepositoryDeleteByPattern(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "merge:1", payload{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "merge:2", payload{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "score:1", payload{}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "merge:*"))
	assert.Equal(t, 1, repo.Len())
}
