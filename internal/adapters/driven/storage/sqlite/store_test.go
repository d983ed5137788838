package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndListMemories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1, err := store.AddMemory(ctx, "u1", "preference", "prefers dark roast coffee")
	require.NoError(t, err)
	id2, err := store.AddMemory(ctx, "u1", "bio", "works as a landscape architect")
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	records, err := store.ListMemories(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "works as a landscape architect", records[0].Content)
	assert.Equal(t, "bio", records[0].Type)
	assert.Equal(t, "prefers dark roast coffee", records[1].Content)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestListMemoriesScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddMemory(ctx, "u1", "note", "u1 fact")
	require.NoError(t, err)
	_, err = store.AddMemory(ctx, "u2", "note", "u2 fact")
	require.NoError(t, err)

	records, err := store.ListMemories(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u1 fact", records[0].Content)
}

func TestListMemoriesRespectsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		_, err := store.AddMemory(ctx, "u1", "note", content)
		require.NoError(t, err)
	}

	records, err := store.ListMemories(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "three", records[0].Content)
}

func TestAddMemoryValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddMemory(ctx, "", "note", "content")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.AddMemory(ctx, "u1", "note", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddMemoryDefaultsType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddMemory(ctx, "u1", "", "remembers birthdays")
	require.NoError(t, err)

	records, err := store.ListMemories(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "note", records[0].Type)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	_, err = store.AddMemory(context.Background(), "u1", "note", "survives reopen")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening reruns migrate against the same file.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.ListMemories(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
