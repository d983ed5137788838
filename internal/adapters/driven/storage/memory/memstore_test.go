package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

func TestAddAndListMemories(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id1, err := store.AddMemory(ctx, "u1", "preference", "first fact")
	require.NoError(t, err)
	id2, err := store.AddMemory(ctx, "u1", "note", "second fact")
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	records, err := store.ListMemories(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second fact", records[0].Content)
	assert.Equal(t, "first fact", records[1].Content)
}

func TestListMemoriesScopedToUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.AddMemory(ctx, "u1", "note", "mine")
	require.NoError(t, err)
	_, err = store.AddMemory(ctx, "u2", "note", "theirs")
	require.NoError(t, err)

	records, err := store.ListMemories(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "theirs", records[0].Content)
}

func TestListMemoriesRespectsLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c"} {
		_, err := store.AddMemory(ctx, "u1", "note", content)
		require.NoError(t, err)
	}

	records, err := store.ListMemories(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].Content)
	assert.Equal(t, "b", records[1].Content)
}

func TestAddMemoryValidation(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.AddMemory(context.Background(), "", "note", "content")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.AddMemory(context.Background(), "u1", "note", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddMemoryDefaultsType(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.AddMemory(context.Background(), "u1", "", "typed fact")
	require.NoError(t, err)

	records, err := store.ListMemories(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Equal(t, "note", records[0].Type)
}
