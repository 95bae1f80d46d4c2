package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mentat/internal/common"
)

func TestCategories_CreateAndGetByName(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, "user-1", "groceries")
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.True(t, created.IsActive)

	got, err := store.GetCategoryByName(ctx, "user-1", "groceries")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "groceries", got.Name)
}

func TestCategories_GetByNameUnknown(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetCategoryByName(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCategories_ScopedPerUser(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "user-1", "groceries")
	require.NoError(t, err)

	_, err = store.GetCategoryByName(ctx, "user-2", "groceries")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Same name for a different user is a distinct category.
	other, err := store.CreateCategory(ctx, "user-2", "groceries")
	require.NoError(t, err)

	mine, err := store.GetCategoryByName(ctx, "user-1", "groceries")
	require.NoError(t, err)
	assert.NotEqual(t, other.ID, mine.ID)
}

func TestCategories_CreateReturnsExisting(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first, err := store.CreateCategory(ctx, "user-1", "dining")
	require.NoError(t, err)

	second, err := store.CreateCategory(ctx, "user-1", "dining")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCategories_List(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"utilities", "dining", "groceries"} {
		_, err := store.CreateCategory(ctx, "user-1", name)
		require.NoError(t, err)
	}
	_, err := store.CreateCategory(ctx, "user-2", "other")
	require.NoError(t, err)

	cats, err := store.GetCategories(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cats, 3)

	// Ordered by name.
	assert.Equal(t, "dining", cats[0].Name)
	assert.Equal(t, "groceries", cats[1].Name)
	assert.Equal(t, "utilities", cats[2].Name)
}
