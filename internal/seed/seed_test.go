package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flower_shop/internal/auth"
	"flower_shop/internal/database"
	"flower_shop/internal/repository"
	"flower_shop/internal/seed"
)

func TestRunIsIdempotent(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.CloseSQL(db) })

	ctx := context.Background()
	store := repository.NewStore(db)

	first, err := seed.Run(ctx, store)
	require.NoError(t, err)
	assert.True(t, first.AdminCreated)
	assert.Equal(t, 6, first.ProductsCreated)

	second, err := seed.Run(ctx, store)
	require.NoError(t, err)
	assert.False(t, second.AdminCreated)
	assert.Zero(t, second.ProductsCreated)

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)

	admin, err := auth.NewService(store).Login(ctx, seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	p, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, p.Image, p.ImageURL())
}
