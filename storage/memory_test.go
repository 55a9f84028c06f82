package storage

import (
	"context"
	"testing"
	"time"

	"cart-tracker/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "a", Title: "Mouse", URL: "https://shop.test/mouse"}))
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "b", Title: "Keyboard", URL: "https://shop.test/kb"}))

	cart, err := store.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart, 2)

	// Newest first.
	assert.Equal(t, "Keyboard", cart[0].Title)
	assert.Equal(t, "Mouse", cart[1].Title)
	assert.False(t, cart[0].AddedAt.IsZero())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "a", Title: "Mouse"}))

	cart, err := store.GetCart(ctx)
	require.NoError(t, err)
	cart[0].Title = "Mutated"

	cart, err = store.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Mouse", cart[0].Title)
}

func TestMemoryStore_UpdateInPlace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Now()
	current := base
	store.now = func() time.Time { return current }

	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "a", Title: "Mouse", URL: "https://shop.test/mouse", Price: "29.99"}))

	current = base.Add(time.Hour)
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "b", Title: "Mouse", URL: "https://shop.test/mouse", Price: "24.99"}))

	cart, err := store.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart, 1)

	// The record is replaced but the original addition instant survives.
	assert.Equal(t, "24.99", cart[0].Price)
	assert.True(t, cart[0].AddedAt.Equal(base))
	assert.True(t, cart[0].UpdatedAt.Equal(base.Add(time.Hour)))
}

func TestMemoryStore_RemoveFromCart(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "a", Title: "Mouse"}))
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "b", Title: "Keyboard"}))

	require.NoError(t, store.RemoveFromCart(ctx, "a"))
	assert.Equal(t, 1, store.Len())

	err := store.RemoveFromCart(ctx, "a")
	assert.ErrorIs(t, err, types.ErrProductNotFound)
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "a", Title: "Mouse"}))

	require.NoError(t, store.Clear(ctx))
	assert.Zero(t, store.Len())
}

func TestMemoryStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "a", Title: "Mouse", Store: "shop-a.test"}))
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "b", Title: "Keyboard", Store: "shop-b.test"}))
	require.NoError(t, store.AddToCart(ctx, types.Product{ID: "c", Title: "Monitor", Store: "shop-a.test"}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 2, stats.Stores)
	require.Len(t, stats.StoreBreakdown, 2)

	counts := make(map[string]int)
	for _, sc := range stats.StoreBreakdown {
		counts[sc.Store] = sc.Count
	}
	assert.Equal(t, 2, counts["shop-a.test"])
	assert.Equal(t, 1, counts["shop-b.test"])
}
