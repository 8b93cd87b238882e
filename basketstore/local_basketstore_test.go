package basketstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodfood/basketservice/basket"
)

func TestLocalSaveLoadRoundTrip(t *testing.T) {
	store := NewLocalBasketStore()
	ctx := context.Background()

	b := &basket.Basket{UserID: "u1", Items: []basket.Item{{ID: "p1", Quantity: 2, RestaurantID: "r1"}}}
	require.NoError(t, store.Save(ctx, "u1", b, 0))

	loaded, version, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, b, loaded)
	assert.Equal(t, int64(1), version)

	_, _, err = store.Load(ctx, "nobody")
	assert.ErrorIs(t, err, basket.ErrNotFound)
}

func TestLocalSaveStaleVersionConflicts(t *testing.T) {
	store := NewLocalBasketStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", basket.New("u1"), 0))
	assert.ErrorIs(t, store.Save(ctx, "u1", basket.New("u1"), 0), basket.ErrConflict)
	assert.NoError(t, store.Save(ctx, "u1", basket.New("u1"), 1))
}

// Load hands out a copy; mutating it must not leak into the store.
func TestLocalLoadIsolatesCaller(t *testing.T) {
	store := NewLocalBasketStore()
	ctx := context.Background()

	b := &basket.Basket{UserID: "u1", Items: []basket.Item{{ID: "p1", Quantity: 2}}}
	require.NoError(t, store.Save(ctx, "u1", b, 0))

	loaded, _, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	loaded.Items[0].Quantity = 99

	again, _, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), again.Items[0].Quantity)
}
