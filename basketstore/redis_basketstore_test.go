package basketstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodfood/basketservice/basket"
)

func newRedisFixture(t *testing.T) (*RedisBasketStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisBasketStore(mr.Addr()), mr
}

func TestRedisSaveLoadRoundTrip(t *testing.T) {
	store, mr := newRedisFixture(t)
	ctx := context.Background()

	b := &basket.Basket{UserID: "u1", Items: []basket.Item{
		{ID: "p1", Quantity: 2, Label: "Margherita", Description: "Tomato and mozzarella", Price: 9.5, CategoryID: "pizza", RestaurantID: "r1"},
	}}
	require.NoError(t, store.Save(ctx, "u1", b, 0))

	assert.True(t, mr.Exists("basket:u1"), "record lives under basket:<user_id>")

	loaded, version, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, b, loaded)
	assert.Equal(t, int64(1), version)
}

func TestRedisExists(t *testing.T) {
	store, _ := newRedisFixture(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, "u1", basket.New("u1"), 0))

	exists, err = store.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisLoadAbsentRecord(t *testing.T) {
	store, _ := newRedisFixture(t)

	_, _, err := store.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, basket.ErrNotFound)
}

func TestRedisLoadCorruptRecord(t *testing.T) {
	store, mr := newRedisFixture(t)

	require.NoError(t, mr.Set("basket:u1", "not json"))

	_, _, err := store.Load(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, basket.ErrNotFound)
}

// The persisted payload must stay wire-compatible with the documented
// record layout, with items as [] rather than null when empty.
func TestRedisRecordLayout(t *testing.T) {
	store, mr := newRedisFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", basket.New("u1"), 0))

	raw, err := mr.Get("basket:u1")
	require.NoError(t, err)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	assert.JSONEq(t, `"u1"`, string(payload["user_id"]))
	assert.JSONEq(t, `[]`, string(payload["items"]))
}

func TestRedisSaveStaleVersionConflicts(t *testing.T) {
	store, _ := newRedisFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", basket.New("u1"), 0))

	// A writer that loaded before the save above holds version 0.
	err := store.Save(ctx, "u1", basket.New("u1"), 0)
	assert.ErrorIs(t, err, basket.ErrConflict)
}

func TestRedisSaveOnDeletedRecordConflicts(t *testing.T) {
	store, mr := newRedisFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", basket.New("u1"), 0))
	mr.Del("basket:u1")

	err := store.Save(ctx, "u1", basket.New("u1"), 1)
	assert.ErrorIs(t, err, basket.ErrConflict)
}

func TestRedisVersionAdvancesPerSave(t *testing.T) {
	store, _ := newRedisFixture(t)
	ctx := context.Background()

	b := basket.New("u1")
	require.NoError(t, store.Save(ctx, "u1", b, 0))

	loaded, v1, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "u1", loaded, v1))

	_, v2, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, v1+1, v2)
}
