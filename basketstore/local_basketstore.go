package basketstore

import (
	"context"
	"sync"

	"github.com/goodfood/basketservice/basket"
)

type localRecord struct {
	basket  basket.Basket
	version int64
}

// LocalBasketStore keeps records in process memory. It exists for tests
// and local development and honors the same versioned-Save contract as
// the Redis store.
type LocalBasketStore struct {
	mu    sync.RWMutex
	store map[string]localRecord
}

func NewLocalBasketStore() *LocalBasketStore {
	return &LocalBasketStore{store: make(map[string]localRecord)}
}

func (l *LocalBasketStore) Initialize(ctx context.Context) error {
	return nil
}

func (l *LocalBasketStore) Exists(ctx context.Context, userID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.store[userID]
	return ok, nil
}

// Load returns a copy of the stored basket so callers cannot mutate the
// record behind the store's back.
func (l *LocalBasketStore) Load(ctx context.Context, userID string) (*basket.Basket, int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.store[userID]
	if !ok {
		return nil, 0, basket.ErrNotFound
	}
	return copyBasket(&rec.basket), rec.version, nil
}

func (l *LocalBasketStore) Save(ctx context.Context, userID string, b *basket.Basket, version int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.store[userID]
	current := int64(0)
	if ok {
		current = rec.version
	}
	if current != version {
		return basket.ErrConflict
	}

	l.store[userID] = localRecord{basket: *copyBasket(b), version: version + 1}
	return nil
}

func (l *LocalBasketStore) Ping(ctx context.Context) bool {
	return true
}

func copyBasket(b *basket.Basket) *basket.Basket {
	items := make([]basket.Item, len(b.Items))
	copy(items, b.Items)
	return &basket.Basket{UserID: b.UserID, Items: items}
}
