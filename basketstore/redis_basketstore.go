package basketstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/goodfood/basketservice/basket"
)

const initAttempts = 30

// record is the JSON envelope stored in Redis. It is the basket record
// itself plus a version stamp used for the conditional Save; the stamp
// never leaves the store layer.
type record struct {
	UserID  string        `json:"user_id"`
	Items   []basket.Item `json:"items"`
	Version int64         `json:"version,omitempty"`
}

// RedisBasketStore keeps one JSON record per user under the key
// basket:<user_id>.
type RedisBasketStore struct {
	client *redis.Client
}

// NewRedisBasketStore accepts either a redis:// URL or a plain
// "host:port" address.
func NewRedisBasketStore(redisAddr string) *RedisBasketStore {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			MaxRetries:   30,
			DialTimeout:  30 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	return &RedisBasketStore{client: redis.NewClient(opts)}
}

func basketKey(userID string) string {
	return "basket:" + userID
}

// Initialize pings Redis until it answers, backing off exponentially
// between attempts. The service refuses to start without its store.
func (r *RedisBasketStore) Initialize(ctx context.Context) error {
	for i := 0; i < initAttempts; i++ {
		if r.Ping(ctx) {
			log.Info("RedisBasketStore initialized")
			return nil
		}

		backoff := time.Duration(1000*(1<<uint(i))) * time.Millisecond
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		log.WithField("backoff", backoff).Warnf("redis not reachable, attempt %d/%d", i+1, initAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return errors.Errorf("failed to connect to Redis after %d attempts", initAttempts)
}

func (r *RedisBasketStore) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, basketKey(userID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis EXISTS")
	}
	return n > 0, nil
}

// Load reads and decodes the record for userID. Absence is ErrNotFound;
// a record that no longer decodes is a store failure for this request,
// reported as an error rather than silently reset.
func (r *RedisBasketStore) Load(ctx context.Context, userID string) (*basket.Basket, int64, error) {
	val, err := r.client.Get(ctx, basketKey(userID)).Result()
	if err == redis.Nil {
		return nil, 0, basket.ErrNotFound
	}
	if err != nil {
		return nil, 0, errors.Wrap(err, "redis GET")
	}

	var rec record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, 0, errors.Wrapf(err, "decode basket record for user %q", userID)
	}
	if rec.Items == nil {
		rec.Items = []basket.Item{}
	}
	return &basket.Basket{UserID: rec.UserID, Items: rec.Items}, rec.Version, nil
}

// Save writes the full record, conditional on the stored version still
// matching the one returned by Load. The check runs under WATCH so a
// concurrent writer aborts the transaction instead of being overwritten.
func (r *RedisBasketStore) Save(ctx context.Context, userID string, b *basket.Basket, version int64) error {
	key := basketKey(userID)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			if version != 0 {
				return basket.ErrConflict
			}
		case err != nil:
			return errors.Wrap(err, "redis GET")
		default:
			var rec record
			if err := json.Unmarshal([]byte(current), &rec); err != nil {
				return errors.Wrapf(err, "decode basket record for user %q", userID)
			}
			if rec.Version != version {
				return basket.ErrConflict
			}
		}

		payload, err := json.Marshal(record{UserID: b.UserID, Items: b.Items, Version: version + 1})
		if err != nil {
			return errors.Wrap(err, "encode basket record")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, key)
	if err == redis.TxFailedErr {
		return basket.ErrConflict
	}
	return err
}

// Ping reports whether Redis answers within a short deadline.
func (r *RedisBasketStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.client.Ping(pingCtx).Result(); err != nil {
		log.WithError(err).Debug("redis ping failed")
		return false
	}
	return true
}
