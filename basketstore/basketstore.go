// Package basketstore provides the Redis-backed basket store and an
// in-memory double for tests and local development. Beyond the engine's
// Load/Save contract, both stores expose Exists, Initialize and Ping for
// bootstrap and health checks.
package basketstore

import "github.com/goodfood/basketservice/basket"

var (
	_ basket.Store = (*RedisBasketStore)(nil)
	_ basket.Store = (*LocalBasketStore)(nil)
)
