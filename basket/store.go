package basket

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Store.Load when no record exists for the
// user. It is the only absence signal; a stored record always loads
// without error whatever its version stamp says.
var ErrNotFound = errors.New("basket record not found")

// ErrConflict is returned by Store.Save when the record changed since
// the version handed out by Load. The caller may reload and retry the
// whole read-modify-write cycle.
var ErrConflict = errors.New("basket record modified concurrently")

// Store is the slice of the basket store the mutation engine consumes.
// Load returns a version stamp that Save checks atomically, so a stale
// write fails with ErrConflict instead of silently overwriting a
// concurrent update.
type Store interface {
	Load(ctx context.Context, userID string) (*Basket, int64, error)
	Save(ctx context.Context, userID string, b *Basket, version int64) error
}
