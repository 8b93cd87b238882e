package basket

import "github.com/pkg/errors"

// ErrNotSameRestaurant rejects an Add that would mix restaurants in one
// basket. The check only runs when a new line is appended; incrementing
// an existing line reuses a snapshot that was validated when it was
// first added, so no re-check is needed there.
var ErrNotSameRestaurant = errors.New("all items in the basket must be from the same restaurant")
