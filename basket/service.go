package basket

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/goodfood/basketservice/catalog"
)

// saveAttempts bounds how often one request replays its read-modify-write
// cycle after losing a conditional Save to a concurrent writer.
const saveAttempts = 3

// Service is the basket mutation engine. It holds no basket state across
// requests; every operation loads from the store, mutates a transient
// copy and writes the whole record back.
type Service struct {
	store   Store
	catalog catalog.Fetcher
}

func NewService(store Store, catalog catalog.Fetcher) *Service {
	return &Service{store: store, catalog: catalog}
}

// load treats an absent record as an empty basket. The returned flag
// reports whether a record actually exists; callers must not infer
// absence from the version stamp, which is zero for records written
// before the stamp existed.
func (s *Service) load(ctx context.Context, userID string) (*Basket, int64, bool, error) {
	b, version, err := s.store.Load(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return New(userID), 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	return b, version, true, nil
}

// Get returns the stored basket, or an empty one for users with no
// record. The empty basket is not persisted.
func (s *Service) Get(ctx context.Context, userID string) (*Basket, error) {
	b, _, _, err := s.load(ctx, userID)
	return b, err
}

// Add applies a quantity delta for one product. An existing line is
// incremented as-is; a new line is built from a fresh catalog snapshot
// and must match the restaurant of the basket's first line. On failure
// the stored basket is left untouched.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int32) (*Basket, error) {
	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		var b *Basket
		var version int64
		b, version, _, err = s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		if idx := b.itemIndex(productID); idx >= 0 {
			b.Items[idx].Quantity += quantity
		} else {
			p, ferr := s.catalog.FetchProduct(ctx, productID)
			if ferr != nil {
				return nil, ferr
			}
			if len(b.Items) > 0 && b.Items[0].RestaurantID != p.RestaurantID {
				return nil, ErrNotSameRestaurant
			}
			b.Items = append(b.Items, Item{
				ID:           p.ID,
				Quantity:     quantity,
				Label:        p.Label,
				Description:  p.Description,
				Price:        p.Price,
				CategoryID:   p.CategoryID,
				RestaurantID: p.RestaurantID,
			})
		}

		if err = s.store.Save(ctx, userID, b, version); err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		log.WithFields(log.Fields{"user_id": userID, "attempt": attempt + 1}).Debug("basket save conflict, retrying")
	}
	return nil, err
}

// Remove applies a negative quantity delta. A missing record or missing
// line is a no-op, not an error; a line whose quantity would drop to
// zero or below is removed entirely.
func (s *Service) Remove(ctx context.Context, userID, productID string, quantity int32) (*Basket, error) {
	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		var b *Basket
		var version int64
		var found bool
		b, version, found, err = s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		idx := b.itemIndex(productID)
		if !found || idx < 0 {
			return b, nil
		}

		if b.Items[idx].Quantity > quantity {
			b.Items[idx].Quantity -= quantity
		} else {
			b.Items = append(b.Items[:idx], b.Items[idx+1:]...)
		}

		if err = s.store.Save(ctx, userID, b, version); err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		log.WithFields(log.Fields{"user_id": userID, "attempt": attempt + 1}).Debug("basket save conflict, retrying")
	}
	return nil, err
}

// Clear empties the basket's items while keeping the record itself. A
// user with no record stays without one.
func (s *Service) Clear(ctx context.Context, userID string) error {
	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		var b *Basket
		var version int64
		var found bool
		b, version, found, err = s.load(ctx, userID)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		b.Items = []Item{}
		if err = s.store.Save(ctx, userID, b, version); err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		log.WithFields(log.Fields{"user_id": userID, "attempt": attempt + 1}).Debug("basket save conflict, retrying")
	}
	return err
}
