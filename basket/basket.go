// Package basket holds the basket domain model and the mutation engine
// that applies line-item changes against the backing store.
package basket

// Item is one line of a basket. Everything except Quantity is a snapshot
// of the catalog product taken when the line was first added; later
// quantity updates do not refresh it, so price and label may drift from
// the catalog.
type Item struct {
	ID           string  `json:"id"`
	Quantity     int32   `json:"quantity"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	CategoryID   string  `json:"categoryId"`
	RestaurantID string  `json:"restaurantId"`
}

// Basket is the per-user basket record. Items keep insertion order of
// first-seen product ids and hold at most one line per product id. When
// Items is non-empty every line belongs to the restaurant of Items[0].
type Basket struct {
	UserID string `json:"user_id"`
	Items  []Item `json:"items"`
}

// New returns an empty basket for userID. Items is non-nil so the basket
// serializes with "items": [] rather than null.
func New(userID string) *Basket {
	return &Basket{
		UserID: userID,
		Items:  []Item{},
	}
}

// itemIndex returns the position of the line with the given product id,
// or -1 if the basket has no such line.
func (b *Basket) itemIndex(productID string) int {
	for i, item := range b.Items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}
