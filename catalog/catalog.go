// Package catalog fetches product snapshots from the catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound covers every failed product lookup: transport errors,
// non-200 replies and undecodable bodies all mean the product cannot be
// added, and none of them is retried.
var ErrNotFound = errors.New("product not found")

// Product is the catalog's view of a product. The basket keeps a
// snapshot of these fields at first add; Quantity here is catalog stock
// and is ignored by the basket.
type Product struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Visible      bool    `json:"visible"`
	Quantity     int32   `json:"quantity"`
	CategoryID   string  `json:"categoryId"`
	RestaurantID string  `json:"restaurantId"`
}

// Fetcher is the lookup capability the mutation engine depends on.
type Fetcher interface {
	FetchProduct(ctx context.Context, productID string) (*Product, error)
}

// Client fetches products over HTTP from baseURL + "/<product_id>".
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) FetchProduct(ctx context.Context, productID string) (*Product, error) {
	url := c.baseURL + "/" + productID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithMessagef(ErrNotFound, "build request for %q: %v", productID, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithMessagef(ErrNotFound, "fetch product %q: %v", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithMessagef(ErrNotFound, "fetch product %q: catalog returned %d", productID, resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, errors.WithMessagef(ErrNotFound, "decode product %q: %v", productID, err)
	}
	return &p, nil
}
