package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog/product/p1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p1","label":"Margherita","description":"Tomato","price":9.5,"visible":true,"quantity":10,"categoryId":"pizza","restaurantId":"r1"}`))
	}))
	defer srv.Close()

	// Trailing slash on the base URL must not double up in the path.
	c := NewClient(srv.URL + "/catalog/product/")

	p, err := c.FetchProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, &Product{
		ID: "p1", Label: "Margherita", Description: "Tomato",
		Price: 9.5, Visible: true, Quantity: 10,
		CategoryID: "pizza", RestaurantID: "r1",
	}, p)
}

func TestFetchProductNon200IsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchProductBadBodyIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchProductTransportFailureIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).FetchProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}
