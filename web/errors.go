package web

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goodfood/basketservice/basket"
	"github.com/goodfood/basketservice/catalog"
)

// Machine-readable error kinds carried in the response envelope.
const (
	kindUnauthorized      = "UNAUTHORIZED"
	kindInvalidRequest    = "INVALID_REQUEST"
	kindProductNotFound   = "PRODUCT_NOT_FOUND"
	kindNotSameRestaurant = "NOT_SAME_RESTAURANT"
	kindConflict          = "CONFLICT"
	kindStoreError        = "STORE_ERROR"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps an engine error to its wire kind and status. Anything
// unrecognized is a store or encoding failure and reported as a 500.
func writeError(w http.ResponseWriter, log *logrus.Entry, err error) {
	var (
		status int
		kind   string
		msg    string
	)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		status, kind, msg = http.StatusBadRequest, kindProductNotFound, "Product not found"
	case errors.Is(err, basket.ErrNotSameRestaurant):
		status, kind, msg = http.StatusBadRequest, kindNotSameRestaurant, err.Error()
	case errors.Is(err, basket.ErrConflict):
		status, kind, msg = http.StatusConflict, kindConflict, "Basket was modified concurrently, retry the request"
	default:
		status, kind, msg = http.StatusInternalServerError, kindStoreError, "Basket storage failure"
	}

	log.WithError(err).WithField("kind", kind).Warn("request failed")
	writeJSON(w, status, errorResponse{Error: kind, Message: msg})
}
