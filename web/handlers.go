// Package web exposes the basket operations over HTTP.
package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/goodfood/basketservice/basket"
)

// Pinger is the slice of the store the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// Server wires the mutation engine to the HTTP surface.
type Server struct {
	svc   *basket.Service
	store Pinger
	log   *logrus.Logger
}

func NewServer(svc *basket.Service, store Pinger, log *logrus.Logger) *Server {
	return &Server{svc: svc, store: store, log: log}
}

// requestItem is the body of Add and Remove requests.
type requestItem struct {
	ID       string `json:"id"`
	Quantity int32  `json:"quantity"`
}

// RegisterRoutes mounts all endpoints on r. The basket routes are
// registered with and without a trailing slash; both forms are served
// identically.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	basketRoutes := r.NewRoute().Subrouter()
	basketRoutes.Use(ensureUserID)

	for _, path := range []string{"/basket/clear", "/basket/clear/"} {
		basketRoutes.HandleFunc(path, s.clearBasket).Methods(http.MethodDelete)
	}
	for _, path := range []string{"/basket", "/basket/"} {
		basketRoutes.HandleFunc(path, s.getBasket).Methods(http.MethodGet)
		basketRoutes.HandleFunc(path, s.addItem).Methods(http.MethodPost)
		basketRoutes.HandleFunc(path, s.removeItem).Methods(http.MethodDelete)
	}
}

// Handler returns the fully composed handler including the logging
// middleware.
func (s *Server) Handler(r *mux.Router) http.Handler {
	return logHandler(s.log, r)
}

func (s *Server) getBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	b, err := s.svc.Get(ctx, userIDFrom(ctx))
	if err != nil {
		writeError(w, loggerFrom(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, ok := s.decodeItem(w, r)
	if !ok {
		return
	}

	b, err := s.svc.Add(ctx, userIDFrom(ctx), item.ID, item.Quantity)
	if err != nil {
		writeError(w, loggerFrom(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, ok := s.decodeItem(w, r)
	if !ok {
		return
	}

	b, err := s.svc.Remove(ctx, userIDFrom(ctx), item.ID, item.Quantity)
	if err != nil {
		writeError(w, loggerFrom(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) clearBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.svc.Clear(ctx, userIDFrom(ctx)); err != nil {
		writeError(w, loggerFrom(ctx), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Basket cleared"))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if !s.store.Ping(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: kindStoreError, Message: "Store unreachable"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// decodeItem parses and validates the {id, quantity} body. Quantities
// are deltas and must be positive; zero or negative deltas are rejected
// so no operation can ever persist a non-positive line quantity.
func (s *Server) decodeItem(w http.ResponseWriter, r *http.Request) (requestItem, bool) {
	var item requestItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: kindInvalidRequest, Message: "Invalid request body"})
		return item, false
	}
	if item.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: kindInvalidRequest, Message: "Product id is required"})
		return item, false
	}
	if item.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: kindInvalidRequest, Message: "Quantity must be positive"})
		return item, false
	}
	return item, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
