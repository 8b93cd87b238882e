package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	ctxKeyLogger ctxKey = iota
	ctxKeyUserID
)

// userIDHeader is the header the caller asserts its identity in. There
// is no verification; identity is trusted as presented.
const userIDHeader = "UserID"

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

// logHandler tags every request with a request id, puts a request-scoped
// logger into the context and logs the outcome.
func logHandler(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := log.WithFields(logrus.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"path":       r.URL.Path,
		})

		rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), ctxKeyLogger, entry)
		next.ServeHTTP(rr, r.WithContext(ctx))

		entry.WithFields(logrus.Fields{
			"status":   rr.status,
			"duration": time.Since(start),
		}).Info("request complete")
	})
}

// ensureUserID extracts the asserted identity before any handler runs.
// Requests without one never reach the mutation engine.
func ensureUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: kindUnauthorized, Message: "Unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggerFrom(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKeyLogger).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func userIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(ctxKeyUserID).(string)
	return userID
}
