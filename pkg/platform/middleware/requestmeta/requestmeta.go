// Package requestmeta stamps each request with an ID and a request-scoped
// clock so every store write within one request observes the same time.
package requestmeta

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"trapper/pkg/requestcontext"
)

const headerRequestID = "X-Request-ID"

// Middleware assigns a request ID (honoring an inbound header) and freezes the
// request time in context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())

		w.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
