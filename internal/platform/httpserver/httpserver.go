// Package httpserver constructs the data engine's HTTP server. Long-running
// work (status propagation, geocoding, the audit relay) runs in background
// workers, never inside a request, so request handling stays short.
package httpserver

import (
	"net/http"
	"time"
)

// New returns the server for the given handler. ReadHeaderTimeout bounds
// slow-header clients; per-request deadlines belong to the handlers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
