package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Only the header read is bounded here; full
// verification of a long chain can legitimately hold a response open, so
// request and write deadlines are left to per-handler contexts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
