package api

import (
	"net/http"
	"time"
)

// NewServer wraps the router in an http.Server with conservative timeouts.
// Slowloris-style clients are cut off by the header timeout.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
