// Package server exposes the aggregator over HTTP for `pheonix serve`.
package server

import (
	"net/http"
	"time"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// New builds an HTTP server with the project's default timeouts.
func New(addr string, handler http.Handler) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
