// Package httpserver provides an http.Server with sane timeouts so main does
// not have to repeat them.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server ready for ListenAndServe.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
