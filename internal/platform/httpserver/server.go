// Package httpserver holds the http.Server construction so timeouts are
// decided in one place.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an http.Server with sane timeouts. The write timeout must exceed
// the admin mining wait or issuance responses get cut off mid-flight.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Minute
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}
