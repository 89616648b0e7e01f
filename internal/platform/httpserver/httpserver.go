package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. WriteTimeout
// stays generous because mutating endpoints block until chain finality.
func New(addr string, handler http.Handler, finalityTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      finalityTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
