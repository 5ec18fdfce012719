package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with defaults sized for kiosk traffic: requests
// are small JSON bodies, but signature submissions can hold the connection
// for the full provider round trip.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
