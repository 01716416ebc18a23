package router

import (
	"net/http"
	"time"
)

// NewServer creates a new HTTP server with the router configured. The write timeout
// leaves room for a history query and a reply within one webhook call.
func NewServer(port string, webhook http.Handler, opts Options) *http.Server {
	router := NewRouter(webhook, opts)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
