// Package router provides HTTP routing for the webhook listener.
package router

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/afikmenashe/accident-relay/pkg/metrics"
)

// Options configures optional middleware. Zero values disable it.
type Options struct {
	Collector *metrics.Collector
	RateLimit float64 // webhook requests per second
	Burst     int
}

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux       *http.ServeMux
	webhook   http.Handler
	limiter   *rate.Limiter
	collector *metrics.Collector
}

// NewRouter creates a new router with all routes configured.
func NewRouter(webhook http.Handler, opts Options) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		webhook:   webhook,
		collector: opts.Collector,
	}
	if opts.RateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst)
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	webhook := rateLimitMiddleware(r.limiter)(r.webhook)

	r.mux.HandleFunc("/webhook", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			webhook.ServeHTTP(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Local counters; the same snapshot is published to Redis when configured.
	r.mux.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.collector == nil {
			http.Error(w, "Metrics disabled", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(r.collector.Snapshot()); err != nil {
			slog.Error("Failed to encode metrics response", "error", err)
		}
	})
}

// Handler returns the mux wrapped with metrics middleware.
func (r *Router) Handler() http.Handler {
	return metricsMiddleware(r.collector)(r.mux)
}
