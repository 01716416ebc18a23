// Package webhook receives chat-platform webhook calls, authenticates them and fans the
// carried events out to an EventHandler.
package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/afikmenashe/accident-relay/internal/metrics"
	"github.com/afikmenashe/accident-relay/internal/signature"
)

// MaxBodyBytes caps the webhook body read into memory.
const MaxBodyBytes = 1 << 20

// EventHandler acts on one verified event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event Event)
}

// Handler serves the webhook endpoint.
type Handler struct {
	secret  []byte
	events  EventHandler
	metrics metrics.Recorder
}

// NewHandler creates a webhook handler. A nil recorder disables metrics.
func NewHandler(channelSecret string, events EventHandler, m metrics.Recorder) *Handler {
	if m == nil {
		m = metrics.NewNoOp()
	}
	return &Handler{
		secret:  []byte(channelSecret),
		events:  events,
		metrics: m,
	}
}

// ServeHTTP verifies the signature over the raw body before decoding anything, then
// handles every event concurrently and responds once all have settled.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Panic while handling webhook", "panic", rec)
			h.metrics.RecordError()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		slog.Error("Failed to read webhook body", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(body) > MaxBodyBytes {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	if !signature.Verify(body, r.Header.Get(signature.HeaderName), h.secret) {
		slog.Warn("Rejected webhook with invalid signature", "remote_addr", r.RemoteAddr)
		h.metrics.RecordWebhookRejected()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	parsed, err := ParseEvents(body)
	if err != nil {
		slog.Error("Failed to decode webhook body", "error", err)
		h.metrics.RecordError()
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := h.handleAll(r.Context(), parsed); err != nil {
		slog.Error("Failed to handle webhook events", "error", err)
		h.metrics.RecordError()
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleAll runs one goroutine per event and waits for all of them. A panicking event
// handler does not affect its siblings.
func (h *Handler) handleAll(ctx context.Context, parsed []Event) error {
	var wg sync.WaitGroup
	var panics atomic.Int32

	for _, ev := range parsed {
		wg.Add(1)
		go func(ev Event) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("Panic while handling chat event", "kind", ev.Kind(), "panic", rec)
					panics.Add(1)
				}
			}()
			h.events.HandleEvent(ctx, ev)
		}(ev)
	}
	wg.Wait()

	if n := panics.Load(); n > 0 {
		return fmt.Errorf("%d of %d events panicked", n, len(parsed))
	}
	return nil
}
