// Package notify delivers accident notifications to the group notification endpoint.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/afikmenashe/accident-relay/internal/notify/retry"
	"github.com/afikmenashe/accident-relay/pkg/shared"
)

// DefaultEndpoint is the LINE Notify API.
const DefaultEndpoint = "https://notify-api.line.me/api/notify"

// DefaultTimeout bounds a single POST when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// DispatchError is a failed delivery. StatusCode is 0 when no response was received.
type DispatchError struct {
	StatusCode int
	Err        error
}

func (e *DispatchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("notification endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("notification request failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether a later attempt could succeed.
func (e *DispatchError) Temporary() bool {
	if e.StatusCode == 0 {
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Dispatcher posts notification messages with a per-group bearer token.
type Dispatcher struct {
	httpClient *http.Client
	endpoint   string
	location   *time.Location
	retry      retry.Config
}

// NewDispatcher creates a dispatcher. maxRetries 0 means exactly one attempt per message.
func NewDispatcher(endpoint string, timeout time.Duration, location *time.Location, maxRetries int) *Dispatcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if location == nil {
		location = time.UTC
	}
	return &Dispatcher{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		location:   location,
		retry:      retry.DefaultConfig(maxRetries),
	}
}

// Dispatch formats and sends one notification to the destination identified by token.
func (d *Dispatcher) Dispatch(ctx context.Context, token, userName, level string, timestamp time.Time, lat, lon float64) error {
	if token == "" {
		return fmt.Errorf("notification token is required")
	}

	message := BuildMessage(userName, level, timestamp, d.location, lat, lon)
	form := url.Values{"message": {message}}.Encode()

	return retry.WithRetry(ctx, d.retry, "notify", func() error {
		return d.post(ctx, token, form)
	})
}

func (d *Dispatcher) post(ctx context.Context, token, form string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &DispatchError{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Notification endpoint returned error status",
			"status_code", resp.StatusCode,
			"token", shared.MaskToken(token),
		)
		return &DispatchError{StatusCode: resp.StatusCode}
	}

	return nil
}
