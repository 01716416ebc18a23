// Package retry provides bounded retry with exponential backoff for transient failures.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

// Config defines retry behavior.
type Config struct {
	MaxRetries     int           // Maximum number of retry attempts (0 = single attempt)
	InitialBackoff time.Duration // Initial backoff duration
	MaxBackoff     time.Duration // Maximum backoff duration
	BackoffFactor  float64       // Multiplier for exponential backoff
}

// DefaultConfig returns the backoff shape with the given retry count.
func DefaultConfig(maxRetries int) Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

// temporary is implemented by errors that know whether they are transient.
type temporary interface {
	Temporary() bool
}

// IsRetryable reports whether err is transient. Typed errors decide for themselves;
// anything else falls back to matching well-known transient phrases.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	for _, s := range []string{"invalid", "malformed", "unauthorized"} {
		if strings.Contains(errStr, s) {
			return false
		}
	}

	retryable := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"too many requests",
		"try again",
	}
	for _, s := range retryable {
		if strings.Contains(errStr, s) {
			return true
		}
	}

	return false
}

// WithRetry runs fn until it succeeds, fails with a non-transient error, or the retry
// budget is spent. The last error is returned.
func WithRetry(ctx context.Context, cfg Config, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				slog.Info("Operation succeeded after retry",
					"operation", operation,
					"attempt", attempt+1,
				)
			}
			return nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return err
		}

		if attempt >= cfg.MaxRetries {
			if cfg.MaxRetries > 0 {
				slog.Warn("Max retries exceeded",
					"operation", operation,
					"attempts", attempt+1,
					"error", err,
				)
			}
			return err
		}

		backoff := calculateBackoff(cfg, attempt)

		slog.Warn("Operation failed, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"max_attempts", cfg.MaxRetries+1,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return lastErr
}

// calculateBackoff is initial * factor^attempt capped at MaxBackoff, with ±25% jitter.
func calculateBackoff(cfg Config, attempt int) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
