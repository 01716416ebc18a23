// Package config provides configuration parsing and validation for the accident relay.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Config holds all configuration parameters for the relay.
type Config struct {
	// Chat platform credentials.
	ChannelAccessToken string
	ChannelSecret      string

	// Subscribe transport.
	KafkaBrokers    string
	TelemetryTopic  string
	ConsumerGroupID string
	DroppedTopic    string // optional
	Workers         int

	// HTTP webhook listener.
	HTTPPort         string
	WebhookRateLimit float64 // requests per second, 0 disables
	WebhookBurst     int

	// Record store.
	PostgresDSN string
	Migrate     bool

	// Metrics publishing, optional.
	RedisAddr string

	// External endpoints.
	NotifyAPIURL    string
	ChatAPIURL      string
	DetailPageURL   string
	HistoryImageURL string
	Timezone        string

	// Per-call bounds on external dependencies.
	StoreTimeout     time.Duration
	DispatchTimeout  time.Duration
	ReplyTimeout     time.Duration
	NotifyMaxRetries int
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.ChannelAccessToken == "" {
		return fmt.Errorf("channel-access-token cannot be empty")
	}
	if c.ChannelSecret == "" {
		return fmt.Errorf("channel-secret cannot be empty")
	}
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.TelemetryTopic == "" {
		return fmt.Errorf("telemetry-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.NotifyAPIURL == "" {
		return fmt.Errorf("notify-api-url cannot be empty")
	}
	if c.ChatAPIURL == "" {
		return fmt.Errorf("chat-api-url cannot be empty")
	}
	if c.Timezone == "" {
		return fmt.Errorf("timezone cannot be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q is invalid: %w", c.Timezone, err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.StoreTimeout <= 0 || c.DispatchTimeout <= 0 || c.ReplyTimeout <= 0 {
		return fmt.Errorf("store, dispatch and reply timeouts must be positive")
	}
	if c.NotifyMaxRetries < 0 {
		return fmt.Errorf("notify-max-retries cannot be negative")
	}
	if c.WebhookRateLimit < 0 {
		return fmt.Errorf("webhook-rate-limit cannot be negative")
	}
	if c.WebhookRateLimit > 0 && c.WebhookBurst <= 0 {
		return fmt.Errorf("webhook-burst must be positive when rate limiting is enabled")
	}
	return nil
}

// Location returns the configured time zone. Validate must have succeeded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
