// Package chat sends replies through the LINE Messaging API.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIURL is the Messaging API base URL.
const DefaultAPIURL = "https://api.line.me"

const replyPath = "/v2/bot/message/reply"

// MaxReplyMessages is the platform limit of messages per reply.
const MaxReplyMessages = 5

// ReplyError is a failed reply. StatusCode is 0 when no response was received.
type ReplyError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ReplyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("reply endpoint returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("reply request failed: %v", e.Err)
}

func (e *ReplyError) Unwrap() error {
	return e.Err
}

// Client replies to chat events with the channel access token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient creates a reply client.
func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
	}
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

// Reply answers the event identified by replyToken.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if replyToken == "" {
		return fmt.Errorf("reply token is required")
	}
	if len(messages) == 0 || len(messages) > MaxReplyMessages {
		return fmt.Errorf("reply must carry 1 to %d messages, got %d", MaxReplyMessages, len(messages))
	}

	body, err := json.Marshal(replyRequest{ReplyToken: replyToken, Messages: messages})
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+replyPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ReplyError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ReplyError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	slog.Debug("Sent chat reply", "messages", len(messages))
	return nil
}
