// Package command routes chat text commands to their handlers and sends the replies.
package command

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/afikmenashe/accident-relay/internal/chat"
	"github.com/afikmenashe/accident-relay/internal/metrics"
	"github.com/afikmenashe/accident-relay/internal/webhook"
)

// Command phrases and reply texts.
const (
	GroupIDCommand = "groupId"
	HistoryCommand = "เรียกดูประวัติ"
	GroupIDPrefix  = "GROUP ID: "
	FallbackText   = "เกิดข้อผิดพลาดในการแสดงผลข้อมูล"
)

// DefaultReplyTimeout bounds one reply call when none is configured.
const DefaultReplyTimeout = 10 * time.Second

// Replier sends messages in reply to an event.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...chat.Message) error
}

// HistoryBuilder builds the reply to the history command.
type HistoryBuilder interface {
	BuildHistoryResponse(ctx context.Context, groupChatID string) chat.Message
}

// Router handles verified chat events. It implements webhook.EventHandler.
type Router struct {
	replier      Replier
	history      HistoryBuilder
	metrics      metrics.Recorder
	replyTimeout time.Duration

	fallbacks sync.WaitGroup
}

// NewRouter creates a command router. A nil recorder disables metrics.
func NewRouter(replier Replier, history HistoryBuilder, m metrics.Recorder, replyTimeout time.Duration) *Router {
	if m == nil {
		m = metrics.NewNoOp()
	}
	if replyTimeout <= 0 {
		replyTimeout = DefaultReplyTimeout
	}
	return &Router{
		replier:      replier,
		history:      history,
		metrics:      m,
		replyTimeout: replyTimeout,
	}
}

// HandleEvent dispatches one event. Non-text events and unknown text are ignored.
func (r *Router) HandleEvent(ctx context.Context, event webhook.Event) {
	text, ok := event.(*webhook.TextMessageEvent)
	if !ok {
		return
	}

	switch {
	case strings.EqualFold(text.Text, GroupIDCommand):
		r.handleGroupID(ctx, text)
	case text.Text == HistoryCommand:
		r.handleHistory(ctx, text)
	}
}

func (r *Router) handleGroupID(ctx context.Context, event *webhook.TextMessageEvent) {
	if event.GroupID == "" {
		slog.Debug("Ignoring groupId command outside a group", "user_id", event.UserID)
		return
	}

	err := r.reply(ctx, event.ReplyToken, chat.NewTextMessage(GroupIDPrefix+event.GroupID))
	if err == nil {
		return
	}

	slog.Error("Failed to reply with group id",
		"group_id", event.GroupID,
		"error", err,
	)
	r.sendFallback(ctx, event)
}

// sendFallback makes one best-effort attempt at the generic error reply. The webhook
// response does not wait for it; Wait does.
func (r *Router) sendFallback(ctx context.Context, event *webhook.TextMessageEvent) {
	detached := context.WithoutCancel(ctx)

	r.fallbacks.Add(1)
	go func() {
		defer r.fallbacks.Done()
		if err := r.reply(detached, event.ReplyToken, chat.NewTextMessage(FallbackText)); err != nil {
			slog.Error("Failed to send fallback reply",
				"group_id", event.GroupID,
				"error", err,
			)
		}
	}()
}

func (r *Router) handleHistory(ctx context.Context, event *webhook.TextMessageEvent) {
	if event.GroupID == "" {
		slog.Debug("Ignoring history command outside a group", "user_id", event.UserID)
		return
	}

	msg := r.history.BuildHistoryResponse(ctx, event.GroupID)
	if err := r.reply(ctx, event.ReplyToken, msg); err != nil {
		slog.Error("Failed to reply with history",
			"group_id", event.GroupID,
			"error", err,
		)
	}
}

func (r *Router) reply(ctx context.Context, replyToken string, msg chat.Message) error {
	ctx, cancel := context.WithTimeout(ctx, r.replyTimeout)
	defer cancel()

	if err := r.replier.Reply(ctx, replyToken, msg); err != nil {
		r.metrics.RecordReplyFailed()
		r.metrics.RecordError()
		return err
	}
	r.metrics.RecordReplySent()
	return nil
}

// Wait blocks until outstanding fallback replies finish or ctx ends.
func (r *Router) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.fallbacks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ webhook.EventHandler = (*Router)(nil)
