package command

import (
	"context"
	"sync"

	"github.com/afikmenashe/accident-relay/internal/chat"
)

type replyCall struct {
	ReplyToken string
	Messages   []chat.Message
}

type mockReplier struct {
	mu        sync.Mutex
	replyFunc func(ctx context.Context, call int, replyToken string, messages ...chat.Message) error
	calls     []replyCall
}

func (m *mockReplier) Reply(ctx context.Context, replyToken string, messages ...chat.Message) error {
	m.mu.Lock()
	m.calls = append(m.calls, replyCall{ReplyToken: replyToken, Messages: messages})
	n := len(m.calls)
	m.mu.Unlock()
	if m.replyFunc != nil {
		return m.replyFunc(ctx, n, replyToken, messages...)
	}
	return nil
}

func (m *mockReplier) replies() []replyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]replyCall(nil), m.calls...)
}

type mockHistory struct {
	mu    sync.Mutex
	reply chat.Message
	calls []string
}

func (m *mockHistory) BuildHistoryResponse(_ context.Context, groupChatID string) chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, groupChatID)
	return m.reply
}
