package webhook

import (
	"encoding/json"
	"fmt"
)

// Event is one decoded chat-platform event. The set of implementations is closed:
// *TextMessageEvent and *OtherEvent.
type Event interface {
	Kind() string
	isEvent()
}

// TextMessageEvent is a text message sent in a chat.
type TextMessageEvent struct {
	ReplyToken string
	GroupID    string
	UserID     string
	Text       string
}

func (*TextMessageEvent) Kind() string { return "text_message" }
func (*TextMessageEvent) isEvent()     {}

// OtherEvent is any event the relay does not act on.
type OtherEvent struct {
	Type        string
	MessageType string
	ReplyToken  string
}

func (*OtherEvent) Kind() string { return "other" }
func (*OtherEvent) isEvent()     {}

type rawRequest struct {
	Destination string     `json:"destination"`
	Events      []rawEvent `json:"events"`
}

type rawEvent struct {
	Type       string      `json:"type"`
	ReplyToken string      `json:"replyToken"`
	Source     *rawSource  `json:"source"`
	Message    *rawMessage `json:"message"`
}

type rawSource struct {
	Type    string `json:"type"`
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type rawMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseEvents decodes a webhook body into events, preserving order.
func ParseEvents(body []byte) ([]Event, error) {
	var req rawRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook body: %w", err)
	}

	parsed := make([]Event, 0, len(req.Events))
	for _, e := range req.Events {
		parsed = append(parsed, e.classify())
	}
	return parsed, nil
}

func (e rawEvent) classify() Event {
	if e.Type != "message" || e.Message == nil || e.Message.Type != "text" {
		other := &OtherEvent{Type: e.Type, ReplyToken: e.ReplyToken}
		if e.Message != nil {
			other.MessageType = e.Message.Type
		}
		return other
	}

	ev := &TextMessageEvent{ReplyToken: e.ReplyToken, Text: e.Message.Text}
	if e.Source != nil {
		ev.GroupID = e.Source.GroupID
		ev.UserID = e.Source.UserID
	}
	return ev
}
