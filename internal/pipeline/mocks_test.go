package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/accident-relay/internal/database"
	"github.com/afikmenashe/accident-relay/internal/events"
)

type mockStore struct {
	mu                sync.Mutex
	resolveDeviceFunc func(ctx context.Context, deviceID string) (*database.Resolution, error)
	insertEventFunc   func(ctx context.Context, event *database.Event) error
	inserted          []database.Event
}

func (m *mockStore) ResolveDevice(ctx context.Context, deviceID string) (*database.Resolution, error) {
	if m.resolveDeviceFunc != nil {
		return m.resolveDeviceFunc(ctx, deviceID)
	}
	return nil, database.ErrNotFound
}

func (m *mockStore) InsertEvent(ctx context.Context, event *database.Event) error {
	m.mu.Lock()
	m.inserted = append(m.inserted, *event)
	m.mu.Unlock()
	if m.insertEventFunc != nil {
		return m.insertEventFunc(ctx, event)
	}
	return nil
}

func (m *mockStore) insertedEvents() []database.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.Event(nil), m.inserted...)
}

type dispatchCall struct {
	Token     string
	UserName  string
	Level     string
	Timestamp time.Time
	Lat, Lon  float64
}

type mockDispatcher struct {
	mu           sync.Mutex
	dispatchFunc func(ctx context.Context, token string) error
	calls        []dispatchCall
}

func (m *mockDispatcher) Dispatch(ctx context.Context, token, userName, level string, timestamp time.Time, lat, lon float64) error {
	m.mu.Lock()
	m.calls = append(m.calls, dispatchCall{token, userName, level, timestamp, lat, lon})
	m.mu.Unlock()
	if m.dispatchFunc != nil {
		return m.dispatchFunc(ctx, token)
	}
	return nil
}

func (m *mockDispatcher) dispatched() []dispatchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dispatchCall(nil), m.calls...)
}

type mockDropped struct {
	mu      sync.Mutex
	err     error
	records []*events.TelemetryDropped
}

func (m *mockDropped) PublishDropped(_ context.Context, dropped *events.TelemetryDropped) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, dropped)
	return m.err
}

// mockReader serves queued messages, then blocks until the context ends.
type mockReader struct {
	mu        sync.Mutex
	messages  []*kafka.Message
	readErrs  []error
	committed []int64
	commitCh  chan int64
}

func newMockReader(values ...string) *mockReader {
	r := &mockReader{commitCh: make(chan int64, len(values)+1)}
	for i, v := range values {
		r.messages = append(r.messages, &kafka.Message{Topic: "telemetry", Offset: int64(i), Value: []byte(v)})
	}
	return r
}

func (r *mockReader) ReadMessage(ctx context.Context) (*kafka.Message, error) {
	r.mu.Lock()
	if len(r.readErrs) > 0 {
		err := r.readErrs[0]
		r.readErrs = r.readErrs[1:]
		r.mu.Unlock()
		return nil, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (r *mockReader) CommitMessage(_ context.Context, msg *kafka.Message) error {
	r.mu.Lock()
	r.committed = append(r.committed, msg.Offset)
	r.mu.Unlock()
	r.commitCh <- msg.Offset
	return nil
}

func (r *mockReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type countingRecorder struct {
	mu       sync.Mutex
	received int
	errors   int
	dropped  map[string]int
	persist  int
	sent     int
	failed   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{dropped: map[string]int{}}
}

func (c *countingRecorder) RecordReceived()                 { c.mu.Lock(); c.received++; c.mu.Unlock() }
func (c *countingRecorder) RecordProcessed(_ time.Duration) {}
func (c *countingRecorder) RecordError()                    { c.mu.Lock(); c.errors++; c.mu.Unlock() }
func (c *countingRecorder) RecordDropped(reason string) {
	c.mu.Lock()
	c.dropped[reason]++
	c.mu.Unlock()
}
func (c *countingRecorder) RecordPersistFailed()   { c.mu.Lock(); c.persist++; c.mu.Unlock() }
func (c *countingRecorder) RecordDispatched()      { c.mu.Lock(); c.sent++; c.mu.Unlock() }
func (c *countingRecorder) RecordDispatchFailed()  { c.mu.Lock(); c.failed++; c.mu.Unlock() }
func (c *countingRecorder) RecordWebhookRejected() {}
func (c *countingRecorder) RecordReplySent()       {}
func (c *countingRecorder) RecordReplyFailed()     {}
