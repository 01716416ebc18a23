// Package metrics provides metrics recording interfaces for the relay.
// It uses the null object pattern to avoid nil checks throughout the codebase.
package metrics

import "time"

// Recorder records relay and webhook counters.
type Recorder interface {
	// RecordReceived counts a telemetry message read from the broker.
	RecordReceived()

	// RecordProcessed records a telemetry message that reached a terminal state.
	RecordProcessed(latency time.Duration)

	// RecordError counts any logged failure.
	RecordError()

	// RecordDropped counts a telemetry message dropped before dispatch.
	RecordDropped(reason string)

	// RecordPersistFailed counts an event that could not be stored.
	RecordPersistFailed()

	// RecordDispatched counts a delivered notification.
	RecordDispatched()

	// RecordDispatchFailed counts a notification that was not delivered.
	RecordDispatchFailed()

	// RecordWebhookRejected counts a webhook request with a bad signature.
	RecordWebhookRejected()

	// RecordReplySent counts a successful chat reply.
	RecordReplySent()

	// RecordReplyFailed counts a failed chat reply.
	RecordReplyFailed()
}

// NoOp is a no-op implementation of Recorder that discards all metrics.
// Use this when metrics collection is not configured.
type NoOp struct{}

// NewNoOp creates a new no-op metrics recorder.
func NewNoOp() *NoOp {
	return &NoOp{}
}

func (n *NoOp) RecordReceived()                 {}
func (n *NoOp) RecordProcessed(_ time.Duration) {}
func (n *NoOp) RecordError()                    {}
func (n *NoOp) RecordDropped(_ string)          {}
func (n *NoOp) RecordPersistFailed()            {}
func (n *NoOp) RecordDispatched()               {}
func (n *NoOp) RecordDispatchFailed()           {}
func (n *NoOp) RecordWebhookRejected()          {}
func (n *NoOp) RecordReplySent()                {}
func (n *NoOp) RecordReplyFailed()              {}

var _ Recorder = (*NoOp)(nil)
