package metrics

import (
	"time"

	"github.com/afikmenashe/accident-relay/pkg/metrics"
)

// Counter names published alongside the built-in collector fields.
const (
	CounterDroppedPrefix   = "telemetry_dropped_"
	CounterPersistFailed   = "events_persist_failed"
	CounterDispatched      = "notifications_dispatched"
	CounterDispatchFailed  = "notifications_failed"
	CounterWebhookRejected = "webhook_rejected"
	CounterRepliesSent     = "replies_sent"
	CounterRepliesFailed   = "replies_failed"
)

// CollectorAdapter adapts pkg/metrics.Collector to the Recorder interface.
type CollectorAdapter struct {
	collector *metrics.Collector
}

// NewCollectorAdapter wraps a metrics.Collector to implement Recorder.
func NewCollectorAdapter(collector *metrics.Collector) *CollectorAdapter {
	return &CollectorAdapter{collector: collector}
}

func (a *CollectorAdapter) RecordReceived() {
	a.collector.RecordReceived()
}

func (a *CollectorAdapter) RecordProcessed(latency time.Duration) {
	a.collector.RecordProcessed(latency)
}

func (a *CollectorAdapter) RecordError() {
	a.collector.RecordError()
}

func (a *CollectorAdapter) RecordDropped(reason string) {
	a.collector.IncrementCustom(CounterDroppedPrefix + reason)
}

func (a *CollectorAdapter) RecordPersistFailed() {
	a.collector.IncrementCustom(CounterPersistFailed)
}

func (a *CollectorAdapter) RecordDispatched() {
	a.collector.IncrementCustom(CounterDispatched)
}

func (a *CollectorAdapter) RecordDispatchFailed() {
	a.collector.IncrementCustom(CounterDispatchFailed)
}

func (a *CollectorAdapter) RecordWebhookRejected() {
	a.collector.IncrementCustom(CounterWebhookRejected)
}

func (a *CollectorAdapter) RecordReplySent() {
	a.collector.IncrementCustom(CounterRepliesSent)
}

func (a *CollectorAdapter) RecordReplyFailed() {
	a.collector.IncrementCustom(CounterRepliesFailed)
}

var _ Recorder = (*CollectorAdapter)(nil)
