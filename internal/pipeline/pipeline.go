// Package pipeline relays accident telemetry: parse, resolve the device owner, record the
// event and notify the owner's group.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/accident-relay/internal/database"
	"github.com/afikmenashe/accident-relay/internal/events"
	"github.com/afikmenashe/accident-relay/internal/metrics"
)

// DefaultWorkers is the worker pool size when none is configured.
const DefaultWorkers = 10

// MessageReader is the subscribe transport.
type MessageReader interface {
	ReadMessage(ctx context.Context) (*kafka.Message, error)
	CommitMessage(ctx context.Context, msg *kafka.Message) error
}

// Store resolves devices and records events.
type Store interface {
	ResolveDevice(ctx context.Context, deviceID string) (*database.Resolution, error)
	InsertEvent(ctx context.Context, event *database.Event) error
}

// Dispatcher delivers one notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, token, userName, level string, timestamp time.Time, lat, lon float64) error
}

// DroppedPublisher receives telemetry that was not relayed.
type DroppedPublisher interface {
	PublishDropped(ctx context.Context, dropped *events.TelemetryDropped) error
}

// Outcome is the terminal state of one telemetry message.
type Outcome int

const (
	OutcomeDropped Outcome = iota
	OutcomeDispatched
	OutcomeDispatchFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDropped:
		return "dropped"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeDispatchFailed:
		return "dispatch_failed"
	default:
		return "unknown"
	}
}

// Options tunes a Processor.
type Options struct {
	Workers         int
	DispatchTimeout time.Duration
	Location        *time.Location
	Clock           func() time.Time
	Dropped         DroppedPublisher
}

// Processor runs the relay over a MessageReader. Messages share no state; the store is
// the only shared resource.
type Processor struct {
	reader          MessageReader
	store           Store
	dispatcher      Dispatcher
	dropped         DroppedPublisher
	metrics         metrics.Recorder
	workers         int
	dispatchTimeout time.Duration
	location        *time.Location
	clock           func() time.Time
}

// NewProcessor creates a processor. A nil recorder disables metrics.
func NewProcessor(reader MessageReader, store Store, dispatcher Dispatcher, m metrics.Recorder, opts Options) *Processor {
	if m == nil {
		m = metrics.NewNoOp()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Processor{
		reader:          reader,
		store:           store,
		dispatcher:      dispatcher,
		dropped:         opts.Dropped,
		metrics:         m,
		workers:         opts.Workers,
		dispatchTimeout: opts.DispatchTimeout,
		location:        opts.Location,
		clock:           opts.Clock,
	}
}

// Run reads telemetry and processes it on the worker pool until ctx is cancelled.
// In-flight messages finish before Run returns.
func (p *Processor) Run(ctx context.Context) error {
	slog.Info("Starting telemetry processing loop", "workers", p.workers)

	jobs := make(chan *kafka.Message, p.workers*2)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.runWorker(ctx, jobs, &wg)
	}

	p.dispatchMessages(ctx, jobs)

	close(jobs)
	wg.Wait()
	slog.Info("Telemetry processing loop stopped")
	return nil
}

func (p *Processor) runWorker(ctx context.Context, jobs <-chan *kafka.Message, wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range jobs {
		p.ProcessMessage(ctx, msg)
		p.commit(ctx, msg)
	}
}

func (p *Processor) dispatchMessages(ctx context.Context, jobs chan<- *kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logAndRecordError(p.metrics, "Failed to read telemetry message", "error", err)
			continue
		}
		p.metrics.RecordReceived()

		select {
		case jobs <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// ProcessMessage drives one message through parse, resolve, persist and dispatch.
// It never returns an error: every failure becomes a log record and an Outcome.
// A fetched message is processed to completion even if ctx is cancelled; store calls
// are bounded by the store's query timeout and dispatch by the dispatch timeout.
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.Message) Outcome {
	startTime := time.Now()
	defer func() {
		p.metrics.RecordProcessed(time.Since(startTime))
	}()
	ctx = context.WithoutCancel(ctx)

	accident, err := events.ParseTelemetry(msg.Value)
	if err != nil {
		logAndRecordError(p.metrics, "Dropping malformed telemetry",
			"stage", "parse",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		p.drop(ctx, events.DropMalformed, "", msg.Value, err)
		return OutcomeDropped
	}

	owner, err := p.store.ResolveDevice(ctx, accident.DeviceID)
	if errors.Is(err, database.ErrNotFound) {
		slog.Warn("Dropping telemetry from unregistered device",
			"stage", "resolve",
			"device_id", accident.DeviceID,
		)
		p.drop(ctx, events.DropUnknownDevice, accident.DeviceID, msg.Value, err)
		return OutcomeDropped
	}
	if err != nil {
		logAndRecordError(p.metrics, "Failed to resolve device",
			"stage", "resolve",
			"device_id", accident.DeviceID,
			"error", err,
		)
		p.drop(ctx, events.DropResolveFailed, accident.DeviceID, msg.Value, err)
		return OutcomeDropped
	}

	// Relay clock, not the device's.
	createdAt := p.clock().In(p.location).Truncate(time.Second)

	event := &database.Event{
		UserID:    owner.UserID,
		DeviceID:  accident.DeviceID,
		CreatedAt: createdAt,
		Latitude:  accident.Latitude,
		Longitude: accident.Longitude,
		Level:     accident.Level.String(),
	}
	// Persistence failure must not block notifying the group.
	if err := p.store.InsertEvent(ctx, event); err != nil {
		logAndRecordError(p.metrics, "Failed to persist event, dispatching anyway",
			"stage", "persist",
			"device_id", accident.DeviceID,
			"user_id", owner.UserID,
			"error", err,
		)
		p.metrics.RecordPersistFailed()
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, p.dispatchTimeout)
	defer cancel()

	err = p.dispatcher.Dispatch(dispatchCtx, owner.NotificationToken, owner.UserName,
		event.Level, createdAt, event.Latitude, event.Longitude)
	if err != nil {
		logAndRecordError(p.metrics, "Failed to dispatch notification",
			"stage", "dispatch",
			"device_id", accident.DeviceID,
			"event_id", event.EventID,
			"error", err,
		)
		p.metrics.RecordDispatchFailed()
		return OutcomeDispatchFailed
	}

	p.metrics.RecordDispatched()
	slog.Info("Relayed accident notification",
		"device_id", accident.DeviceID,
		"event_id", event.EventID,
		"user_id", owner.UserID,
		"level", event.Level,
	)
	return OutcomeDispatched
}

func (p *Processor) drop(ctx context.Context, reason events.DropReason, deviceID string, payload []byte, cause error) {
	p.metrics.RecordDropped(string(reason))
	if p.dropped == nil {
		return
	}
	dropped := events.NewTelemetryDropped(reason, deviceID, payload, cause, p.clock())
	if err := p.dropped.PublishDropped(ctx, dropped); err != nil {
		logAndRecordError(p.metrics, "Failed to publish dropped telemetry",
			"reason", reason,
			"device_id", deviceID,
			"error", err,
		)
	}
}

// commit acknowledges a message once it reached a terminal state. The commit outlives
// shutdown cancellation so finished work is not redelivered.
func (p *Processor) commit(ctx context.Context, msg *kafka.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.reader.CommitMessage(commitCtx, msg); err != nil {
		logAndRecordError(p.metrics, "Failed to commit offset",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

func logAndRecordError(m metrics.Recorder, msg string, args ...any) {
	slog.Error(msg, args...)
	m.RecordError()
}
