// Package metrics collects relay counters in-process and publishes periodic snapshots to
// Redis, where dashboards read them under "metrics:<service>".
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for service snapshots.
	KeyPrefix = "metrics:"
	// TTL is how long a snapshot stays in Redis if not refreshed.
	TTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing snapshots to Redis.
	DefaultReportInterval = 30 * time.Second
)

// Snapshot is the JSON document written to Redis.
type Snapshot struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	MessagesReceived  uint64 `json:"messages_received"`
	MessagesProcessed uint64 `json:"messages_processed"`
	ProcessingErrors  uint64 `json:"processing_errors"`

	AvgProcessingLatencyNs float64 `json:"avg_processing_latency_ns"`

	Counters map[string]uint64 `json:"counters,omitempty"`
}

// Collector accumulates counters and reports them to Redis on an interval.
// A nil Redis client turns reporting into a no-op while counting continues.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	received  atomic.Uint64
	processed atomic.Uint64
	errors    atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	countersMu sync.RWMutex
	counters   map[string]*atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a collector for the named service.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: DefaultReportInterval,
		counters:       make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing snapshots. Call before Start.
func (c *Collector) SetReportInterval(interval time.Duration) {
	if interval > 0 {
		c.reportInterval = interval
	}
}

// Start begins periodic reporting until ctx is cancelled or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.write(context.Background())
				return
			case <-c.stopCh:
				c.write(context.Background())
				return
			case <-ticker.C:
				c.write(ctx)
			}
		}
	}()
}

// Stop stops reporting and waits for the final write. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordReceived counts an inbound unit of work.
func (c *Collector) RecordReceived() {
	c.received.Add(1)
}

// RecordProcessed counts a handled unit of work and its latency.
func (c *Collector) RecordProcessed(latency time.Duration) {
	c.processed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

// RecordError counts a failure.
func (c *Collector) RecordError() {
	c.errors.Add(1)
}

// IncrementCustom increments a named counter.
func (c *Collector) IncrementCustom(name string) {
	c.counter(name).Add(1)
}

func (c *Collector) counter(name string) *atomic.Uint64 {
	c.countersMu.RLock()
	counter, ok := c.counters[name]
	c.countersMu.RUnlock()
	if ok {
		return counter
	}

	c.countersMu.Lock()
	defer c.countersMu.Unlock()
	if counter, ok = c.counters[name]; !ok {
		counter = &atomic.Uint64{}
		c.counters[name] = counter
	}
	return counter
}

// Snapshot returns the current counters without writing to Redis.
func (c *Collector) Snapshot() *Snapshot {
	var avg float64
	if n := c.latencyCount.Load(); n > 0 {
		avg = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	c.countersMu.RLock()
	counters := make(map[string]uint64, len(c.counters))
	for name, counter := range c.counters {
		counters[name] = counter.Load()
	}
	c.countersMu.RUnlock()

	return &Snapshot{
		ServiceName:            c.serviceName,
		StartedAt:              c.startedAt,
		LastUpdated:            time.Now().UTC(),
		MessagesReceived:       c.received.Load(),
		MessagesProcessed:      c.processed.Load(),
		ProcessingErrors:       c.errors.Load(),
		AvgProcessingLatencyNs: avg,
		Counters:               counters,
	}
}

func (c *Collector) write(ctx context.Context) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.serviceName, "error", err)
		return
	}

	key := KeyPrefix + c.serviceName
	if err := c.redis.Set(ctx, key, data, TTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.serviceName, "error", err)
		return
	}

	slog.Debug("Metrics written to Redis", "service", c.serviceName, "key", key)
}
