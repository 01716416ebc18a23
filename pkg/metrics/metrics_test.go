package metrics

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("accident-relay", nil)

	c.RecordReceived()
	c.RecordReceived()
	c.RecordProcessed(10 * time.Millisecond)
	c.RecordProcessed(30 * time.Millisecond)
	c.RecordError()
	c.IncrementCustom("telemetry_dropped_unknown_device")
	c.IncrementCustom("telemetry_dropped_unknown_device")

	snap := c.Snapshot()
	if snap.ServiceName != "accident-relay" {
		t.Errorf("ServiceName = %q", snap.ServiceName)
	}
	if snap.MessagesReceived != 2 {
		t.Errorf("MessagesReceived = %d, want 2", snap.MessagesReceived)
	}
	if snap.MessagesProcessed != 2 {
		t.Errorf("MessagesProcessed = %d, want 2", snap.MessagesProcessed)
	}
	if snap.ProcessingErrors != 1 {
		t.Errorf("ProcessingErrors = %d, want 1", snap.ProcessingErrors)
	}
	if want := float64(20 * time.Millisecond); snap.AvgProcessingLatencyNs != want {
		t.Errorf("AvgProcessingLatencyNs = %v, want %v", snap.AvgProcessingLatencyNs, want)
	}
	if snap.Counters["telemetry_dropped_unknown_device"] != 2 {
		t.Errorf("custom counter = %d, want 2", snap.Counters["telemetry_dropped_unknown_device"])
	}
}

func TestCollector_IncrementCustomConcurrent(t *testing.T) {
	c := NewCollector("accident-relay", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementCustom("replies_sent")
		}()
	}
	wg.Wait()

	if got := c.Snapshot().Counters["replies_sent"]; got != 50 {
		t.Errorf("replies_sent = %d, want 50", got)
	}
}

func TestCollector_StartStopWithoutRedis(t *testing.T) {
	c := NewCollector("accident-relay", nil)
	c.SetReportInterval(5 * time.Millisecond)

	c.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestCollector_SetReportIntervalIgnoresNonPositive(t *testing.T) {
	c := NewCollector("accident-relay", nil)
	c.SetReportInterval(0)
	if c.reportInterval != DefaultReportInterval {
		t.Errorf("reportInterval = %v, want %v", c.reportInterval, DefaultReportInterval)
	}
}
