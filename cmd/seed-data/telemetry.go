package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/accident-relay/internal/events"
)

// Bounding box around Bangkok for sample coordinates.
const (
	minLat, maxLat = 13.5, 14.0
	minLon, maxLon = 100.3, 100.9
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// telemetryGenerator produces device payloads in the wire format devices publish.
type telemetryGenerator struct {
	rng     *rand.Rand
	devices []string
}

func newTelemetryGenerator(devices []string, seed int64) *telemetryGenerator {
	return &telemetryGenerator{rng: rand.New(rand.NewSource(seed)), devices: devices}
}

func (g *telemetryGenerator) next() events.Telemetry {
	lat := events.Coordinate(minLat + g.rng.Float64()*(maxLat-minLat))
	lon := events.Coordinate(minLon + g.rng.Float64()*(maxLon-minLon))
	level := events.LevelLow
	if g.rng.Intn(4) == 0 {
		level = events.LevelHigh
	}
	return events.Telemetry{
		DeviceID:       g.devices[g.rng.Intn(len(g.devices))],
		Latitude:       &lat,
		Longitude:      &lon,
		LevelDetection: level.String(),
	}
}

// publishTelemetry writes count sample messages keyed by device id.
func publishTelemetry(ctx context.Context, w messageWriter, gen *telemetryGenerator, count int) error {
	msgs := make([]kafka.Message, 0, count)
	for i := 0; i < count; i++ {
		t := gen.next()
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal telemetry: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(t.DeviceID), Value: payload})
	}
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write telemetry: %w", err)
	}
	return nil
}
