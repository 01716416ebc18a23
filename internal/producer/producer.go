// Package producer publishes dropped telemetry to an operator-facing Kafka topic.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/accident-relay/internal/events"
	kafkautil "github.com/afikmenashe/accident-relay/pkg/kafka"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a Kafka writer for dropped-telemetry records.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a producer for the given topic.
func NewProducer(brokers string, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	return &Producer{
		writer: kafkautil.NewWriter(brokerList, topic),
		topic:  topic,
	}, nil
}

// PublishDropped publishes a dropped-telemetry record keyed by device id.
func (p *Producer) PublishDropped(ctx context.Context, dropped *events.TelemetryDropped) error {
	payload, err := json.Marshal(dropped)
	if err != nil {
		return fmt.Errorf("failed to marshal dropped telemetry: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(dropped.DeviceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(dropped.Reason)},
		},
		Time: time.Unix(dropped.DroppedAt, 0),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Debug("Published dropped telemetry",
		"topic", p.topic,
		"reason", dropped.Reason,
		"device_id", dropped.DeviceID,
	)
	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	slog.Info("Kafka producer closed successfully")
	return nil
}
