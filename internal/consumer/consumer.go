// Package consumer provides the Kafka consumer for the device telemetry topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	kafkautil "github.com/afikmenashe/accident-relay/pkg/kafka"
	"github.com/segmentio/kafka-go"
)

// Consumer owns the broker connection for the telemetry topic. The underlying reader
// reconnects to the group coordinator on its own when the connection drops.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a consumer-group reader for the given topic.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	readerCfg := kafkautil.NewReaderConfig(brokerList, topic, groupID)
	reader := kafka.NewReader(readerCfg)
	kafkautil.LogReaderConfig(readerCfg)

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadMessage fetches the next raw telemetry message without committing it.
// Payload decoding belongs to the pipeline so that malformed messages can be logged,
// dropped and committed like any other terminal outcome.
func (c *Consumer) ReadMessage(ctx context.Context) (*kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}
	return &msg, nil
}

// CommitMessage commits the offset for the given message.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Topic returns the subscribed topic.
func (c *Consumer) Topic() string {
	return c.topic
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}
