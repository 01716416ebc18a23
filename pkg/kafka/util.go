// Package kafka provides the broker helpers shared by the telemetry consumer and the
// dropped-telemetry producer.
package kafka

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// MaxPollWait bounds how long a fetch waits for new telemetry.
	MaxPollWait = 500 * time.Millisecond
	// WriteTimeout is the maximum time to wait for a Kafka write operation.
	WriteTimeout = 10 * time.Second
	// MaxMessageBytes caps a single fetch. Device payloads are a few hundred bytes.
	MaxMessageBytes = 1e6
)

// ParseBrokers parses a comma-separated broker list and trims whitespace.
// Empty entries are dropped.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	parts := strings.Split(brokers, ",")
	brokerList := make([]string, 0, len(parts))
	for _, b := range parts {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	return brokerList
}

// ValidateConsumerParams validates common consumer parameters.
func ValidateConsumerParams(brokers, topic, groupID string) error {
	if len(ParseBrokers(brokers)) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return fmt.Errorf("groupID cannot be empty")
	}
	return nil
}

// ValidateProducerParams validates common producer parameters.
func ValidateProducerParams(brokers, topic string) error {
	if len(ParseBrokers(brokers)) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	return nil
}

// NewReaderConfig creates the reader configuration used for telemetry consumption.
// Offsets are committed explicitly after each message is handled (CommitInterval 0),
// which gives at-least-once delivery to the handler.
func NewReaderConfig(brokers []string, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       MaxMessageBytes,
		MaxWait:        MaxPollWait,
		CommitInterval: 0,
		StartOffset:    kafka.LastOffset,
	}
}

// LogReaderConfig logs the reader configuration values.
func LogReaderConfig(cfg kafka.ReaderConfig) {
	slog.Info("Kafka consumer configured",
		"min_bytes", cfg.MinBytes,
		"max_bytes", cfg.MaxBytes,
		"max_wait", cfg.MaxWait.String(),
		"start_offset", startOffsetName(cfg.StartOffset),
	)
}

func startOffsetName(offset int64) string {
	switch offset {
	case kafka.FirstOffset:
		return "first"
	case kafka.LastOffset:
		return "last"
	default:
		return fmt.Sprintf("%d", offset)
	}
}

// NewWriter creates a synchronous, key-hashed writer for the given topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}
