// Package kafka publishes decision events to a Kafka topic so external
// systems (department dashboards, archival jobs) can consume review
// outcomes without polling the API.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/audit"
)

// DefaultTopic is the topic used when none is configured.
const DefaultTopic = "screener.decisions"

// Sink implements audit.Sink on a kafka-go writer.
type Sink struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka sink.
type Config struct {
	// Brokers is the list of broker addresses. Required.
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string
}

// NewSink creates a Kafka-backed decision event sink.
func NewSink(cfg Config, logger *zap.Logger) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	logger.Info("kafka audit sink initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic),
	)

	return &Sink{
		writer: writer,
		logger: logger,
	}, nil
}

// Publish writes the event as JSON, keyed by submission id so all events
// for one submission land in the same partition.
func (s *Sink) Publish(ctx context.Context, event audit.DecisionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding decision event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(event.Record.SubmissionID)),
		Value: value,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing decision event: %w", err)
	}

	s.logger.Debug("published decision event",
		zap.String("event_id", event.EventID),
		zap.Int("submission_id", event.Record.SubmissionID),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
