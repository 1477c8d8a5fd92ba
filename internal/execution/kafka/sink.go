// Package kafka publishes orders to a Kafka topic for an external executor.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"regime-allocator/internal/execution"
	"regime-allocator/internal/observability"
)

// Writer is the subset of *kafka.Writer used by Sink.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config configures the underlying writer.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	MaxAttempts  int
}

// Sink implements execution.Sink. One message per order, keyed by strategy
// ID so that a strategy's orders stay on one partition in order.
type Sink struct {
	writer Writer
	now    func() time.Time
}

// NewSink creates a Sink backed by a synchronous kafka.Writer.
func NewSink(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	return NewSinkWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
	}), nil
}

// NewSinkWithWriter wraps an existing writer.
func NewSinkWithWriter(w Writer) *Sink {
	return &Sink{writer: w, now: time.Now}
}

// Submit publishes order as JSON. Orders without instructions are not sent.
func (s *Sink) Submit(ctx context.Context, order *execution.Order) error {
	if len(order.Instructions) == 0 {
		return nil
	}

	value, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.StrategyID),
		Value: value,
		Time:  s.now(),
		Headers: []kafka.Header{
			{Key: "decision_id", Value: []byte(order.DecisionID)},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		observability.RecordExecutionError("kafka")
		return fmt.Errorf("publish order %s: %w", order.DecisionID, err)
	}
	return nil
}

// Close closes the writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}

var _ execution.Sink = (*Sink)(nil)
