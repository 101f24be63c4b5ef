// Package kafka publishes price-change events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// Ensure Publisher implements the interface.
var _ driven.PriceEventPublisher = (*Publisher)(nil)

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per price change, keyed by product ID so
// changes to the same product stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewPublisher creates a publisher for the configured brokers and topic.
func NewPublisher(settings domain.KafkaSettings) (*Publisher, error) {
	if len(settings.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers are required", domain.ErrInvalidInput)
	}
	if settings.Topic == "" {
		return nil, fmt.Errorf("%w: kafka topic is required", domain.ErrInvalidInput)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(settings.Brokers...),
		Topic:                  settings.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: writer, topic: settings.Topic}, nil
}

// PublishPriceChange sends one event.
func (p *Publisher) PublishPriceChange(ctx context.Context, event domain.PriceChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal price change: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ProductID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "vendor_id", Value: []byte(event.VendorID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	logger.Debug("kafka: published price change for %s at %s", event.ProductID, event.VendorID)
	return nil
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
