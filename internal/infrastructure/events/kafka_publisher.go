// Package events ships business events to the audit stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DefaultPublishTimeout bounds one Publish call, retries included.
const DefaultPublishTimeout = 2 * time.Second

// KafkaPublisher implements domain.EventPublisher on a Kafka topic. Events
// are keyed by user id so one member's history stays ordered.
type KafkaPublisher struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
	log     *zap.Logger
}

// NewKafkaPublisher creates a synchronous producer for topic.
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	log.Info("kafka publisher initialized", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return NewKafkaPublisherWithWriter(writer, topic, log)
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter, topic string, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, topic: topic, timeout: DefaultPublishTimeout, log: log.Named("events")}
}

// WithTimeout replaces the per-event write deadline.
func (p *KafkaPublisher) WithTimeout(d time.Duration) *KafkaPublisher {
	p.timeout = d
	return p
}

// Publish implements domain.EventPublisher
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	p.log.Debug("event published", zap.String("type", string(event.Type)), zap.Int("value_size", len(value)))
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		p.log.Error("failed to close kafka publisher", zap.Error(err))
		return err
	}
	p.log.Info("kafka publisher closed")
	return nil
}

// LogPublisher writes events to the log. Used when no brokers are configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogPublisher{log: log.Named("events")}
}

func (p *LogPublisher) Publish(ctx context.Context, event *domain.Event) error {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.Uint("user_id", event.UserID),
		zap.Bool("success", event.Success),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}
	if event.ErrorMsg != "" {
		fields = append(fields, zap.String("error", event.ErrorMsg))
	}
	p.log.Info("event", fields...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// New picks a Kafka publisher when brokers are configured.
func New(brokers []string, topic string, log *zap.Logger) domain.EventPublisher {
	if len(brokers) == 0 {
		return NewLogPublisher(log)
	}
	return NewKafkaPublisher(brokers, topic, log)
}

var (
	_ domain.EventPublisher = (*KafkaPublisher)(nil)
	_ domain.EventPublisher = (*LogPublisher)(nil)
)
