// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Header keys carried on every message.
const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
	HeaderRequestID = "request_id"
)

// Message is one event ready for the wire.
type Message struct {
	EventID   string
	EventType string
	RequestID string
	Key       string
	Payload   []byte
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the publisher.
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// KafkaPublisher writes events to one topic per event type, keyed for per-aggregate ordering.
type KafkaPublisher struct {
	writer messageWriter
	prefix string
	logger *zap.Logger
}

// NewKafkaPublisher builds a publisher. Without brokers the publisher is disabled and Publish is a no-op.
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &KafkaPublisher{prefix: cfg.TopicPrefix, logger: logger}
	if len(cfg.Brokers) == 0 {
		logger.Warn("kafka publisher disabled (no brokers configured)")
		return p
	}
	p.writer = kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	})
	return p
}

func newKafkaPublisherWithWriter(w messageWriter, prefix string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, prefix: prefix, logger: zap.NewNop()}
}

// Enabled reports whether messages will actually be written.
func (p *KafkaPublisher) Enabled() bool {
	return p != nil && p.writer != nil
}

// Publish writes msg synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if !p.Enabled() {
		return nil
	}
	if msg.EventType == "" {
		return errors.New("event type required")
	}
	km := kafka.Message{
		Topic: Topic(p.prefix, msg.EventType),
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(msg.EventID)},
			{Key: HeaderEventType, Value: []byte(msg.EventType)},
		},
	}
	if msg.RequestID != "" {
		km.Headers = append(km.Headers, kafka.Header{Key: HeaderRequestID, Value: []byte(msg.RequestID)})
	}
	km.Headers = InjectTraceHeaders(ctx, km.Headers)
	if err := p.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("write %s: %w", km.Topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}

// Topic maps "appointment.created" with prefix "booking" to "booking.appointment.created.v1".
func Topic(prefix, eventType string) string {
	topic := eventType + ".v1"
	if prefix = strings.Trim(prefix, "."); prefix != "" {
		topic = prefix + "." + topic
	}
	return topic
}

// ReadyCheck dials the first broker.
func ReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// InjectTraceHeaders appends W3C trace context headers to Kafka headers.
func InjectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
