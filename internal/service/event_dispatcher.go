package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/pkg/events"
	"github.com/noah-isme/booking-api/pkg/jobs"
	"github.com/noah-isme/booking-api/pkg/middleware/requestid"
)

// EventHandler consumes an appointment event. Errors trigger the queue's retry policy.
type EventHandler func(ctx context.Context, event models.AppointmentEvent) error

// EventDispatcherConfig sizes the delivery worker pool.
type EventDispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

type delivery struct {
	subscriber string
	event      models.AppointmentEvent
	span       trace.SpanContext
}

// EventDispatcher hands committed appointment events to subscribers in the background.
// Publish never blocks the booking path: a saturated buffer drops the delivery.
type EventDispatcher struct {
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger

	mu          sync.RWMutex
	subscribers map[string]EventHandler
	order       []string
}

// NewEventDispatcher constructs the dispatcher and its queue.
func NewEventDispatcher(cfg EventDispatcherConfig, metrics *MetricsService, logger *zap.Logger) *EventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &EventDispatcher{metrics: metrics, logger: logger, subscribers: make(map[string]EventHandler)}
	d.queue = jobs.NewQueue("appointment-events", d.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Subscribe registers a named handler. Registering a name twice replaces the handler.
func (d *EventDispatcher) Subscribe(name string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[name]; !ok {
		d.order = append(d.order, name)
	}
	d.subscribers[name] = handler
}

// Start launches the delivery workers.
func (d *EventDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop waits for in-flight deliveries to finish.
func (d *EventDispatcher) Stop() {
	d.queue.Stop()
}

// Publish enqueues one delivery per subscriber.
func (d *EventDispatcher) Publish(ctx context.Context, event models.AppointmentEvent) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestid.FromContext(ctx)
	}
	span := trace.SpanContextFromContext(ctx)

	d.mu.RLock()
	names := append([]string(nil), d.order...)
	d.mu.RUnlock()

	for _, name := range names {
		err := d.queue.TryEnqueue(jobs.Job{
			ID:      event.ID + ":" + name,
			Type:    string(event.Type),
			Payload: delivery{subscriber: name, event: event, span: span},
		})
		if err == nil {
			continue
		}
		d.metrics.RecordEvent(string(event.Type), OutcomeDropped)
		level := d.logger.Warn
		if !errors.Is(err, jobs.ErrQueueFull) {
			level = d.logger.Error
		}
		level("appointment event dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("subscriber", name),
			zap.String("appointment_id", event.Appointment.ID),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}

func (d *EventDispatcher) deliver(ctx context.Context, job jobs.Job) error {
	item, ok := job.Payload.(delivery)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	d.mu.RLock()
	handler, ok := d.subscribers[item.subscriber]
	d.mu.RUnlock()
	if !ok {
		return nil
	}

	if item.span.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, item.span)
	}
	if err := handler(ctx, item.event); err != nil {
		d.metrics.RecordEvent(string(item.event.Type), OutcomeError)
		return fmt.Errorf("%s: %w", item.subscriber, err)
	}
	d.metrics.RecordEvent(string(item.event.Type), OutcomeSuccess)
	return nil
}

type eventPublisher interface {
	Publish(ctx context.Context, msg events.Message) error
}

// KafkaEventHandler forwards events to the broker keyed by appointment id.
// The cancel token never leaves the service.
func KafkaEventHandler(publisher eventPublisher) EventHandler {
	return func(ctx context.Context, event models.AppointmentEvent) error {
		event.Appointment.CancelToken = ""
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		return publisher.Publish(ctx, events.Message{
			EventID:   event.ID,
			EventType: string(event.Type),
			RequestID: event.RequestID,
			Key:       event.Appointment.ID,
			Payload:   payload,
		})
	}
}
