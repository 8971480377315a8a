package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"tandem/internal/platform/kafka"
	dErrors "tandem/pkg/domain-errors"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
//
// Matching runs use the synchronous mode: a failed append must surface to the
// caller, since a silently dropped eval row would hide a missed notification.
// The async buffer exists for read-heavy surfaces that can tolerate loss.
type Publisher struct {
	store  Store
	events chan Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool

	producer   *kafka.Producer
	kafkaTopic string
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async and fan-out error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithKafkaSink additionally publishes every event to a Kafka topic for
// downstream consumers. Fan-out is best-effort: delivery failures are logged
// and do not fail the emit, the store remains the source of truth.
func WithKafkaSink(producer *kafka.Producer, topic string) PublisherOption {
	return func(p *Publisher) {
		p.producer = producer
		p.kafkaTopic = topic
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			if p.logger != nil {
				p.logger.Error("failed to persist audit event",
					"error", err,
					"action", event.Action,
					"report_id", event.ReportID,
				)
			}
		}
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.async {
		// Non-blocking send; drop event if buffer is full to avoid blocking hot path
		select {
		case p.events <- event:
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"action", event.Action,
					"report_id", event.ReportID,
				)
			}
		}
		p.fanOut(ctx, event)
		return nil
	}
	if err := p.store.Append(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "append audit event")
	}
	p.fanOut(ctx, event)
	return nil
}

func (p *Publisher) fanOut(ctx context.Context, event Event) {
	if p.producer == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("failed to encode audit event", "error", err)
		}
		return
	}
	msg := &kafka.Message{
		Topic: p.kafkaTopic,
		Key:   []byte(event.ReportID),
		Value: value,
	}
	if err := p.producer.Produce(ctx, msg); err != nil && p.logger != nil {
		p.logger.Warn("audit event fan-out failed",
			"error", err,
			"action", event.Action,
			"report_id", event.ReportID,
		)
	}
}

func (p *Publisher) ListByReport(ctx context.Context, reportID string) ([]Event, error) {
	return p.store.ListByReport(ctx, reportID)
}
