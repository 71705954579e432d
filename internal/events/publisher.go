package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	kafkax "github.com/ariefcatur/go-collection-lists/internal/kafka"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var eventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "list_events_published_total",
		Help: "Publish attempts of list events by type, queue and result",
	},
	[]string{"type", "queue", "result"},
)

// Sender is one queue. *kafka.Producer satisfies it.
type Sender interface {
	Topic() string
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// QueuePublisher implements lists.Publisher on top of two senders: one for
// list events and one for payment requests. A nil updates sender means no
// queue is configured and nothing is sent.
type QueuePublisher struct {
	updates  Sender
	payments Sender
	producer string
	clock    clock.Clock
	logger   *zap.Logger
}

func NewQueuePublisher(updates, payments Sender, producer string, clk clock.Clock, logger *zap.Logger) *QueuePublisher {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuePublisher{updates: updates, payments: payments, producer: producer, clock: clk, logger: logger}
}

var _ lists.Publisher = (*QueuePublisher)(nil)

// Publish sends ev and, for a completed list, a payment request. The two
// sends are independent. Failures are logged at warn and never returned.
func (p *QueuePublisher) Publish(ctx context.Context, ev lists.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("publish panicked", zap.String("type", string(ev.Type)), zap.Any("panic", r))
		}
	}()

	if p.updates == nil {
		p.logger.Info("queue connection not configured, skipping publish",
			zap.String("type", string(ev.Type)), zap.String("list_id", ev.ListID))
		return
	}

	p.stamp(&ev)
	p.send(ctx, p.updates, ev)

	if ev.Type != lists.EventListCompleted {
		return
	}
	if p.payments == nil {
		p.logger.Info("payment queue not configured, skipping payment request", zap.String("list_id", ev.ListID))
		return
	}
	req := PaymentRequest(ev)
	p.stamp(&req)
	p.send(ctx, p.payments, req)
}

func (p *QueuePublisher) stamp(ev *lists.Event) {
	ev.EventID = uuid.NewString()
	ev.OccurredAt = p.clock.Now()
	ev.Producer = p.producer
}

func (p *QueuePublisher) send(ctx context.Context, s Sender, ev lists.Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		eventsPublished.WithLabelValues(string(ev.Type), s.Topic(), "marshal_error").Inc()
		p.logger.Warn("encode event failed", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	headers := kafkax.EventHeaders(string(ev.Type), lists.EventVersion)
	if err := s.Publish(ctx, lists.PartitionKey(ev.ListID), value, headers...); err != nil {
		eventsPublished.WithLabelValues(string(ev.Type), s.Topic(), "error").Inc()
		p.logger.Warn("publish event failed",
			zap.String("queue", s.Topic()),
			zap.String("type", string(ev.Type)),
			zap.String("list_id", ev.ListID),
			zap.String("event", Redact(ev)),
			zap.Error(err),
		)
		return
	}
	eventsPublished.WithLabelValues(string(ev.Type), s.Topic(), "ok").Inc()
	p.logger.Debug("event published",
		zap.String("queue", s.Topic()),
		zap.String("type", string(ev.Type)),
		zap.String("event", Redact(ev)),
	)
}

// PaymentRequest derives the payment-queue message from a list-completed event.
func PaymentRequest(ev lists.Event) lists.Event {
	return lists.Event{
		Type:        lists.EventPaymentRequested,
		ListID:      ev.ListID,
		ShopID:      ev.ShopID,
		Title:       ev.Title,
		CompletedAt: ev.CompletedAt,
		CompletedBy: ev.CompletedBy,
		Items:       ev.Items,
	}
}

const redacted = "[redacted]"

// Redact renders ev for logs with the employee identity masked.
func Redact(ev lists.Event) string {
	if ev.CompletedBy != nil {
		masked := redacted
		ev.CompletedBy = &masked
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Sprintf("<unencodable %s event>", ev.Type)
	}
	return string(b)
}
