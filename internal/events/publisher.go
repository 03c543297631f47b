package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	source string
	writer MessageWriter
	now    func() time.Time
}

// publishBatchTimeout bounds how long a write waits for more messages.
// Events are published one at a time on the request path.
const publishBatchTimeout = 10 * time.Millisecond

func NewPublisher(source string, brokers ...string) *Publisher {
	return NewPublisherWithWriter(source, newWriter(brokers...))
}

func newWriter(brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  CatalogTopic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           publishBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewPublisherWithWriter(source string, w MessageWriter) *Publisher {
	return &Publisher{source: source, writer: w, now: time.Now}
}

// Publish stamps ev with this instance and the current time and writes it
// keyed by product ID, so changes to one product stay ordered.
func (p *Publisher) Publish(ctx context.Context, ev CatalogEvent) error {
	ev.Source = p.source
	if ev.At.IsZero() {
		ev.At = p.now().UTC()
	}
	if err := ev.validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal catalog event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Product.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write catalog event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Nop discards events. It stands in when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, CatalogEvent) error { return nil }

func (Nop) Close() error { return nil }
