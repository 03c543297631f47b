package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the poller needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Applier receives catalog changes published by other instances.
type Applier interface {
	ApplyEvent(ctx context.Context, ev CatalogEvent) error
}

type Poller struct {
	source     string
	reader     MessageReader
	applier    Applier
	log        *slog.Logger
	retryDelay time.Duration
}

// NewPoller reads the catalog topic under groupID. Every instance should use
// its own group so each one sees every event.
func NewPoller(source, groupID string, applier Applier, log *slog.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    CatalogTopic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewPollerWithReader(source, reader, applier, log)
}

func NewPollerWithReader(source string, reader MessageReader, applier Applier, log *slog.Logger) *Poller {
	return &Poller{
		source:     source,
		reader:     reader,
		applier:    applier,
		log:        log.With("component", "catalog_poller"),
		retryDelay: time.Second,
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.WarnContext(ctx, "error reading catalog event", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.retryDelay):
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", "error", err)
	}
}

// pollOnce handles one message. Only read failures are returned; a bad
// message is logged and skipped.
func (p *Poller) pollOnce(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	ev, err := decode(m.Value)
	if err != nil {
		p.log.WarnContext(ctx, "skipping catalog event", "offset", m.Offset, "error", err)
		return nil
	}
	if ev.Source == p.source {
		return nil
	}

	if err := p.applier.ApplyEvent(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		p.log.ErrorContext(ctx, "failed to apply catalog event",
			"type", ev.Type, "product_id", ev.Product.ID, "error", err)
	}
	return nil
}
