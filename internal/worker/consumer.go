package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDeliveriesClosed is returned by Run when the broker side went away.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

type Source interface {
	Deliveries() <-chan amqp.Delivery
}

type Handler interface {
	Handle(ctx context.Context, msg Message)
}

type Consumer struct {
	source  Source
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(source Source, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{source: source, handler: handler, logger: logger}, nil
}

// Run handles deliveries one at a time until ctx is cancelled. A job that is
// already running when ctx is cancelled is finished first.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries := c.source.Deliveries()
	c.logger.Info("waiting for messages")
	for {
		if ctx.Err() != nil {
			c.logger.Info("consumer stopping")
			return nil
		}
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handler.Handle(context.WithoutCancel(ctx), toMessage(d))
		}
	}
}

func toMessage(d amqp.Delivery) Message {
	id := d.MessageId
	if id == "" {
		id = uuid.NewString()
	}
	return Message{
		ID:   id,
		Body: d.Body,
		Ack:  func() error { return d.Ack(false) },
	}
}
