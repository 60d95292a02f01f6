package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/olympic-ticketing/internal/logger"
)

// Publisher sends purchase events to RabbitMQ.  Each publish dials its own
// connection, which keeps the publisher stateless at the cost of a
// round-trip; checkout volume is low enough for that.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// PublishTicketsPurchased publishes ev to the tickets.purchased queue.
// Errors are logged and returned so the caller can choose to ignore them.
// Messages are persistent and carry the request correlation id.
func (p *Publisher) PublishTicketsPurchased(ctx context.Context, ev TicketsPurchasedEvent) error {
	if err := p.publish(ctx, ev); err != nil {
		logger.Warnf(ctx, "rabbitmq: publish %s failed: %v", TicketsPurchasedQueue, err)
		return err
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, ev TicketsPurchasedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(TicketsPurchasedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: logger.CorrelationIDFrom(ctx),
		Timestamp:     time.Now().UTC(),
		Body:          body,
	}
	return ch.PublishWithContext(ctx, "", TicketsPurchasedQueue, false, false, pub)
}
