package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/olympic-ticketing/internal/logger"
)

// Consumer listens to the tickets.purchased queue and appends one line per
// event to a purchase log file.
type Consumer struct {
	url     string
	logPath string
}

// NewConsumer returns a Consumer reading from the broker at url and
// writing to logPath (created along with its directory when missing).
func NewConsumer(url, logPath string) *Consumer {
	return &Consumer{url: url, logPath: logPath}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s; a message
// that cannot be handled is rejected without requeue so it cannot spin.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			logger.Warnf(ctx, "purchase-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf(ctx, "purchase-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warnf(ctx, "purchase-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(TicketsPurchasedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(TicketsPurchasedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			mctx := logger.WithCorrelationID(ctx, d.CorrelationId)
			if err := c.handleMessage(d.Body); err != nil {
				logger.Errorf(mctx, "purchase-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev TicketsPurchasedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if dir := filepath.Dir(c.logPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev TicketsPurchasedEvent) string {
	parts := make([]string, 0, len(ev.Tickets))
	seats := 0
	for _, t := range ev.Tickets {
		parts = append(parts, fmt.Sprintf("%d:%q x%d", t.TicketID, t.Event, t.Seats))
		seats += t.Seats
	}
	return fmt.Sprintf("[%s] Tickets purchased | user_id=%d | tickets=%d | seats=%d | total=%s EUR | items=[%s]\n",
		ev.PurchasedAt.UTC().Format(time.RFC3339), ev.UserID, len(ev.Tickets), seats,
		ev.Total.StringFixed(2), strings.Join(parts, ", "))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
