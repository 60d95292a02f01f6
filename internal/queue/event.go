// Package queue defines message payloads exchanged over the message broker
// together with the RabbitMQ publisher and consumer that carry them.
package queue

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketsPurchasedQueue is the durable queue checkout events are sent to.
const TicketsPurchasedQueue = "tickets.purchased"

// TicketsPurchasedEvent is published after a checkout commits.  It holds
// enough information for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type TicketsPurchasedEvent struct {
	UserID      uint64            `json:"user_id"`
	Tickets     []PurchasedTicket `json:"tickets"`
	Total       decimal.Decimal   `json:"total"`
	PurchasedAt time.Time         `json:"purchased_at"`
}

// PurchasedTicket is one ticket of a TicketsPurchasedEvent.
type PurchasedTicket struct {
	TicketID   uint64          `json:"ticket_id"`
	EventID    uint64          `json:"event_id"`
	Event      string          `json:"event"`
	Seats      int             `json:"seats"`
	TotalPrice decimal.Decimal `json:"total_price"`
}
