package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is the receipt of a purchase.  Tickets are created only by
// checkout and never modified afterwards.  QRPayload is computed once at
// purchase time and stored, so every read returns the same value.
type Ticket struct {
	ID          uint64          `db:"id" json:"id"`                     // tickets.id
	UserID      uint64          `db:"user_id" json:"user_id"`           // tickets.user_id
	OfferID     uint64          `db:"offer_id" json:"offer_id"`         // tickets.offer_id
	PurchaseKey string          `db:"purchase_key" json:"purchase_key"` // tickets.purchase_key
	QRPayload   string          `db:"qr_payload" json:"qr_payload"`     // tickets.qr_payload
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`   // tickets.total_price
	Quantity    int             `db:"quantity" json:"quantity"`         // tickets.quantity
	PurchasedAt time.Time       `db:"purchased_at" json:"purchased_at"` // tickets.purchased_at
}

// TicketEvent links a ticket to an event it grants access to, with the
// number of seats consumed on that event.  (ticket_id, event_id) is the
// primary key.
type TicketEvent struct {
	TicketID uint64 `db:"ticket_id" json:"ticket_id"` // ticket_events.ticket_id
	EventID  uint64 `db:"event_id" json:"event_id"`   // ticket_events.event_id
	Seats    int    `db:"seats" json:"seats"`         // ticket_events.seats
}

// TicketDetail is one row of a user's ticket list: a ticket joined with
// one of its linked events and the related sport and offer.
type TicketDetail struct {
	ID          uint64          `db:"id" json:"id"`
	EventID     uint64          `db:"event_id" json:"event_id"`
	EventName   string          `db:"event_name" json:"event_name"`
	SportName   *string         `db:"sport_name" json:"sport_name"` // nil when the sport row is gone
	Venue       *string         `db:"venue" json:"venue"`
	EventDate   time.Time       `db:"event_date" json:"event_date"`
	OfferID     uint64          `db:"offer_id" json:"offer_id"`
	OfferName   string          `db:"offer_name" json:"offer_name"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Seats       int             `db:"seats" json:"seats"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`
	PurchasedAt time.Time       `db:"purchased_at" json:"purchased_at"`
	PurchaseKey string          `db:"purchase_key" json:"purchase_key"`
	QRPayload   string          `db:"qr_payload" json:"qr_payload"`
}
