package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a pending selection of an offer for an event.  Items are
// ephemeral: they are deleted when removed by the user or when checkout
// turns them into tickets.
type CartItem struct {
	ID        uint64    `db:"id" json:"id"`                 // cart_items.id
	UserID    uint64    `db:"user_id" json:"user_id"`       // cart_items.user_id
	EventID   uint64    `db:"event_id" json:"event_id"`     // cart_items.event_id
	OfferID   uint64    `db:"offer_id" json:"offer_id"`     // cart_items.offer_id
	Quantity  int       `db:"quantity" json:"quantity"`     // cart_items.quantity
	CreatedAt time.Time `db:"created_at" json:"created_at"` // cart_items.created_at
}

// CartLine is a cart item enriched with display data from the catalog.
// EventDate is nil when the event no longer exists.
type CartLine struct {
	ID        uint64          `db:"id" json:"id"`
	EventID   uint64          `db:"event_id" json:"event_id"`
	OfferID   uint64          `db:"offer_id" json:"offer_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	EventName string          `db:"event_name" json:"event_name"`
	EventDate *time.Time      `db:"event_date" json:"event_date"`
	SportName string          `db:"sport_name" json:"sport_name"`
	OfferName string          `db:"offer_name" json:"offer_name"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	LineTotal decimal.Decimal `db:"-" json:"line_total"`
}
