package model

import "github.com/shopspring/decimal"

// Offer is a purchasable ticket tier such as Solo, Duo or Famille.  One
// unit of an offer admits CapacityPerUnit persons, so buying Quantity
// units consumes Quantity*CapacityPerUnit seats of an event.
type Offer struct {
	ID              uint64          `db:"id" json:"id"`                               // offers.id
	Name            string          `db:"name" json:"name"`                           // offers.name
	Description     *string         `db:"description" json:"description,omitempty"`   // offers.description (nullable)
	Price           decimal.Decimal `db:"price" json:"price"`                         // offers.price
	CapacityPerUnit int             `db:"capacity_per_unit" json:"capacity_per_unit"` // offers.capacity_per_unit
}
