package service

import (
	"math"

	"github.com/iliyamo/olympic-ticketing/internal/model"
)

// MaxQuantity is the largest quantity of offer a single cart item may hold.
// It keeps the seat count of any item representable in a 32-bit column.
func MaxQuantity(offer model.Offer) int {
	if offer.CapacityPerUnit < 1 {
		return 0
	}
	return math.MaxInt32 / offer.CapacityPerUnit
}

// SeatsNeeded is the number of event seats consumed by qty units of offer.
// The product saturates at math.MaxInt instead of wrapping.
func SeatsNeeded(offer model.Offer, qty int) int {
	if qty <= 0 || offer.CapacityPerUnit <= 0 {
		return 0
	}
	if qty > math.MaxInt/offer.CapacityPerUnit {
		return math.MaxInt
	}
	return qty * offer.CapacityPerUnit
}

// CanReserve reports whether event still has room for qty units of offer.
// Cart additions and checkout both decide with this rule; checkout
// additionally enforces it atomically in the database.  The comparison is
// made by division so no quantity can overflow into a small seat count.
func CanReserve(event model.Event, offer model.Offer, qty int) bool {
	if qty < 1 || offer.CapacityPerUnit < 1 || event.AvailableSeats < 1 {
		return false
	}
	return qty <= event.AvailableSeats/offer.CapacityPerUnit
}
