package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/olympic-ticketing/internal/model"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
)

// CartService manages pending selections.  Adding to the cart checks
// capacity against the current seat count but reserves nothing; the seats
// are only taken at checkout.
type CartService struct {
	events *repository.EventRepo
	offers *repository.OfferRepo
	carts  *repository.CartRepo
	now    func() time.Time
}

func NewCartService(events *repository.EventRepo, offers *repository.OfferRepo, carts *repository.CartRepo) *CartService {
	return &CartService{events: events, offers: offers, carts: carts, now: time.Now}
}

// AddResult is returned by Add.
type AddResult struct {
	ItemID    uint64          `json:"item_id"`
	Seats     int             `json:"seats"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Add puts qty units of offerID for eventID in the user's cart.
func (s *CartService) Add(ctx context.Context, userID, eventID, offerID uint64, qty int) (*AddResult, error) {
	if qty < 1 {
		return nil, &InvalidInputError{Field: "quantity", Reason: "must be at least 1"}
	}
	event, err := s.events.GetByID(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("event", eventID)
	}
	if err != nil {
		return nil, storage("load event", err)
	}
	offer, err := s.offers.GetByID(ctx, offerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("offer", offerID)
	}
	if err != nil {
		return nil, storage("load offer", err)
	}
	if limit := MaxQuantity(*offer); qty > limit {
		return nil, &InvalidInputError{Field: "quantity", Reason: fmt.Sprintf("must be at most %d", limit)}
	}
	if !CanReserve(*event, *offer, qty) {
		return nil, &InsufficientCapacityError{
			EventID:   event.ID,
			EventName: event.Name,
			Requested: SeatsNeeded(*offer, qty),
			Available: event.AvailableSeats,
		}
	}

	item := &model.CartItem{
		UserID:    userID,
		EventID:   eventID,
		OfferID:   offerID,
		Quantity:  qty,
		CreatedAt: s.now().UTC(),
	}
	if err := s.carts.Create(ctx, item); err != nil {
		return nil, storage("insert cart item", err)
	}
	return &AddResult{
		ItemID:    item.ID,
		Seats:     SeatsNeeded(*offer, qty),
		LineTotal: offer.Price.Mul(decimal.NewFromInt(int64(qty))),
	}, nil
}

// CartView is a user's cart with its grand total.
type CartView struct {
	Items []model.CartLine `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

// List returns the user's cart, oldest item first.  Items is never nil.
func (s *CartService) List(ctx context.Context, userID uint64) (*CartView, error) {
	lines, err := s.carts.ListLines(ctx, userID)
	if err != nil {
		return nil, storage("list cart", err)
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return &CartView{Items: lines, Total: total}, nil
}

// Remove deletes one of the user's items.  An item owned by someone else
// is reported as not found.
func (s *CartService) Remove(ctx context.Context, userID, itemID uint64) error {
	err := s.carts.DeleteForUser(ctx, itemID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("cart item", itemID)
	}
	if err != nil {
		return storage("delete cart item", err)
	}
	return nil
}
