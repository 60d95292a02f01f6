package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/olympic-ticketing/internal/logger"
	"github.com/iliyamo/olympic-ticketing/internal/model"
	"github.com/iliyamo/olympic-ticketing/internal/queue"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
)

// maxKeyAttempts bounds retries after a purchase key collision.
const maxKeyAttempts = 3

// PurchasePublisher receives a notification after each committed checkout.
type PurchasePublisher interface {
	PublishTicketsPurchased(ctx context.Context, ev queue.TicketsPurchasedEvent) error
}

// CheckoutService turns a user's cart into tickets.
//
// A checkout is all or nothing: every item is validated, its seats are
// taken from the event counter, a ticket is written and the item is
// removed, all in one transaction.  The seat decrement is a conditional
// update, so concurrent checkouts can never drive a counter below zero
// whatever the isolation level.
type CheckoutService struct {
	db        *sqlx.DB
	events    *repository.EventRepo
	offers    *repository.OfferRepo
	carts     *repository.CartRepo
	tickets   *repository.TicketRepo
	publisher PurchasePublisher
	newKey    KeySource
	now       func() time.Time
}

// NewCheckoutService wires the checkout engine.  publisher may be nil.
func NewCheckoutService(db *sqlx.DB, events *repository.EventRepo, offers *repository.OfferRepo,
	carts *repository.CartRepo, tickets *repository.TicketRepo, publisher PurchasePublisher) *CheckoutService {
	return &CheckoutService{
		db:        db,
		events:    events,
		offers:    offers,
		carts:     carts,
		tickets:   tickets,
		publisher: publisher,
		newKey:    NewPurchaseKey,
		now:       time.Now,
	}
}

// PurchasedTicket summarizes one ticket created by a checkout.
type PurchasedTicket struct {
	TicketID    uint64          `json:"ticket_id"`
	EventID     uint64          `json:"event_id"`
	Event       string          `json:"event"`
	Seats       int             `json:"seats"`
	Price       decimal.Decimal `json:"price"`
	PurchaseKey string          `json:"purchase_key"`
}

// CheckoutResult is returned by a successful checkout.
type CheckoutResult struct {
	Count   int               `json:"count"`
	Tickets []PurchasedTicket `json:"tickets"`
	Total   decimal.Decimal   `json:"total"`
}

// Checkout converts every item of the user's cart into a ticket.  On any
// error nothing is persisted: no ticket, no seat decrement, no cart
// deletion.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint64) (*CheckoutResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storage("begin checkout", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	items, err := s.carts.ListByUserTx(ctx, tx, userID)
	if err != nil {
		return nil, storage("load cart", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	purchasedAt := s.now().UTC().Truncate(time.Second)
	res := &CheckoutResult{Tickets: make([]PurchasedTicket, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		pt, err := s.purchaseItem(ctx, tx, item, purchasedAt)
		if err != nil {
			return nil, err
		}
		res.Tickets = append(res.Tickets, *pt)
		res.Total = res.Total.Add(pt.Price)
	}

	if err := tx.Commit(); err != nil {
		return nil, storage("commit checkout", err)
	}
	committed = true
	res.Count = len(res.Tickets)

	logger.Infof(ctx, "checkout: user %d bought %d ticket(s) for %s", userID, res.Count, res.Total.StringFixed(2))
	s.announce(ctx, userID, res, purchasedAt)
	return res, nil
}

// purchaseItem performs the per-item steps of a checkout inside tx.
func (s *CheckoutService) purchaseItem(ctx context.Context, tx *sqlx.Tx, item model.CartItem, at time.Time) (*PurchasedTicket, error) {
	event, err := s.events.GetByIDTx(ctx, tx, item.EventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("event", item.EventID)
	}
	if err != nil {
		return nil, storage("load event", err)
	}
	offer, err := s.offers.GetByIDTx(ctx, tx, item.OfferID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("offer", item.OfferID)
	}
	if err != nil {
		return nil, storage("load offer", err)
	}

	seats := SeatsNeeded(*offer, item.Quantity)
	if !CanReserve(*event, *offer, item.Quantity) {
		return nil, capacityError(event, seats, event.AvailableSeats)
	}
	ok, err := s.events.ReserveSeatsTx(ctx, tx, event.ID, seats)
	if err != nil {
		return nil, storage("reserve seats", err)
	}
	if !ok {
		// Lost a race since the read above; report the current figure.
		available := 0
		if cur, err := s.events.GetByIDTx(ctx, tx, event.ID); err == nil {
			available = cur.AvailableSeats
		}
		return nil, capacityError(event, seats, available)
	}

	ticket := &model.Ticket{
		UserID:      item.UserID,
		OfferID:     offer.ID,
		TotalPrice:  offer.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		Quantity:    item.Quantity,
		PurchasedAt: at,
	}
	if err := s.insertTicket(ctx, tx, ticket, event, seats); err != nil {
		return nil, err
	}
	link := model.TicketEvent{TicketID: ticket.ID, EventID: event.ID, Seats: seats}
	if err := s.tickets.LinkEventTx(ctx, tx, link); err != nil {
		return nil, storage("link ticket event", err)
	}

	err = s.carts.DeleteForUserTx(ctx, tx, item.ID, item.UserID)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrCartChanged
	}
	if err != nil {
		return nil, storage("delete cart item", err)
	}

	return &PurchasedTicket{
		TicketID:    ticket.ID,
		EventID:     event.ID,
		Event:       event.Name,
		Seats:       seats,
		Price:       ticket.TotalPrice,
		PurchaseKey: ticket.PurchaseKey,
	}, nil
}

// insertTicket draws a purchase key, freezes the QR payload and writes the
// ticket, drawing again on a key collision.
func (s *CheckoutService) insertTicket(ctx context.Context, tx *sqlx.Tx, t *model.Ticket, event *model.Event, seats int) error {
	for attempt := 1; ; attempt++ {
		key, err := s.newKey()
		if err != nil {
			return storage("generate purchase key", err)
		}
		payload, err := QRPayload{
			Version:     QRPayloadVersion,
			PurchaseKey: key,
			UserID:      t.UserID,
			EventID:     event.ID,
			Event:       event.Name,
			Date:        event.StartsAt.UTC(),
			Seats:       seats,
			PurchasedAt: t.PurchasedAt,
		}.Encode()
		if err != nil {
			return storage("encode qr payload", err)
		}
		t.PurchaseKey = key
		t.QRPayload = payload

		err = s.tickets.CreateTx(ctx, tx, t)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < maxKeyAttempts {
			logger.Warnf(ctx, "checkout: purchase key collision, retrying")
			continue
		}
		return storage("insert ticket", fmt.Errorf("attempt %d: %w", attempt, err))
	}
}

// announce publishes the purchase event.  It runs after commit, so a
// broker failure is logged and never changes the checkout outcome.
func (s *CheckoutService) announce(ctx context.Context, userID uint64, res *CheckoutResult, at time.Time) {
	if s.publisher == nil {
		return
	}
	ev := queue.TicketsPurchasedEvent{
		UserID:      userID,
		Tickets:     make([]queue.PurchasedTicket, 0, len(res.Tickets)),
		Total:       res.Total,
		PurchasedAt: at,
	}
	for _, t := range res.Tickets {
		ev.Tickets = append(ev.Tickets, queue.PurchasedTicket{
			TicketID:   t.TicketID,
			EventID:    t.EventID,
			Event:      t.Event,
			Seats:      t.Seats,
			TotalPrice: t.Price,
		})
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishTicketsPurchased(pctx, ev); err != nil {
		logger.Warnf(ctx, "checkout: purchase event for user %d not published: %v", userID, err)
	}
}

func capacityError(event *model.Event, requested, available int) *InsufficientCapacityError {
	return &InsufficientCapacityError{
		EventID:   event.ID,
		EventName: event.Name,
		Requested: requested,
		Available: available,
	}
}
