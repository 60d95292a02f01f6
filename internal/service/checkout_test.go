package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/olympic-ticketing/internal/database/dbtest"
	"github.com/iliyamo/olympic-ticketing/internal/queue"
)

func TestCheckoutSoloExample(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	e1 := w.event(t, "E1", 5)
	dbtest.CartItem(t, w.db, w.user, e1, w.solo, 3)

	res, err := w.checkout(nil).Checkout(ctx, w.user)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Tickets, 1)
	assert.Equal(t, "E1", res.Tickets[0].Event)
	assert.Equal(t, 3, res.Tickets[0].Seats)
	assert.True(t, res.Tickets[0].Price.Equal(decimal.NewFromInt(150)))
	assert.True(t, res.Total.Equal(decimal.NewFromInt(150)))

	assert.Equal(t, 2, dbtest.Seats(t, w.db, e1))
	assert.Equal(t, 0, dbtest.Count(t, w.db, "cart_items"))
	assert.Equal(t, 1, dbtest.Count(t, w.db, "tickets"))

	links, err := w.tickets.ListEvents(ctx, res.Tickets[0].TicketID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 3, links[0].Seats)
}

func TestCheckoutInsufficientCapacity(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	e1 := w.event(t, "E1", 5)
	dbtest.CartItem(t, w.db, w.user, e1, w.solo, 10)

	_, err := w.checkout(nil).Checkout(ctx, w.user)
	var capErr *InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, e1, capErr.EventID)
	assert.Equal(t, 10, capErr.Requested)
	assert.Equal(t, 5, capErr.Available)

	assert.Equal(t, 5, dbtest.Seats(t, w.db, e1))
	assert.Equal(t, 1, dbtest.Count(t, w.db, "cart_items"))
	assert.Equal(t, 0, dbtest.Count(t, w.db, "tickets"))
}

func TestCheckoutRejectsOverflowingQuantity(t *testing.T) {
	tests := []struct {
		name  string
		offer func(w *world) uint64
	}{
		{"seat product wraps to zero", func(w *world) uint64 { return w.famille }},
		{"seat product wraps negative", func(w *world) uint64 { return w.duo }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			e1 := w.event(t, "E1", 5)
			dbtest.CartItem(t, w.db, w.user, e1, tt.offer(w), 1<<62)

			_, err := w.checkout(nil).Checkout(context.Background(), w.user)
			var capErr *InsufficientCapacityError
			require.ErrorAs(t, err, &capErr)
			assert.Equal(t, 5, capErr.Available)
			assert.Greater(t, capErr.Requested, 5)

			assert.Equal(t, 5, dbtest.Seats(t, w.db, e1))
			assert.Equal(t, 0, dbtest.Count(t, w.db, "tickets"))
			assert.Equal(t, 1, dbtest.Count(t, w.db, "cart_items"))
		})
	}
}

func TestCheckoutReportsSeatsLostAfterRead(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	e1 := w.event(t, "E1", 5)
	keep := w.event(t, "E2", 5)
	dbtest.CartItem(t, w.db, w.user, keep, w.solo, 1)
	dbtest.CartItem(t, w.db, w.user, e1, w.solo, 2)

	// The row read inside the transaction says 5 seats, but the guarded
	// decrement on E1 changes nothing, as if another buyer got there first.
	_, err := w.db.Exec(`CREATE TRIGGER e1_sold_elsewhere BEFORE UPDATE OF available_seats ON events
		WHEN OLD.name = 'E1' BEGIN SELECT RAISE(IGNORE); END`)
	require.NoError(t, err)

	_, err = w.checkout(nil).Checkout(ctx, w.user)
	var capErr *InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, e1, capErr.EventID)
	assert.Equal(t, 2, capErr.Requested)

	assert.Equal(t, 5, dbtest.Seats(t, w.db, keep), "earlier item rolled back")
	assert.Equal(t, 0, dbtest.Count(t, w.db, "tickets"))
	assert.Equal(t, 0, dbtest.Count(t, w.db, "ticket_events"))
	assert.Equal(t, 2, dbtest.Count(t, w.db, "cart_items"))
}

func TestCheckoutIsAllOrNothing(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	open := w.event(t, "Demi-finale", 10)
	full := w.event(t, "Finale", 3)
	dbtest.CartItem(t, w.db, w.user, open, w.duo, 2)
	dbtest.CartItem(t, w.db, w.user, full, w.famille, 1)

	_, err := w.checkout(nil).Checkout(ctx, w.user)
	var capErr *InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, full, capErr.EventID)
	assert.Equal(t, 4, capErr.Requested)

	assert.Equal(t, 10, dbtest.Seats(t, w.db, open), "first item's decrement rolled back")
	assert.Equal(t, 3, dbtest.Seats(t, w.db, full))
	assert.Equal(t, 2, dbtest.Count(t, w.db, "cart_items"))
	assert.Equal(t, 0, dbtest.Count(t, w.db, "tickets"))
	assert.Equal(t, 0, dbtest.Count(t, w.db, "ticket_events"))
}

func TestCheckoutMissingOfferRollsBack(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 10)
	dbtest.CartItem(t, w.db, w.user, ev, w.solo, 1)
	dbtest.CartItem(t, w.db, w.user, ev, w.famille+50, 1)

	_, err := w.checkout(nil).Checkout(ctx, w.user)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "offer", nf.Entity)
	assert.Equal(t, 10, dbtest.Seats(t, w.db, ev))
	assert.Equal(t, 0, dbtest.Count(t, w.db, "tickets"))
}

func TestCheckoutEmptyCart(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 10)
	svc := w.checkout(nil)

	_, err := svc.Checkout(ctx, w.user)
	assert.ErrorIs(t, err, ErrEmptyCart)

	dbtest.CartItem(t, w.db, w.user, ev, w.solo, 1)
	_, err = svc.Checkout(ctx, w.user)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, w.user)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 9, dbtest.Seats(t, w.db, ev))
}

func TestCheckoutOnlyTouchesOwnCart(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 10)
	other := dbtest.User(t, w.db, "paul@example.com", "Paul", "Langevin")
	dbtest.CartItem(t, w.db, w.user, ev, w.solo, 1)
	dbtest.CartItem(t, w.db, other, ev, w.solo, 2)

	_, err := w.checkout(nil).Checkout(ctx, w.user)
	require.NoError(t, err)

	view, err := w.cart().List(ctx, other)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 5)

	const buyers = 8
	users := make([]uint64, buyers)
	for i := range users {
		users[i] = dbtest.User(t, w.db, "buyer"+string(rune('a'+i))+"@example.com", "B", "Uyer")
		dbtest.CartItem(t, w.db, users[i], ev, w.solo, 5)
	}
	svc := w.checkout(nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		capacity  int
	)
	for _, uid := range users {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := svc.Checkout(ctx, uid)
			var capErr *InsufficientCapacityError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.As(err, &capErr):
				capacity++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uid)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, buyers-1, capacity)
	assert.Equal(t, 0, dbtest.Seats(t, w.db, ev))
	assert.Equal(t, 1, dbtest.Count(t, w.db, "tickets"))
}

func TestCheckoutQRPayloadIsStable(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 10)
	dbtest.CartItem(t, w.db, w.user, ev, w.duo, 1)

	svc := w.checkout(nil)
	fixed := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	res, err := svc.Checkout(ctx, w.user)
	require.NoError(t, err)

	first, err := w.tickets.ListDetails(ctx, w.user)
	require.NoError(t, err)
	second, err := w.tickets.ListDetails(ctx, w.user)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, first[0].QRPayload, second[0].QRPayload)

	p, err := DecodeQRPayload(first[0].QRPayload)
	require.NoError(t, err)
	assert.Equal(t, QRPayloadVersion, p.Version)
	assert.Equal(t, res.Tickets[0].PurchaseKey, p.PurchaseKey)
	assert.Equal(t, w.user, p.UserID)
	assert.Equal(t, ev, p.EventID)
	assert.Equal(t, "Finale", p.Event)
	assert.Equal(t, 2, p.Seats)
	assert.True(t, p.Date.Equal(finalDay))
	assert.True(t, p.PurchasedAt.Equal(fixed))
}

func TestCheckoutRetriesOnKeyCollision(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 10)
	dbtest.CartItem(t, w.db, w.user, ev, w.solo, 1)
	dbtest.CartItem(t, w.db, w.user, ev, w.solo, 1)

	keys := []string{"same-key", "same-key", "other-key"}
	svc := w.checkout(nil)
	svc.newKey = func() (string, error) {
		k := keys[0]
		keys = keys[1:]
		return k, nil
	}
	res, err := svc.Checkout(ctx, w.user)
	require.NoError(t, err)
	require.Len(t, res.Tickets, 2)
	assert.Equal(t, "same-key", res.Tickets[0].PurchaseKey)
	assert.Equal(t, "other-key", res.Tickets[1].PurchaseKey)
}

func TestCheckoutPublishesPurchaseEvent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 10)
	dbtest.CartItem(t, w.db, w.user, ev, w.famille, 1)

	pub := new(mockPublisher)
	pub.On("PublishTicketsPurchased", mock.Anything, mock.MatchedBy(func(e queue.TicketsPurchasedEvent) bool {
		return e.UserID == w.user && len(e.Tickets) == 1 &&
			e.Tickets[0].Seats == 4 && e.Total.Equal(decimal.NewFromInt(150))
	})).Return(nil).Once()

	_, err := w.checkout(pub).Checkout(ctx, w.user)
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestCheckoutIgnoresPublisherFailure(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 10)
	dbtest.CartItem(t, w.db, w.user, ev, w.solo, 1)

	pub := new(mockPublisher)
	pub.On("PublishTicketsPurchased", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	res, err := w.checkout(pub).Checkout(ctx, w.user)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 9, dbtest.Seats(t, w.db, ev))
}

func TestCheckoutDoesNotPublishOnFailure(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "Finale", 1)
	dbtest.CartItem(t, w.db, w.user, ev, w.duo, 1)

	pub := new(mockPublisher)
	_, err := w.checkout(pub).Checkout(ctx, w.user)
	require.Error(t, err)
	pub.AssertNotCalled(t, "PublishTicketsPurchased", mock.Anything, mock.Anything)
}
