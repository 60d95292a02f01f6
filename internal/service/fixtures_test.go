package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/olympic-ticketing/internal/database/dbtest"
	"github.com/iliyamo/olympic-ticketing/internal/queue"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
)

var finalDay = time.Date(2024, 8, 4, 19, 50, 0, 0, time.UTC)

// world is a migrated database with one user, one sport and the three
// standard offers.
type world struct {
	db      *sqlx.DB
	user    uint64
	sport   uint64
	solo    uint64
	duo     uint64
	famille uint64

	events  *repository.EventRepo
	offers  *repository.OfferRepo
	carts   *repository.CartRepo
	tickets *repository.TicketRepo
	sports  *repository.SportRepo
	users   *repository.UserRepo
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := dbtest.Open(t)
	return &world{
		db:      db,
		user:    dbtest.User(t, db, "marie@example.com", "Marie", "Curie"),
		sport:   dbtest.Sport(t, db, "athletisme", "Athlétisme", "Stade de France"),
		solo:    dbtest.Offer(t, db, "Solo", "50.00", 1),
		duo:     dbtest.Offer(t, db, "Duo", "90.00", 2),
		famille: dbtest.Offer(t, db, "Famille", "150.00", 4),
		events:  repository.NewEventRepo(db),
		offers:  repository.NewOfferRepo(db),
		carts:   repository.NewCartRepo(db),
		tickets: repository.NewTicketRepo(db),
		sports:  repository.NewSportRepo(db),
		users:   repository.NewUserRepo(db),
	}
}

func (w *world) event(t *testing.T, name string, seats int) uint64 {
	t.Helper()
	return dbtest.Event(t, w.db, w.sport, name, finalDay, seats)
}

func (w *world) checkout(pub PurchasePublisher) *CheckoutService {
	return NewCheckoutService(w.db, w.events, w.offers, w.carts, w.tickets, pub)
}

func (w *world) cart() *CartService {
	return NewCartService(w.events, w.offers, w.carts)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishTicketsPurchased(ctx context.Context, ev queue.TicketsPurchasedEvent) error {
	return m.Called(ctx, ev).Error(0)
}
