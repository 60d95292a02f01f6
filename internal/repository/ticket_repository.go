package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/olympic-ticketing/internal/model"
)

// TicketRepo persists tickets and their event links.  Tickets are written
// only inside the checkout transaction and are immutable afterwards.
type TicketRepo struct {
	db *sqlx.DB
}

func NewTicketRepo(db *sqlx.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts t inside tx and fills in its id.  A purchase key that
// collides with an existing one yields ErrDuplicate.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, t *model.Ticket) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tickets (user_id, offer_id, purchase_key, qr_payload, total_price, quantity, purchased_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.OfferID, t.PurchaseKey, t.QRPayload, t.TotalPrice, t.Quantity, t.PurchasedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// LinkEventTx records that ticket te.TicketID consumes te.Seats seats of
// event te.EventID.
func (r *TicketRepo) LinkEventTx(ctx context.Context, tx *sqlx.Tx, te model.TicketEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ticket_events (ticket_id, event_id, seats) VALUES (?, ?, ?)`,
		te.TicketID, te.EventID, te.Seats)
	return err
}

// GetByID returns a ticket or ErrNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.GetContext(ctx, &t,
		`SELECT id, user_id, offer_id, purchase_key, qr_payload, total_price, quantity, purchased_at
		   FROM tickets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListEvents returns the event links of a ticket in event id order.
func (r *TicketRepo) ListEvents(ctx context.Context, ticketID uint64) ([]model.TicketEvent, error) {
	links := []model.TicketEvent{}
	err := r.db.SelectContext(ctx, &links,
		`SELECT ticket_id, event_id, seats FROM ticket_events WHERE ticket_id = ? ORDER BY event_id`, ticketID)
	return links, err
}

// ListDetails returns one row per (ticket, linked event) owned by userID,
// newest purchase first.  Tickets whose offer or event rows are gone are
// skipped; a missing sport only leaves SportName and Venue nil.
func (r *TicketRepo) ListDetails(ctx context.Context, userID uint64) ([]model.TicketDetail, error) {
	const q = `
SELECT t.id, te.event_id, e.name AS event_name, s.name AS sport_name, s.venue,
	   e.starts_at AS event_date, t.offer_id, o.name AS offer_name, o.price AS unit_price,
	   t.quantity, te.seats, t.total_price, t.purchased_at, t.purchase_key, t.qr_payload
  FROM tickets t
  JOIN ticket_events te ON te.ticket_id = t.id
  JOIN events e         ON e.id = te.event_id
  LEFT JOIN sports s ON s.id = e.sport_id
  JOIN offers o         ON o.id = t.offer_id
 WHERE t.user_id = ?
 ORDER BY t.purchased_at DESC, t.id DESC, te.event_id`
	details := []model.TicketDetail{}
	err := r.db.SelectContext(ctx, &details, q, userID)
	return details, err
}

func decimalInt(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }
