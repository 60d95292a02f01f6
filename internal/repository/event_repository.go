package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/olympic-ticketing/internal/model"
)

const eventColumns = `id, sport_id, name, starts_at, available_seats`

// EventRepo provides access to events and owns the seat counter
// arithmetic.  Seat counts are always read from the database; nothing
// here caches them.
type EventRepo struct {
	db *sqlx.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID returns the event with the given id or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	return getEvent(ctx, r.db, id)
}

// GetByIDTx is GetByID inside the caller's transaction, so the seat count
// it returns is the one the transaction will decrement.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Event, error) {
	return getEvent(ctx, tx, id)
}

func getEvent(ctx context.Context, q sqlx.QueryerContext, id uint64) (*model.Event, error) {
	var e model.Event
	err := sqlx.GetContext(ctx, q, &e, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ReserveSeatsTx atomically subtracts seats from an event's counter when,
// and only when, enough seats remain.  The check and the decrement are a
// single statement, so two transactions can never both take the last
// seats.  It returns false when the event has fewer than seats left (or
// no longer exists); the counter is then unchanged.  A count below one
// is an error: the statement may only ever lower the counter.
func (r *EventRepo) ReserveSeatsTx(ctx context.Context, tx *sqlx.Tx, eventID uint64, seats int) (bool, error) {
	if seats < 1 {
		return false, fmt.Errorf("reserve seats: invalid seat count %d", seats)
	}
	const q = `UPDATE events SET available_seats = available_seats - ? WHERE id = ? AND available_seats >= ?`
	res, err := tx.ExecContext(ctx, q, seats, eventID, seats)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
