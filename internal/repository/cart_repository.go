package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/olympic-ticketing/internal/model"
)

// CartRepo stores per-user cart items.
type CartRepo struct {
	db *sqlx.DB
}

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Create inserts a cart item and fills in its generated id.
func (r *CartRepo) Create(ctx context.Context, item *model.CartItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, event_id, offer_id, quantity, created_at) VALUES (?, ?, ?, ?, ?)`,
		item.UserID, item.EventID, item.OfferID, item.Quantity, item.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = uint64(id)
	return nil
}

// ListLines returns the user's cart items joined with event, sport and
// offer display data, oldest first.  Items whose event or offer has
// disappeared are still listed with blank display fields and a zero price.
func (r *CartRepo) ListLines(ctx context.Context, userID uint64) ([]model.CartLine, error) {
	const q = `
SELECT ci.id, ci.event_id, ci.offer_id, ci.quantity,
	   COALESCE(e.name, '')  AS event_name,
	   e.starts_at           AS event_date,
	   COALESCE(s.name, '')  AS sport_name,
	   COALESCE(o.name, '')  AS offer_name,
	   COALESCE(o.price, 0)  AS unit_price
  FROM cart_items ci
  LEFT JOIN events e ON e.id = ci.event_id
  LEFT JOIN sports s ON s.id = e.sport_id
  LEFT JOIN offers o ON o.id = ci.offer_id
 WHERE ci.user_id = ?
 ORDER BY ci.id`
	lines := []model.CartLine{}
	if err := r.db.SelectContext(ctx, &lines, q, userID); err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].LineTotal = lines[i].UnitPrice.Mul(decimalInt(lines[i].Quantity))
	}
	return lines, nil
}

// ListByUserTx returns the raw cart items of a user inside tx.  Checkout
// reads the cart through this so that it sees exactly the rows it will
// later delete.
func (r *CartRepo) ListByUserTx(ctx context.Context, tx *sqlx.Tx, userID uint64) ([]model.CartItem, error) {
	items := []model.CartItem{}
	err := tx.SelectContext(ctx, &items,
		`SELECT id, user_id, event_id, offer_id, quantity, created_at FROM cart_items WHERE user_id = ? ORDER BY id`,
		userID)
	return items, err
}

// DeleteForUser removes one cart item, but only when it belongs to
// userID.  It returns ErrNotFound otherwise, so callers cannot tell a
// missing item from someone else's.
func (r *CartRepo) DeleteForUser(ctx context.Context, itemID, userID uint64) error {
	n, err := deleteCartItem(ctx, r.db, itemID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForUserTx is DeleteForUser inside tx.  A missing row here means
// a concurrent request already consumed the item, so it reports
// ErrConflict instead of ErrNotFound.
func (r *CartRepo) DeleteForUserTx(ctx context.Context, tx *sqlx.Tx, itemID, userID uint64) error {
	n, err := deleteCartItem(ctx, tx, itemID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func deleteCartItem(ctx context.Context, e sqlx.ExecerContext, itemID, userID uint64) (int64, error) {
	res, err := e.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
