package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/olympic-ticketing/internal/model"
)

const offerColumns = `id, name, description, price, capacity_per_unit`

// OfferRepo reads ticket offers.
type OfferRepo struct {
	db *sqlx.DB
}

func NewOfferRepo(db *sqlx.DB) *OfferRepo { return &OfferRepo{db: db} }

// List returns all offers, smallest party size first.
func (r *OfferRepo) List(ctx context.Context) ([]model.Offer, error) {
	offers := []model.Offer{}
	err := r.db.SelectContext(ctx, &offers, `SELECT `+offerColumns+` FROM offers ORDER BY capacity_per_unit, id`)
	return offers, err
}

// GetByID returns the offer with the given id or ErrNotFound.
func (r *OfferRepo) GetByID(ctx context.Context, id uint64) (*model.Offer, error) {
	return getOffer(ctx, r.db, id)
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *OfferRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uint64) (*model.Offer, error) {
	return getOffer(ctx, tx, id)
}

func getOffer(ctx context.Context, q sqlx.QueryerContext, id uint64) (*model.Offer, error) {
	var o model.Offer
	err := sqlx.GetContext(ctx, q, &o, `SELECT `+offerColumns+` FROM offers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
