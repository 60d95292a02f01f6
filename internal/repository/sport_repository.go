package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/olympic-ticketing/internal/model"
)

const sportColumns = `id, slug, name, image_url, description, venue, competition_dates, history`

// SportRepo reads sports and their events.  The catalog is reference
// data; there is no write path.
type SportRepo struct {
	db *sqlx.DB
}

// NewSportRepo returns a SportRepo bound to the given database.
func NewSportRepo(db *sqlx.DB) *SportRepo { return &SportRepo{db: db} }

// List returns every sport ordered by name.  It returns an empty slice
// when the catalog is empty.
func (r *SportRepo) List(ctx context.Context) ([]model.Sport, error) {
	sports := []model.Sport{}
	err := r.db.SelectContext(ctx, &sports, `SELECT `+sportColumns+` FROM sports ORDER BY name`)
	return sports, err
}

// GetBySlug returns the sport with the given slug or ErrNotFound.
func (r *SportRepo) GetBySlug(ctx context.Context, slug string) (*model.Sport, error) {
	var s model.Sport
	err := r.db.GetContext(ctx, &s, `SELECT `+sportColumns+` FROM sports WHERE slug = ? LIMIT 1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns the sport with the given id or ErrNotFound.
func (r *SportRepo) GetByID(ctx context.Context, id uint64) (*model.Sport, error) {
	var s model.Sport
	err := r.db.GetContext(ctx, &s, `SELECT `+sportColumns+` FROM sports WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListEvents returns the events of a sport ordered by start time.
func (r *SportRepo) ListEvents(ctx context.Context, sportID uint64) ([]model.Event, error) {
	events := []model.Event{}
	err := r.db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM events WHERE sport_id = ? ORDER BY starts_at, id`, sportID)
	return events, err
}
