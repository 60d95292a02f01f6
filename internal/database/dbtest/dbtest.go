// Package dbtest provides in-memory SQLite databases with the application
// schema applied, plus small fixture helpers for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/olympic-ticketing/internal/database"
)

var seq atomic.Uint64

// Open returns a fresh migrated in-memory database that is closed when the
// test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000", name, seq.Add(1))
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// User inserts an active client and returns its id.
func User(t testing.TB, db *sqlx.DB, email, first, last string) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO users (email, first_name, last_name, password_hash, role, account_key) VALUES (?, ?, ?, 'x', 'client', 'k')`,
		email, first, last)
}

// Sport inserts a sport and returns its id.
func Sport(t testing.TB, db *sqlx.DB, slug, name, venue string) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO sports (slug, name, image_url, description, venue, competition_dates) VALUES (?, ?, '', '', ?, '')`,
		slug, name, venue)
}

// Event inserts an event and returns its id.
func Event(t testing.TB, db *sqlx.DB, sportID uint64, name string, startsAt time.Time, seats int) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO events (sport_id, name, starts_at, available_seats) VALUES (?, ?, ?, ?)`,
		sportID, name, startsAt.UTC(), seats)
}

// Offer inserts an offer and returns its id.
func Offer(t testing.TB, db *sqlx.DB, name, price string, capacity int) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO offers (name, price, capacity_per_unit) VALUES (?, ?, ?)`,
		name, decimal.RequireFromString(price), capacity)
}

// CartItem inserts a cart row directly, bypassing capacity checks.
func CartItem(t testing.TB, db *sqlx.DB, userID, eventID, offerID uint64, qty int) uint64 {
	t.Helper()
	return insert(t, db,
		`INSERT INTO cart_items (user_id, event_id, offer_id, quantity) VALUES (?, ?, ?, ?)`,
		userID, eventID, offerID, qty)
}

// Seats returns the current available_seats of an event.
func Seats(t testing.TB, db *sqlx.DB, eventID uint64) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT available_seats FROM events WHERE id = ?`, eventID))
	return n
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func insert(t testing.TB, db *sqlx.DB, q string, args ...interface{}) uint64 {
	t.Helper()
	res, err := db.Exec(q, args...)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}
