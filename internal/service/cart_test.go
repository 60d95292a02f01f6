package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/olympic-ticketing/internal/database/dbtest"
)

func TestCartAddAndList(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "100m finale", 10)
	svc := w.cart()

	res, err := svc.Add(ctx, w.user, ev, w.duo, 2)
	require.NoError(t, err)
	assert.NotZero(t, res.ItemID)
	assert.Equal(t, 4, res.Seats)
	assert.True(t, res.LineTotal.Equal(decimal.NewFromInt(180)))

	_, err = svc.Add(ctx, w.user, ev, w.solo, 1)
	require.NoError(t, err)

	view, err := svc.List(ctx, w.user)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Duo", view.Items[0].OfferName)
	assert.Equal(t, "Athlétisme", view.Items[0].SportName)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(230)))

	// Adding reserves nothing.
	assert.Equal(t, 10, dbtest.Seats(t, w.db, ev))
}

func TestCartListEmpty(t *testing.T) {
	w := newWorld(t)
	view, err := w.cart().List(context.Background(), w.user)
	require.NoError(t, err)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestCartAddValidation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "100m finale", 5)
	svc := w.cart()

	_, err := svc.Add(ctx, w.user, ev, w.solo, 0)
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.Add(ctx, w.user, ev+100, w.solo, 1)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "event", nf.Entity)

	_, err = svc.Add(ctx, w.user, ev, w.solo+100, 1)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "offer", nf.Entity)

	_, err = svc.Add(ctx, w.user, ev, w.famille, 2)
	var capErr *InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, ev, capErr.EventID)
	assert.Equal(t, 8, capErr.Requested)
	assert.Equal(t, 5, capErr.Available)

	assert.Equal(t, 0, dbtest.Count(t, w.db, "cart_items"))
}

func TestCartAddRejectsOverflowingQuantity(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "100m finale", 5)
	svc := w.cart()

	for _, offer := range []uint64{w.famille, w.duo} {
		_, err := svc.Add(ctx, w.user, ev, offer, 1<<62)
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "quantity", invalid.Field)
	}
	assert.Equal(t, 0, dbtest.Count(t, w.db, "cart_items"))
	assert.Equal(t, 5, dbtest.Seats(t, w.db, ev))
}

func TestCartRemove(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	ev := w.event(t, "100m finale", 5)
	other := dbtest.User(t, w.db, "paul@example.com", "Paul", "Langevin")
	svc := w.cart()

	res, err := svc.Add(ctx, w.user, ev, w.solo, 1)
	require.NoError(t, err)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.Remove(ctx, other, res.ItemID), &nf, "someone else's item")
	require.NoError(t, svc.Remove(ctx, w.user, res.ItemID))
	assert.ErrorAs(t, svc.Remove(ctx, w.user, res.ItemID), &nf, "already removed")
}
