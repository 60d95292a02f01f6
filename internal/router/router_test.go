package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/olympic-ticketing/internal/config"
	"github.com/iliyamo/olympic-ticketing/internal/database/dbtest"
	"github.com/iliyamo/olympic-ticketing/internal/handler"
	"github.com/iliyamo/olympic-ticketing/internal/render"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
	"github.com/iliyamo/olympic-ticketing/internal/service"
)

const secret = "router-test"

type api struct {
	t     *testing.T
	e     *echo.Echo
	db    *sqlx.DB
	event uint64
	duo   uint64
}

func newAPI(t *testing.T, rl config.RateLimitConfig) *api {
	t.Helper()
	db := dbtest.Open(t)
	sport := dbtest.Sport(t, db, "athletisme", "Athlétisme", "Stade de France")
	ev := dbtest.Event(t, db, sport, "100m finale", time.Date(2024, 8, 4, 19, 50, 0, 0, time.UTC), 5)
	dbtest.Offer(t, db, "Solo", "50.00", 1)
	duo := dbtest.Offer(t, db, "Duo", "90.00", 2)

	users := repository.NewUserRepo(db)
	sports := repository.NewSportRepo(db)
	events := repository.NewEventRepo(db)
	offers := repository.NewOfferRepo(db)
	carts := repository.NewCartRepo(db)
	tickets := repository.NewTicketRepo(db)
	identity := service.NewIdentityService(users, repository.NewTokenRepo(db), service.JWTCredentials{
		Secret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4,
	})

	e := echo.New()
	Register(e, Handlers{
		Health:  handler.NewHealthHandler(db),
		Auth:    handler.NewAuthHandler(identity, secret),
		Catalog: handler.NewCatalogHandler(service.NewCatalogService(sports, offers)),
		Cart: handler.NewCartHandler(service.NewCartService(events, offers, carts),
			service.NewCheckoutService(db, events, offers, carts, tickets, nil)),
		Ticket: handler.NewTicketHandler(service.NewTicketService(tickets, events, sports, offers, users, render.NewPDFRenderer())),
	}, Deps{JWTSecret: secret, Cache: config.CacheConfig{Enabled: true}, RateLimit: rl})
	return &api{t: t, e: e, db: db, event: ev, duo: duo}
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type session struct {
	User struct {
		ID uint64 `json:"id"`
	} `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

func (a *api) register(email string) session {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": email, "first_name": "Marie", "last_name": "Curie", "password": "correct horse",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var s session
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

var noLimit = config.RateLimitConfig{}

func TestHealthAndCatalog(t *testing.T) {
	a := newAPI(t, noLimit)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", nil).Code)

	rec := a.do(http.MethodGet, "/api/sports", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sports []map[string]interface{}
	decode(t, rec, &sports)
	require.Len(t, sports, 1)
	assert.Equal(t, "athletisme", sports[0]["slug"])

	rec = a.do(http.MethodGet, "/api/sports/athletisme", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Events []struct {
			ID             uint64 `json:"id"`
			AvailableSeats int    `json:"available_seats"`
		} `json:"events"`
	}
	decode(t, rec, &detail)
	require.Len(t, detail.Events, 1)
	assert.Equal(t, 5, detail.Events[0].AvailableSeats)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/sports/curling", "", nil).Code)

	rec = a.do(http.MethodGet, "/api/offers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offers []struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	}
	decode(t, rec, &offers)
	require.Len(t, offers, 2)
	assert.Equal(t, "Solo", offers[0].Name)
	assert.True(t, offers[0].Price.Equal(decimal.NewFromInt(50)))
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t, noLimit)
	s := a.register("marie@example.com")

	dup := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": "MARIE@example.com", "first_name": "M", "last_name": "C", "password": "correct horse",
	})
	assert.Equal(t, http.StatusConflict, dup.Code)

	bad := a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "marie@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	ok := a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "marie@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusOK, ok.Code)

	me := a.do(http.MethodGet, "/api/auth/me", s.Access.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"email":"marie@example.com"`)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/auth/me", "", nil).Code)

	rec := a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refresh_token": s.Refresh.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	var rotated session
	decode(t, rec, &rotated)
	assert.NotEqual(t, s.Refresh.Token, rotated.Refresh.Token)
	// the presented token is single use
	assert.Equal(t, http.StatusUnauthorized,
		a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refresh_token": s.Refresh.Token}).Code)

	assert.Equal(t, http.StatusNoContent,
		a.do(http.MethodPost, "/api/auth/logout", "", echo.Map{"refresh_token": rotated.Refresh.Token}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refresh_token": rotated.Refresh.Token}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/auth/logout", "", nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodPost, "/api/auth/logout", s.Access.Token, nil).Code)
}

func TestCartCheckoutAndDownload(t *testing.T) {
	a := newAPI(t, noLimit)
	s := a.register("marie@example.com")
	uid, tok := s.User.ID, s.Access.Token
	panier := fmt.Sprintf("/api/panier/user/%d", uid)

	rec := a.do(http.MethodPost, panier, tok, echo.Map{"epreuve_id": a.event, "offer_id": a.duo, "nombre_places": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added struct {
		ItemID uint64 `json:"item_id"`
		Seats  int    `json:"seats"`
	}
	decode(t, rec, &added)
	assert.Equal(t, 2, added.Seats)

	// 2 Duo need 4 seats while 5 remain; 3 Duo need 6
	rec = a.do(http.MethodPost, panier, tok, echo.Map{"event_id": a.event, "offer_id": a.duo, "quantity": 3})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var capBody struct {
		Requested int `json:"requested"`
		Available int `json:"available"`
	}
	decode(t, rec, &capBody)
	assert.Equal(t, 6, capBody.Requested)
	assert.Equal(t, 5, capBody.Available)

	rec = a.do(http.MethodGet, panier, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Items []struct {
			ID uint64 `json:"id"`
		} `json:"items"`
		Total decimal.Decimal `json:"total"`
	}
	decode(t, rec, &view)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(90)), view.Total.String())

	other := a.register("pierre@example.com")
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, panier, other.Access.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, panier, "", nil).Code)

	rec = a.do(http.MethodPost, fmt.Sprintf("/api/tickets/acheter/%d", uid), tok, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Count   int `json:"count"`
		Tickets []struct {
			TicketID    uint64 `json:"ticket_id"`
			PurchaseKey string `json:"purchase_key"`
		} `json:"tickets"`
	}
	decode(t, rec, &result)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, 3, dbtest.Seats(t, a.db, a.event))

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, panier+"/valider", tok, nil).Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/api/tickets/user/%d", uid), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	pdfPath := fmt.Sprintf("/api/tickets/%d/download-pdf", result.Tickets[0].TicketID)
	rec = a.do(http.MethodGet, pdfPath, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition),
		"billet_paris2024_"+result.Tickets[0].PurchaseKey+".pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, pdfPath, other.Access.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/tickets/999/download-pdf", tok, nil).Code)
}

func TestRemoveCartItem(t *testing.T) {
	a := newAPI(t, noLimit)
	s := a.register("marie@example.com")
	panier := fmt.Sprintf("/api/panier/user/%d", s.User.ID)

	rec := a.do(http.MethodPost, panier, s.Access.Token, echo.Map{"event_id": a.event, "offer_id": a.duo, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	var added struct {
		ItemID uint64 `json:"item_id"`
	}
	decode(t, rec, &added)

	item := fmt.Sprintf("%s/item/%d", panier, added.ItemID)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, item, s.Access.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, item, s.Access.Token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodDelete, panier+"/item/abc", s.Access.Token, nil).Code)
}

func TestAuthRateLimited(t *testing.T) {
	a := newAPI(t, config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute, TTL: 10 * time.Minute,
		KeyStrategy: "ip_route", Prefix: "test",
	})
	body := echo.Map{"email": "ghost@example.com", "password": "whatever1"}
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/auth/login", "", body).Code)
	rec := a.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
