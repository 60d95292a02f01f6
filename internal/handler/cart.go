package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olympic-ticketing/internal/service"
)

// CartHandler serves the /api/panier routes.  Every route is behind
// JWTAuth and SameUser("user_id"), so the path user is the caller.
type CartHandler struct {
	Carts    *service.CartService
	Checkout *service.CheckoutService
}

func NewCartHandler(carts *service.CartService, checkout *service.CheckoutService) *CartHandler {
	return &CartHandler{Carts: carts, Checkout: checkout}
}

// addItemReq accepts both the English field names and the French ones
// used by the existing front end.
type addItemReq struct {
	EventID      uint64 `json:"event_id"`
	EpreuveID    uint64 `json:"epreuve_id"`
	OfferID      uint64 `json:"offer_id"`
	Quantity     int    `json:"quantity"`
	NombrePlaces int    `json:"nombre_places"`
}

func (r addItemReq) event() uint64 {
	if r.EventID != 0 {
		return r.EventID
	}
	return r.EpreuveID
}

func (r addItemReq) qty() int {
	if r.Quantity != 0 {
		return r.Quantity
	}
	return r.NombrePlaces
}

// List handles GET /api/panier/user/:user_id.
func (h *CartHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	view, err := h.Carts.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Add handles POST /api/panier/user/:user_id.
func (h *CartHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.event() == 0 || req.OfferID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and offer_id are required"})
	}
	res, err := h.Carts.Add(c.Request().Context(), userID, req.event(), req.OfferID, req.qty())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Remove handles DELETE /api/panier/user/:user_id/item/:item_id.
func (h *CartHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	if err := h.Carts.Remove(c.Request().Context(), userID, itemID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Validate handles POST /api/panier/user/:user_id/valider and its alias
// POST /api/tickets/acheter/:user_id.
func (h *CartHandler) Validate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.Checkout.Checkout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}
