package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olympic-ticketing/internal/middleware"
	"github.com/iliyamo/olympic-ticketing/internal/service"
)

// TicketHandler serves ticket listing and document download.
type TicketHandler struct {
	Tickets *service.TicketService
}

func NewTicketHandler(s *service.TicketService) *TicketHandler { return &TicketHandler{Tickets: s} }

// List handles GET /api/tickets/user/:user_id.
func (h *TicketHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Tickets.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Download handles GET /api/tickets/:id/download-pdf.
func (h *TicketHandler) Download(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	doc, err := h.Tickets.Download(c.Request().Context(), ticketID,
		service.Viewer{UserID: userID, Role: middleware.Role(c)})
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	return c.Blob(http.StatusOK, doc.ContentType, doc.Content)
}
