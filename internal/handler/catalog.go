package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olympic-ticketing/internal/service"
)

// CatalogHandler exposes the public sport and offer catalog.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

func NewCatalogHandler(s *service.CatalogService) *CatalogHandler { return &CatalogHandler{Catalog: s} }

// ListSports handles GET /api/sports.
func (h *CatalogHandler) ListSports(c echo.Context) error {
	sports, err := h.Catalog.ListSports(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sports)
}

// GetSport handles GET /api/sports/:slug.  The response includes events
// with their live seat counts and is never cached.
func (h *CatalogHandler) GetSport(c echo.Context) error {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug is required"})
	}
	detail, err := h.Catalog.SportBySlug(c.Request().Context(), slug)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// ListOffers handles GET /api/offers.
func (h *CatalogHandler) ListOffers(c echo.Context) error {
	offers, err := h.Catalog.ListOffers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, offers)
}
