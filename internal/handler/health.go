package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	DB *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *HealthHandler { return &HealthHandler{DB: db} }

// Health is used by load balancers and monitoring systems.  It answers 200
// "ok" when the database responds to a ping within two seconds and 503
// otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "database": "unreachable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
