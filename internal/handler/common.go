package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olympic-ticketing/internal/logger"
	"github.com/iliyamo/olympic-ticketing/internal/middleware"
	"github.com/iliyamo/olympic-ticketing/internal/service"
)

// getUserID returns the authenticated user id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("invalid user_id in context")
	}
	return id, nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// writeError translates a service error into the JSON error response.
// Storage failures are logged with their cause and reported opaquely.
func writeError(c echo.Context, err error) error {
	var (
		nf      *service.NotFoundError
		capErr  *service.InsufficientCapacityError
		invalid *service.InvalidInputError
	)
	switch {
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error(), "entity": nf.Entity, "id": nf.ID})
	case errors.As(err, &capErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     capErr.Error(),
			"event_id":  capErr.EventID,
			"requested": capErr.Requested,
			"available": capErr.Available,
		})
	case errors.As(err, &invalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": invalid.Error(), "field": invalid.Field})
	case errors.Is(err, service.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	case errors.Is(err, service.ErrCartChanged):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cart changed during checkout, please retry"})
	case errors.Is(err, service.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	logger.Errorf(c.Request().Context(), "%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
