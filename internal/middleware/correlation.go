package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/olympic-ticketing/internal/logger"
)

// HeaderCorrelationID carries the request correlation id in both directions.
const HeaderCorrelationID = "Correlation-Id"

// CorrelationID reuses the caller's Correlation-Id header or generates one,
// stores it in the request context for the logger and echoes it back.
func CorrelationID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(HeaderCorrelationID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			c.SetRequest(req.WithContext(logger.WithCorrelationID(req.Context(), id)))
			c.Response().Header().Set(HeaderCorrelationID, id)
			return next(c)
		}
	}
}

// RequestLogger logs one line per request with status and latency.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			logger.Entry(req.Context()).WithFields(logrus.Fields{
				"method":  req.Method,
				"path":    req.URL.Path,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
				"ip":      c.RealIP(),
			}).Info("request")
			return nil
		}
	}
}
