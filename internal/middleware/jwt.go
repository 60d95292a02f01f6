package middleware // middleware holds the echo middleware shared by all route groups

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olympic-ticketing/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id" // uint64
	CtxRole   = "role"    // string
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers
// read the authenticated user with UserID(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
