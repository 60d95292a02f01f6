package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated role stored by JWTAuth, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// SameUser rejects requests whose :param path segment names a different
// user than the bearer token.  It must run after JWTAuth.
func SameUser(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			pathID, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || pathID == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + param})
			}
			uid, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
			}
			if uid != pathID {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// rateIdentity is the user component of rate limit keys.
func rateIdentity(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
