package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	UserIDHeader = "x-user-id"
	UserIDKey    = "user_id"
)

// Identity stores the caller named by the x-user-id header in the context.
// Requests without the header continue anonymously.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := strings.TrimSpace(c.Request().Header.Get(UserIDHeader)); id != "" {
				c.Set(UserIDKey, id)
			}
			return next(c)
		}
	}
}

// GetUserID returns the caller id from context, or "" when anonymous
func GetUserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

// UserIDOr returns the caller id, or fallback when anonymous
func UserIDOr(c echo.Context, fallback string) string {
	if id := GetUserID(c); id != "" {
		return id
	}
	return fallback
}
