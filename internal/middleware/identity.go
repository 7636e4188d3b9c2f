package middleware

// identity.go holds helpers shared across middleware files.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's ID for rate-limit
// keys.  JWTAuth stores the raw "sub" claim, which the jwt library
// decodes as float64 for numeric subjects.  Unauthenticated requests
// share the "anon" bucket.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
