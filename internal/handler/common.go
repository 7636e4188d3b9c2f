package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/repository"
)

// getUserID extracts the authenticated user's ID from the Echo
// context.  JWTAuth stores the raw `sub` claim, which the jwt library
// decodes as float64 for numeric subjects; string subjects are parsed
// as a fallback.  An error means the request was not authenticated.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return id, nil
		}
	case uint64:
		if v > 0 {
			return v, nil
		}
	}
	return 0, errors.New("no authenticated user in context")
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// jsonError translates the repository error taxonomy into an HTTP
// response: NotFound sentinels map to 404, conflicts to 409 and
// anything else to 500.  NotFound and Conflict are expected outcomes
// surfaced verbatim; Internal hides the store error behind a generic
// message.
func jsonError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrSeatNotFound),
		errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEventExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case isLockContention(err):
		return c.JSON(http.StatusConflict, echo.Map{"error": "operation lost a concurrent race, retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// isLockContention reports whether the store rejected the operation
// because of row-lock contention: MySQL 1205 (lock wait timeout) or
// 1213 (deadlock victim).  Losing a lock race is a retryable conflict,
// not a server fault.
func isLockContention(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "error 1205") || strings.Contains(msg, "error 1213")
}
