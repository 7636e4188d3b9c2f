package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/service"
)

// WaitlistHandler admits users to a full event's waitlist and lets
// admins inspect the next entry in line.
type WaitlistHandler struct {
	Waitlist *service.WaitlistService
}

func NewWaitlistHandler(waitlist *service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{Waitlist: waitlist}
}

// Join puts the authenticated user on the event's waitlist.  Joining
// an event that still has free seats is rejected with 409; the caller
// should claim a seat instead.
func (h *WaitlistHandler) Join(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entry, err := h.Waitlist.Join(c.Request().Context(), eventID, uid)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// PeekNext shows the earliest live waitlist entry without consuming
// it.  Admin only; an empty waitlist yields 404.
func (h *WaitlistHandler) PeekNext(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	entry, err := h.Waitlist.PeekEarliest(c.Request().Context(), eventID)
	if err != nil {
		return jsonError(c, err)
	}
	if entry == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "waitlist is empty"})
	}
	return c.JSON(http.StatusOK, entry)
}
