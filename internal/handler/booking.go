package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/repository"
	"github.com/iliyamo/evently/internal/service"
)

// BookingHandler lists a user's bookings and cancels them.  The list
// is a cached read view keyed by user; cancellation delegates to the
// cancellation service after an ownership check.
type BookingHandler struct {
	Bookings      *repository.BookingRepo
	Cancellations *service.CancellationService
	Cache         *cache.Store
}

func NewBookingHandler(bookings *repository.BookingRepo,
	cancellations *service.CancellationService, store *cache.Store) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Cancellations: cancellations, Cache: store}
}

// ListMine returns the authenticated user's bookings, newest first,
// cached under the user:bookings namespace.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	key := cache.Key("user:bookings", strconv.FormatUint(uid, 10))

	var cached []repository.BookingDetail
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, echo.Map{"bookings": cached, "count": len(cached)})
	}
	details, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return jsonError(c, err)
	}
	h.Cache.Set(ctx, key, details, cache.DefaultTTL)
	return c.JSON(http.StatusOK, echo.Map{"bookings": details, "count": len(details)})
}

// Cancel releases the seat of a BOOKED booking.  Users may cancel only
// their own bookings; admins may cancel any.  A booking that is
// PENDING or already CANCELLED comes back as 409.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	booking, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	role, _ := c.Get("role").(string)
	if role != "admin" && (booking.UserID == nil || *booking.UserID != uid) {
		return jsonError(c, repository.ErrForbidden)
	}

	if _, err := h.Cancellations.Cancel(ctx, id); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking_id": id, "status": "CANCELLED"})
}
