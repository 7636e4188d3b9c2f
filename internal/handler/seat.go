package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/model"
	"github.com/iliyamo/evently/internal/repository"
	"github.com/iliyamo/evently/internal/service"
)

// SeatHandler exposes the seat map of an event and the claim endpoint.
// The seat list is a cached read view; the claim delegates to the
// reservation service, which owns the locking transaction.
type SeatHandler struct {
	Events       *repository.EventRepo
	Seats        *repository.SeatRepo
	Reservations *service.ReservationService
	Cache        *cache.Store
}

func NewSeatHandler(events *repository.EventRepo, seats *repository.SeatRepo,
	reservations *service.ReservationService, store *cache.Store) *SeatHandler {
	return &SeatHandler{Events: events, Seats: seats, Reservations: reservations, Cache: store}
}

type seatView struct {
	SeatNumber uint32 `json:"seat_number"`
	Status     string `json:"status"`
}

type seatListResp struct {
	EventID   uint64     `json:"event_id"`
	Capacity  uint32     `json:"capacity"`
	Available uint32     `json:"available"`
	Seats     []seatView `json:"seats"`
}

// List returns every seat of the event with its status, cached under
// the event:seats namespace so a claim or cancel purges it.
func (h *SeatHandler) List(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	key := cache.Key("event:seats", strconv.FormatUint(id, 10))

	var cached seatListResp
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, cached)
	}

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	seats, err := h.Seats.ListByEvent(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	resp := seatListResp{EventID: ev.ID, Capacity: ev.Capacity, Seats: make([]seatView, 0, len(seats))}
	for _, s := range seats {
		if s.Status == model.SeatAvailable {
			resp.Available++
		}
		resp.Seats = append(resp.Seats, seatView{SeatNumber: s.SeatNumber, Status: s.Status})
	}
	h.Cache.Set(ctx, key, resp, cache.DefaultTTL)
	return c.JSON(http.StatusOK, resp)
}

type bookSeatReq struct {
	SeatNumber uint32 `json:"seat_number"`
}

// Book claims one seat of the event for the authenticated user.  A
// taken seat or a full event comes back as 409; concurrent claims for
// the same seat are serialized by the row lock inside the service.
func (h *SeatHandler) Book(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookSeatReq
	if err := c.Bind(&req); err != nil || req.SeatNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_number required"})
	}

	booking, seatNumber, err := h.Reservations.Claim(c.Request().Context(), eventID, req.SeatNumber, uid)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":  booking.ID,
		"event_id":    eventID,
		"seat_number": seatNumber,
		"status":      booking.Status,
		"created_at":  booking.CreatedAt,
	})
}
