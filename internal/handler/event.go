package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/model"
	"github.com/iliyamo/evently/internal/repository"
)

// EventHandler serves event CRUD for admins and the cached read views
// everyone else consumes.  Mutations purge the event's cache namespace
// after the write lands; reads go through the cache store first.
type EventHandler struct {
	Events   *repository.EventRepo
	Bookings *repository.BookingRepo
	Cache    *cache.Store
	Inval    *cache.Invalidator
}

func NewEventHandler(events *repository.EventRepo, bookings *repository.BookingRepo,
	store *cache.Store, inval *cache.Invalidator) *EventHandler {
	return &EventHandler{Events: events, Bookings: bookings, Cache: store, Inval: inval}
}

type eventReq struct {
	Name        string     `json:"name"`
	Venue       *string    `json:"venue"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    *uint32    `json:"capacity"`
}

// Create registers a new event with seats 1..capacity.  Admin only.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if req.StartTime == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time required"})
	}
	if req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must follow start_time"})
	}
	if req.Capacity == nil || *req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}

	ev := &model.Event{
		Name:        req.Name,
		Venue:       req.Venue,
		Description: req.Description,
		StartTime:   *req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    *req.Capacity,
	}
	if uid, err := getUserID(c); err == nil {
		ev.CreatedBy = &uid
	}
	if err := h.Events.Create(c.Request().Context(), ev); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// Get returns one event, served from cache when fresh.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	key := cache.Key("event", strconv.FormatUint(id, 10))

	var cached model.Event
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, cached)
	}
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	h.Cache.Set(ctx, key, ev, cache.DefaultTTL)
	return c.JSON(http.StatusOK, ev)
}

// List returns events matching the query filters.  Filtered lists are
// not cached; only the per-event views are.
func (h *EventHandler) List(c echo.Context) error {
	f := repository.EventFilter{
		Name:  strings.TrimSpace(c.QueryParam("name")),
		Venue: strings.TrimSpace(c.QueryParam("venue")),
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to timestamp"})
		}
		f.To = &t
	}
	if v := c.QueryParam("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}
	events, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events, "count": len(events)})
}

// Update patches event fields.  Capacity may only grow.  Admin only.
func (h *EventHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	upd := repository.EventUpdate{
		Venue:       req.Venue,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		upd.Name = &name
	}
	ctx := c.Request().Context()
	ev, err := h.Events.Update(ctx, id, upd)
	if err != nil {
		return jsonError(c, err)
	}
	h.Inval.InvalidateEvent(ctx, id)
	return c.JSON(http.StatusOK, ev)
}

// Delete removes an event and its seats.  Admin only.
func (h *EventHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if err := h.Events.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Inval.InvalidateEvent(ctx, id)
	return c.NoContent(http.StatusNoContent)
}

// ListBookings returns the active bookings of an event, cached under
// the event:bookings namespace.  Admin only.
func (h *EventHandler) ListBookings(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	key := cache.Key("event:bookings", strconv.FormatUint(id, 10))

	var cached []repository.BookingDetail
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, echo.Map{"bookings": cached, "count": len(cached)})
	}
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		return jsonError(c, err)
	}
	details, err := h.Bookings.ListBookedByEvent(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	h.Cache.Set(ctx, key, details, cache.DefaultTTL)
	return c.JSON(http.StatusOK, echo.Map{"bookings": details, "count": len(details)})
}
