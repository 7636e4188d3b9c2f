package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/repository"
)

// analyticsTTL is longer than the default read-view TTL because the
// reports tolerate staleness and their queries are the expensive ones.
const analyticsTTL = 5 * time.Minute

// AnalyticsHandler serves the admin reporting endpoints plus the
// per-user stats view.  Reports are cached by TTL only; nothing
// invalidates them on writes.
type AnalyticsHandler struct {
	Analytics *repository.AnalyticsRepo
	Cache     *cache.Store
}

func NewAnalyticsHandler(analytics *repository.AnalyticsRepo, store *cache.Store) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: analytics, Cache: store}
}

type overviewResp struct {
	Totals             repository.Totals         `json:"totals"`
	AverageUtilization float64                   `json:"average_utilization"`
	PopularEvents      []repository.PopularEvent `json:"popular_events"`
}

// Overview returns the headline counters, average fill level and top
// events in one payload.
func (h *AnalyticsHandler) Overview(c echo.Context) error {
	ctx := c.Request().Context()
	key := cache.Key("analytics", "overview")

	var cached overviewResp
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, cached)
	}
	totals, err := h.Analytics.GetTotals(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	avg, err := h.Analytics.AverageUtilization(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	popular, err := h.Analytics.MostPopularEvents(ctx, 5)
	if err != nil {
		return jsonError(c, err)
	}
	resp := overviewResp{Totals: totals, AverageUtilization: avg, PopularEvents: popular}
	h.Cache.Set(ctx, key, resp, analyticsTTL)
	return c.JSON(http.StatusOK, resp)
}

// PopularEvents ranks events by active bookings.  ?limit caps the
// result, default 5.
func (h *AnalyticsHandler) PopularEvents(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx := c.Request().Context()
	key := cache.Key("analytics", "popular", strconv.Itoa(limit))

	var cached []repository.PopularEvent
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, echo.Map{"events": cached})
	}
	popular, err := h.Analytics.MostPopularEvents(ctx, limit)
	if err != nil {
		return jsonError(c, err)
	}
	h.Cache.Set(ctx, key, popular, analyticsTTL)
	return c.JSON(http.StatusOK, echo.Map{"events": popular})
}

// Utilization reports the fill level of every event.
func (h *AnalyticsHandler) Utilization(c echo.Context) error {
	ctx := c.Request().Context()
	key := cache.Key("analytics", "utilization")

	var cached []repository.EventUtilization
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, echo.Map{"events": cached})
	}
	util, err := h.Analytics.CapacityUtilization(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	h.Cache.Set(ctx, key, util, analyticsTTL)
	return c.JSON(http.StatusOK, echo.Map{"events": util})
}

// Trends returns daily booking counts for the last ?days days,
// default 30.
func (h *AnalyticsHandler) Trends(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	ctx := c.Request().Context()
	key := cache.Key("analytics", "trends", strconv.Itoa(days))

	var cached []repository.TrendPoint
	if h.Cache.Get(ctx, key, &cached) {
		return c.JSON(http.StatusOK, echo.Map{"trends": cached})
	}
	trends, err := h.Analytics.BookingTrends(ctx, days)
	if err != nil {
		return jsonError(c, err)
	}
	h.Cache.Set(ctx, key, trends, analyticsTTL)
	return c.JSON(http.StatusOK, echo.Map{"trends": trends})
}

// MyStats summarizes the authenticated user's own booking history.
// Not cached: it is cheap and staleness here confuses users.
func (h *AnalyticsHandler) MyStats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	stats, err := h.Analytics.GetUserStats(c.Request().Context(), uid)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
