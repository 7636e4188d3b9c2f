// Package router wires the application together: it opens the
// database, connects the redis cache and waitlist store, builds the
// repositories, services and handlers, and registers every route on
// the Echo instance.  A missing redis degrades caching to no-ops and
// disables rate limiting, but the waitlist endpoints then fail loudly.
package router

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/config"
	"github.com/iliyamo/evently/internal/database"
	"github.com/iliyamo/evently/internal/handler"
	"github.com/iliyamo/evently/internal/middleware"
	"github.com/iliyamo/evently/internal/repository"
	"github.com/iliyamo/evently/internal/service"
	"github.com/iliyamo/evently/internal/waitlist"
)

// RegisterRoutes performs the full dependency wiring and mounts all
// endpoints.  It fatals when the database is unreachable; everything
// else degrades.
func RegisterRoutes(e *echo.Echo) {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("router: database unavailable: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("router: redis unavailable; caching and rate limiting disabled")
	}
	store := cache.NewStore(rdb)
	inval := cache.NewInvalidator(store)
	wlStore := waitlist.NewStore(rdb)

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	eventRepo := repository.NewEventRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	analyticsRepo := repository.NewAnalyticsRepo(db)

	notifier := service.NewAMQPNotifier()
	waitlistSvc := service.NewWaitlistService(eventRepo, bookingRepo, userRepo, wlStore, notifier)
	reservationSvc := service.NewReservationService(db, eventRepo, seatRepo, bookingRepo, inval, notifier)
	cancellationSvc := service.NewCancellationService(db, bookingRepo, seatRepo, inval, waitlistSvc)

	auth := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	events := handler.NewEventHandler(eventRepo, bookingRepo, store, inval)
	seats := handler.NewSeatHandler(eventRepo, seatRepo, reservationSvc, store)
	bookings := handler.NewBookingHandler(bookingRepo, cancellationSvc, store)
	wl := handler.NewWaitlistHandler(waitlistSvc)
	analytics := handler.NewAnalyticsHandler(analyticsRepo, store)

	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	e.GET("/health", handler.Health)

	v1 := e.Group("/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", auth.Register)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/refresh", auth.Refresh)
	authGroup.POST("/refresh/access", auth.RefreshAccess)
	authGroup.POST("/logout", auth.Logout)
	authGroup.GET("/me", auth.Me, middleware.JWTAuth(cfg.JWTSecret))

	// Routes for any authenticated account.
	protected := v1.Group("", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("user", "admin"))
	protected.GET("/events", events.List)
	protected.GET("/events/:id", events.Get)
	protected.GET("/events/:id/seats", seats.List)
	protected.POST("/events/:id/book", seats.Book)
	protected.POST("/events/:id/waitlist", wl.Join)
	protected.GET("/bookings", bookings.ListMine)
	protected.DELETE("/bookings/:id", bookings.Cancel)
	protected.GET("/analytics/me", analytics.MyStats)

	// Admin-only management and reporting.
	admin := v1.Group("/admin", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("admin"))
	admin.POST("/events", events.Create)
	admin.PATCH("/events/:id", events.Update)
	admin.DELETE("/events/:id", events.Delete)
	admin.GET("/events/:id/bookings", events.ListBookings)
	admin.GET("/events/:id/waitlist/next", wl.PeekNext)
	admin.GET("/analytics/overview", analytics.Overview)
	admin.GET("/analytics/popular", analytics.PopularEvents)
	admin.GET("/analytics/utilization", analytics.Utilization)
	admin.GET("/analytics/trends", analytics.Trends)
}
