// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/handler"
	"github.com/iliyamo/travel-booking/internal/metrics"
	"github.com/iliyamo/travel-booking/internal/middleware"
	"github.com/iliyamo/travel-booking/internal/tracing"
)

// Handlers bundles every HTTP handler the API serves.
type Handlers struct {
	Health       *handler.HealthHandler
	Bookings     *handler.BookingHandler
	Cancellation *handler.CancellationHandler
	Pricing      *handler.PricingHandler
	Selection    *handler.SelectionHandler
	Catalog      *handler.CatalogHandler
}

// Options carries what the middleware stack needs.  A nil Redis client
// turns the response cache and the rate limiter off.
type Options struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *zap.Logger
}

// New builds the echo instance with global middleware and all routes.
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(tracing.Middleware())
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(opts.Log))

	RegisterPublic(e, h)
	RegisterTraveler(e, h, opts)
	RegisterAdmin(e, h, opts)
	return e
}

// RegisterPublic registers routes that do not require authentication:
// health checks and the Prometheus scrape endpoint.
func RegisterPublic(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health.Health)
	e.GET("/metrics", metrics.Handler())
}

// protected returns the middleware every /v1 route runs: token check,
// role check, then the per-user rate limit.
func protected(opts Options, roles ...string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole(roles...),
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Log),
	}
}
