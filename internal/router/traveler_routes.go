package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/middleware"
)

// RegisterTraveler registers the booking API under /v1.  Travelers and
// admins both reach these routes; handlers restrict travelers to their
// own ownerId.
func RegisterTraveler(e *echo.Echo, h Handlers, opts Options) {
	g := e.Group("/v1", protected(opts, middleware.RoleTraveler, middleware.RoleAdmin)...)
	cache := middleware.NewRedisCache(opts.Cache, opts.Redis, opts.Log)

	// ---- Bookings ----
	g.POST("/bookings/hotel", h.Bookings.BookHotel)
	g.POST("/bookings/flight", h.Bookings.BookFlight)
	g.GET("/bookings/owner/:ownerId", h.Bookings.ListByOwner)
	g.GET("/bookings/:id", h.Bookings.Get)

	// ---- Cancellation ----
	g.POST("/cancellation/calculate-refund", h.Cancellation.CalculateRefund)
	g.POST("/cancellation/cancel", h.Cancellation.Cancel)
	g.PUT("/cancellation/refund-status", h.Cancellation.UpdateRefundStatus)

	// ---- Pricing ----
	g.POST("/pricing/calculate", h.Pricing.Calculate)
	g.GET("/pricing/history/:itemId/:itemType", h.Pricing.History)
	g.GET("/pricing/insights/:itemId/:itemType", h.Pricing.Insights)
	g.POST("/pricing/freeze", h.Pricing.Freeze)

	// ---- Seat and room selection ----
	g.GET("/seat-selection/flight/:flightId", h.Selection.FlightSeatMap)
	g.POST("/seat-selection/book-seats", h.Selection.BookSeats)
	g.POST("/seat-selection/upgrade-price", h.Selection.UpgradePrice)
	g.GET("/room-selection/hotel/:hotelId", h.Selection.HotelRoomLayout)
	g.POST("/room-selection/book-room", h.Selection.BookRoom)
	g.GET("/room-selection/hotel/:hotelId/available/:tier", h.Selection.AvailableRooms)

	// ---- Catalog ----
	g.GET("/catalog/:itemType", h.Catalog.List, cache)
	g.GET("/catalog/:itemType/:itemId", h.Catalog.Get, cache)
}
