package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/service"
)

// BookingHandler creates and lists bookings.
type BookingHandler struct {
	reservations Reserver
	bookings     BookingReader
	log          *zap.Logger
}

func NewBookingHandler(reservations Reserver, bookings BookingReader, log *zap.Logger) *BookingHandler {
	if reservations == nil || bookings == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{reservations: reservations, bookings: bookings, log: log}
}

// bookRequest is shared by hotel and flight bookings.  Price is the total
// the traveler agreed to; leave it out to be charged the frozen or current
// dynamic price.
type bookRequest struct {
	OwnerID    string   `json:"ownerId"`
	HotelID    string   `json:"hotelId"`
	FlightID   string   `json:"flightId"`
	Rooms      int      `json:"rooms"`
	Seats      int      `json:"seats"`
	Price      float64  `json:"price"`
	TravelDate string   `json:"travelDate"`
	Units      []string `json:"units"`
}

// BookHotel handles POST /v1/bookings/hotel.
func (h *BookingHandler) BookHotel(c echo.Context) error {
	return h.book(c, model.KindHotel)
}

// BookFlight handles POST /v1/bookings/flight.
func (h *BookingHandler) BookFlight(c echo.Context) error {
	return h.book(c, model.KindFlight)
}

func (h *BookingHandler) book(c echo.Context, kind model.ItemKind) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	owner, err := resolveOwner(c, req.OwnerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	travel, ok := parseTravelDate(req.TravelDate)
	if !ok {
		return badRequest(c, "travelDate must be RFC 3339 or 2006-01-02T15:04:05")
	}
	in := service.BookInput{
		Kind:       kind,
		OwnerID:    owner,
		Price:      req.Price,
		TravelDate: travel,
		Units:      req.Units,
	}
	if kind == model.KindHotel {
		in.ItemID, in.Quantity = req.HotelID, req.Rooms
	} else {
		in.ItemID, in.Quantity = req.FlightID, req.Seats
	}
	b, err := h.reservations.Book(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// ListByOwner handles GET /v1/bookings/owner/:ownerId, newest first.
func (h *BookingHandler) ListByOwner(c echo.Context) error {
	owner, err := resolveOwner(c, c.Param("ownerId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.bookings.BookingsForOwner(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/bookings/:id.  Another traveler's booking is
// reported as missing rather than forbidden.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := ownedBooking(c, h.bookings, c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, b)
}
