package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/model"
)

// SelectionHandler lets travelers browse seat maps and room layouts and
// pick specific units.
type SelectionHandler struct {
	layouts Layouts
	log     *zap.Logger
}

func NewSelectionHandler(layouts Layouts, log *zap.Logger) *SelectionHandler {
	if layouts == nil {
		panic("nil service passed to NewSelectionHandler")
	}
	return &SelectionHandler{layouts: layouts, log: log}
}

type selectRequest struct {
	FlightID    string   `json:"flightId"`
	HotelID     string   `json:"hotelId"`
	SeatNumbers []string `json:"seatNumbers"`
	RoomNumber  string   `json:"roomNumber"`
	OwnerID     string   `json:"ownerId"`
}

// FlightSeatMap handles GET /v1/seat-selection/flight/:flightId.
func (h *SelectionHandler) FlightSeatMap(c echo.Context) error {
	return h.layout(c, model.KindFlight, c.Param("flightId"))
}

// HotelRoomLayout handles GET /v1/room-selection/hotel/:hotelId.
func (h *SelectionHandler) HotelRoomLayout(c echo.Context) error {
	return h.layout(c, model.KindHotel, c.Param("hotelId"))
}

func (h *SelectionHandler) layout(c echo.Context, kind model.ItemKind, itemID string) error {
	l, err := h.layouts.GetOrCreateLayout(c.Request().Context(), kind, strings.TrimSpace(itemID))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, l)
}

// BookSeats handles POST /v1/seat-selection/book-seats and returns the
// updated seat map.
func (h *SelectionHandler) BookSeats(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.reserve(c, model.KindFlight, req.FlightID, req.SeatNumbers, req.OwnerID)
}

// BookRoom handles POST /v1/room-selection/book-room and returns the
// updated room layout.
func (h *SelectionHandler) BookRoom(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.RoomNumber) == "" {
		return badRequest(c, "roomNumber is required")
	}
	return h.reserve(c, model.KindHotel, req.HotelID, []string{req.RoomNumber}, req.OwnerID)
}

func (h *SelectionHandler) reserve(c echo.Context, kind model.ItemKind, itemID string, numbers []string, ownerID string) error {
	owner, err := resolveOwner(c, ownerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	l, err := h.layouts.ReserveUnits(c.Request().Context(), kind, strings.TrimSpace(itemID), numbers, owner)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, l)
}

// UpgradePrice handles POST /v1/seat-selection/upgrade-price.
func (h *SelectionHandler) UpgradePrice(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	price, err := h.layouts.UpgradePrice(c.Request().Context(), model.KindFlight, strings.TrimSpace(req.FlightID), req.SeatNumbers)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"upgradePrice": price})
}

// AvailableRooms handles GET /v1/room-selection/hotel/:hotelId/available/:tier.
func (h *SelectionHandler) AvailableRooms(c echo.Context) error {
	tier := model.Tier(strings.ToLower(strings.TrimSpace(c.Param("tier"))))
	if !slices.Contains(model.TiersFor(model.KindHotel), tier) {
		return badRequest(c, "unknown room type")
	}
	seq, err := h.layouts.ListAvailableByTier(c.Request().Context(), model.KindHotel, strings.TrimSpace(c.Param("hotelId")), tier)
	if err != nil {
		return respondError(c, h.log, err)
	}
	rooms := []model.Unit{}
	for u := range seq {
		rooms = append(rooms, u)
	}
	return c.JSON(http.StatusOK, rooms)
}
