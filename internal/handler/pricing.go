package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/model"
)

// PricingHandler exposes dynamic prices, price history, insights and
// price freezes.
type PricingHandler struct {
	pricing Pricer
	log     *zap.Logger
}

func NewPricingHandler(pricing Pricer, log *zap.Logger) *PricingHandler {
	if pricing == nil {
		panic("nil service passed to NewPricingHandler")
	}
	return &PricingHandler{pricing: pricing, log: log}
}

type priceRequest struct {
	ItemID     string `json:"itemId"`
	ItemType   string `json:"itemType"`
	TravelDate string `json:"travelDate"`
	OwnerID    string `json:"ownerId"`
	Hours      int    `json:"hours"`
}

// Calculate handles POST /v1/pricing/calculate.
func (h *PricingHandler) Calculate(c echo.Context) error {
	var req priceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	kind, err := model.ParseItemKind(req.ItemType)
	if err != nil {
		return badRequest(c, err.Error())
	}
	travel, ok := parseTravelDate(req.TravelDate)
	if !ok || travel.IsZero() {
		return badRequest(c, "travelDate must be RFC 3339 or 2006-01-02T15:04:05")
	}
	price, err := h.pricing.ComputePrice(c.Request().Context(), req.ItemID, kind, travel)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"dynamicPrice": price})
}

// History handles GET /v1/pricing/history/:itemId/:itemType.
func (h *PricingHandler) History(c echo.Context) error {
	kind, err := model.ParseItemKind(c.Param("itemType"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	hist, err := h.pricing.History(c.Request().Context(), c.Param("itemId"), kind)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, hist)
}

// Insights handles GET /v1/pricing/insights/:itemId/:itemType.
func (h *PricingHandler) Insights(c echo.Context) error {
	kind, err := model.ParseItemKind(c.Param("itemType"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	in, err := h.pricing.Insights(c.Request().Context(), c.Param("itemId"), kind)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, in)
}

// Freeze handles POST /v1/pricing/freeze.  Hours defaults to 24.
func (h *PricingHandler) Freeze(c echo.Context) error {
	var req priceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	kind, err := model.ParseItemKind(req.ItemType)
	if err != nil {
		return badRequest(c, err.Error())
	}
	owner, err := resolveOwner(c, req.OwnerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	f, err := h.pricing.FreezePrice(c.Request().Context(), req.ItemID, kind, owner, req.Hours)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Price frozen successfully",
		"expiresIn": int(f.ExpiresAt.Sub(f.FrozenAt).Hours()),
		"freeze":    f,
	})
}
