package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/model"
)

// CatalogHandler maintains the flights and hotels that can be sold.
type CatalogHandler struct {
	catalog Catalog
	log     *zap.Logger
}

func NewCatalogHandler(catalog Catalog, log *zap.Logger) *CatalogHandler {
	if catalog == nil {
		panic("nil service passed to NewCatalogHandler")
	}
	return &CatalogHandler{catalog: catalog, log: log}
}

type catalogRequest struct {
	ID          string  `json:"itemId"`
	ItemType    string  `json:"itemType"`
	Name        string  `json:"name"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	BasePrice   float64 `json:"basePrice"`
	TotalCount  int     `json:"totalCount"`
}

// Upsert handles POST /v1/admin/catalog.  Resizing an item keeps the units
// already sold.
func (h *CatalogHandler) Upsert(c echo.Context) error {
	var req catalogRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	kind, err := model.ParseItemKind(req.ItemType)
	if err != nil {
		return badRequest(c, err.Error())
	}
	it, err := h.catalog.Upsert(c.Request().Context(), model.CatalogItem{
		ID:          req.ID,
		Kind:        kind,
		Name:        req.Name,
		Origin:      req.Origin,
		Destination: req.Destination,
		BasePrice:   req.BasePrice,
		TotalCount:  req.TotalCount,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, it)
}

// Get handles GET /v1/catalog/:itemType/:itemId.
func (h *CatalogHandler) Get(c echo.Context) error {
	kind, err := model.ParseItemKind(c.Param("itemType"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	it, err := h.catalog.Get(c.Request().Context(), kind, c.Param("itemId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, it)
}

// List handles GET /v1/catalog/:itemType.
func (h *CatalogHandler) List(c echo.Context) error {
	kind, err := model.ParseItemKind(c.Param("itemType"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	items, err := h.catalog.List(c.Request().Context(), kind)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if items == nil {
		items = []model.CatalogItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
