package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/middleware"
)

// RegisterAdmin registers ADMIN-only endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h Handlers, opts Options) {
	g := e.Group("/v1/admin", protected(opts, middleware.RoleAdmin)...)
	g.POST("/catalog", h.Catalog.Upsert)
}
