package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/repository"
)

// errorMapping translates service errors into HTTP responses.  The first
// match wins, so wrapped sentinels must come before broader ones.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{repository.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{repository.ErrUnitNotFound, http.StatusBadRequest, "unit_not_found"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrForbidden, http.StatusForbidden, "forbidden"},
	{repository.ErrInsufficientInventory, http.StatusConflict, "insufficient_inventory"},
	{repository.ErrUnitUnavailable, http.StatusConflict, "unit_unavailable"},
	{repository.ErrAlreadyCancelled, http.StatusConflict, "already_cancelled"},
	{repository.ErrVersionConflict, http.StatusConflict, "conflict"},
	{repository.ErrConflict, http.StatusConflict, "conflict"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "busy"},
}

// respondError writes {"error", "code"} for err.  Unit errors also list the
// offending unit numbers.  Unmapped errors are logged and reported as 500
// without leaking details.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	for _, m := range errorMapping {
		if !errors.Is(err, m.err) {
			continue
		}
		body := echo.Map{"error": err.Error(), "code": m.code}
		var unavailable *repository.UnitUnavailableError
		var missing *repository.UnitNotFoundError
		switch {
		case errors.As(err, &unavailable):
			body["units"] = unavailable.Units
		case errors.As(err, &missing):
			body["units"] = missing.Units
		}
		return c.JSON(m.status, body)
	}
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads the body.
		return c.NoContent(499)
	}
	log.Error("request failed",
		zap.String("route", c.Path()),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal_error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "invalid_input"})
}
