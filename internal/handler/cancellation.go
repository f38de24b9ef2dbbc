package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/middleware"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// CancellationHandler quotes refunds, cancels bookings and records refund
// outcomes.
type CancellationHandler struct {
	cancellations Canceller
	bookings      BookingReader
	log           *zap.Logger
}

func NewCancellationHandler(cancellations Canceller, bookings BookingReader, log *zap.Logger) *CancellationHandler {
	if cancellations == nil || bookings == nil {
		panic("nil service passed to NewCancellationHandler")
	}
	return &CancellationHandler{cancellations: cancellations, bookings: bookings, log: log}
}

type cancelRequest struct {
	BookingID string `json:"bookingId"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
}

// ownedBooking loads a booking the caller may act on.  Bookings of other
// owners are reported as not found.
func ownedBooking(c echo.Context, bookings BookingReader, id string) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.ErrInvalidInput
	}
	b, err := bookings.GetBooking(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !middleware.CanActFor(c, b.OwnerID) {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (h *CancellationHandler) bindOwned(c echo.Context, req *cancelRequest) error {
	if err := c.Bind(req); err != nil {
		return repository.ErrInvalidInput
	}
	_, err := ownedBooking(c, h.bookings, req.BookingID)
	return err
}

// CalculateRefund handles POST /v1/cancellation/calculate-refund.
func (h *CancellationHandler) CalculateRefund(c echo.Context) error {
	var req cancelRequest
	if err := h.bindOwned(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	amount, err := h.cancellations.CalculateRefund(c.Request().Context(), req.BookingID, req.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"refundAmount": amount, "bookingId": req.BookingID})
}

// Cancel handles POST /v1/cancellation/cancel.
func (h *CancellationHandler) Cancel(c echo.Context) error {
	return h.mutate(c, func(ctx context.Context, req cancelRequest) (*model.Booking, error) {
		return h.cancellations.CancelBooking(ctx, req.BookingID, req.Reason)
	})
}

// UpdateRefundStatus handles PUT /v1/cancellation/refund-status.
func (h *CancellationHandler) UpdateRefundStatus(c echo.Context) error {
	return h.mutate(c, func(ctx context.Context, req cancelRequest) (*model.Booking, error) {
		return h.cancellations.UpdateRefundStatus(ctx, req.BookingID, req.Status)
	})
}

func (h *CancellationHandler) mutate(c echo.Context, fn func(context.Context, cancelRequest) (*model.Booking, error)) error {
	var req cancelRequest
	if err := h.bindOwned(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	b, err := fn(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, b)
}
