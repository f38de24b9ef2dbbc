// Package handler exposes the booking engine over HTTP.  Handlers depend on
// the small interfaces below rather than on concrete services so they can
// be exercised with fakes.
package handler

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/middleware"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
	"github.com/iliyamo/travel-booking/internal/service"
)

// Reserver books inventory.
type Reserver interface {
	Book(ctx context.Context, in service.BookInput) (*model.Booking, error)
}

// BookingReader reads the ledger.
type BookingReader interface {
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	BookingsForOwner(ctx context.Context, ownerID string) ([]model.Booking, error)
}

// Canceller cancels bookings and tracks refunds.
type Canceller interface {
	CalculateRefund(ctx context.Context, bookingID, reason string) (float64, error)
	CancelBooking(ctx context.Context, bookingID, reason string) (*model.Booking, error)
	UpdateRefundStatus(ctx context.Context, bookingID, status string) (*model.Booking, error)
}

// Pricer is the dynamic pricing engine.
type Pricer interface {
	ComputePrice(ctx context.Context, itemID string, kind model.ItemKind, travelDate time.Time) (float64, error)
	History(ctx context.Context, itemID string, kind model.ItemKind) (*model.PriceHistory, error)
	Insights(ctx context.Context, itemID string, kind model.ItemKind) (*service.Insights, error)
	FreezePrice(ctx context.Context, itemID string, kind model.ItemKind, ownerID string, hours int) (*model.PriceFreeze, error)
}

// Layouts serves seat maps and room layouts.
type Layouts interface {
	GetOrCreateLayout(ctx context.Context, kind model.ItemKind, itemID string) (*model.Layout, error)
	ReserveUnits(ctx context.Context, kind model.ItemKind, itemID string, numbers []string, holderID string) (*model.Layout, error)
	ListAvailableByTier(ctx context.Context, kind model.ItemKind, itemID string, tier model.Tier) (iter.Seq[model.Unit], error)
	UpgradePrice(ctx context.Context, kind model.ItemKind, itemID string, numbers []string) (float64, error)
}

// Catalog manages sellable items.
type Catalog interface {
	Upsert(ctx context.Context, item model.CatalogItem) (*model.CatalogItem, error)
	Get(ctx context.Context, kind model.ItemKind, id string) (*model.CatalogItem, error)
	List(ctx context.Context, kind model.ItemKind) ([]model.CatalogItem, error)
}

// resolveOwner returns the owner a request acts for.  An empty ownerId
// means the caller; naming someone else requires the admin role and fails
// with ErrForbidden otherwise.
func resolveOwner(c echo.Context, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = middleware.UserID(c)
	}
	if !middleware.CanActFor(c, requested) {
		return "", fmt.Errorf("%w: cannot act for %s", repository.ErrForbidden, requested)
	}
	return requested, nil
}

// travelDateLayouts are tried in order; zone-less values are read as UTC.
var travelDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseTravelDate accepts RFC 3339, a local date-time or a bare date.  An
// empty string yields the zero time, which the services replace with the
// item's default travel date.
func parseTravelDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range travelDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
